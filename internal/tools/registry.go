// Package tools provides a unified tool registry with schemas and executors.
package tools

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	apperrors "github.com/deskai/deskai/internal/errors"
	"github.com/deskai/deskai/internal/search"
	"github.com/deskai/deskai/internal/tools/executor"
	"github.com/deskai/deskai/internal/tools/schemas"
	"github.com/deskai/deskai/pkg/protocol"
)

// Options wires the built-in tools to their collaborators.
type Options struct {
	PlaceholderCalculator bool
	OutputDir             string
	Search                *search.Engine
	SearchRoot            string
	SearchMaxDepth        int
	SearchMaxResults      int
	MaxReadBytes          int64
	OCR                   executor.TextExtractor
	Calendar              executor.DataSource[executor.CalendarEvent]
	Email                 executor.DataSource[executor.EmailMessage]
}

// Registry combines schemas and executors for complete tool management.
// It is filled once at startup and is safe for concurrent reads afterwards.
type Registry struct {
	schemas   *schemas.Registry
	executors *executor.Registry
	logger    zerolog.Logger
}

// NewRegistry creates a new unified tool registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		schemas:   schemas.NewRegistry(),
		executors: executor.NewRegistry(),
		logger:    logger.With().Str("component", "tools").Logger(),
	}
}

// Register registers both a schema and executor for a tool.
func (r *Registry) Register(tool executor.Tool, schema *schemas.Schema) {
	r.executors.Register(tool)
	r.schemas.Register(schema)
}

// Initialize registers the built-in tools.
func (r *Registry) Initialize(opts Options) {
	defs := schemas.NewRegistry()
	schemas.RegisterFileTools(defs)
	schemas.RegisterSystemTools(defs)
	def := func(name string) *schemas.Schema {
		s, _ := defs.Get(name)
		return s
	}

	// === FILE TOOLS ===
	r.Register(&executor.FileRead{MaxBytes: opts.MaxReadBytes}, def("file_read"))
	r.executors.Alias("read_file", "file_read")
	r.schemas.Register(def("read_file"))

	r.Register(&executor.FileWrite{OutputDir: opts.OutputDir}, def("file_write"))

	r.Register(&executor.FileSearch{
		Engine:      opts.Search,
		DefaultRoot: opts.SearchRoot,
		MaxDepth:    opts.SearchMaxDepth,
		MaxResults:  opts.SearchMaxResults,
	}, def("file_search"))

	// === SYSTEM TOOLS ===
	r.Register(&executor.SystemInfo{}, def("system_info"))

	var calc executor.Tool = &executor.Calculator{}
	if opts.PlaceholderCalculator {
		calc = &executor.PlaceholderCalculator{}
	}
	r.Register(calc, def("calculator"))

	if opts.OCR != nil {
		r.Register(&executor.OCR{Extractor: opts.OCR}, def("ocr"))
	}

	// === SECRETARY TOOLS ===
	r.Register(&executor.Calendar{Source: opts.Calendar}, def("calendar"))
	r.Register(&executor.Email{Source: opts.Email}, def("email"))
}

// Has reports whether name is a registered tool or alias.
func (r *Registry) Has(name string) bool {
	return r.executors.Has(name)
}

// List returns the tool descriptors sorted by name.
func (r *Registry) List() []protocol.ToolDescriptor {
	return r.schemas.Descriptors()
}

// Prepare returns the parameters for a tool call. When params lacks the
// tool's primary parameter, it is filled from text.
func (r *Registry) Prepare(name, text string, params map[string]string) map[string]string {
	out := make(map[string]string, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	s, ok := r.schemas.Get(name)
	if !ok || s.Primary == "" {
		return out
	}
	if strings.TrimSpace(out[s.Primary]) == "" && strings.TrimSpace(text) != "" {
		out[s.Primary] = strings.TrimSpace(text)
	}
	return out
}

// Execute runs a tool by name.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]string) (*executor.Result, error) {
	if !r.executors.Has(name) {
		return nil, apperrors.UnknownTool(name)
	}
	if s, ok := r.schemas.Get(name); ok {
		if missing := s.Missing(params); len(missing) > 0 {
			return nil, apperrors.InvalidParams(name, "missing required parameter: "+strings.Join(missing, ", "))
		}
	}

	result, err := r.executors.Execute(ctx, name, params)
	if err != nil {
		r.logger.Debug().Err(err).Str("tool", name).Msg("tool failed")
		return nil, err
	}
	r.logger.Debug().Str("tool", name).Int64("duration_ms", result.DurationMs).Msg("tool completed")
	return result, nil
}
