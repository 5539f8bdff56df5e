// Package executor provides the tool execution interface and the built-in
// tools.
package executor

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/deskai/deskai/internal/errors"
)

// Tool represents a callable tool.
type Tool interface {
	// Name returns the tool's identifier.
	Name() string

	// Description returns what the tool does.
	Description() string

	// Execute runs the tool with the given string parameters.
	Execute(ctx context.Context, params map[string]string) (*Result, error)
}

// Result represents the result of a tool execution.
type Result struct {
	Tool       string `json:"tool"`
	Output     string `json:"output"`
	Data       any    `json:"data,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// NewResult creates a result with a text output and optional data.
func NewResult(output string, data any) *Result {
	return &Result{
		Output: output,
		Data:   data,
	}
}

// TimedResult wraps a result with duration.
func TimedResult(result *Result, start time.Time) *Result {
	result.DurationMs = time.Since(start).Milliseconds()
	return result
}

// Registry manages available tools for execution. It is filled once at
// startup and read concurrently afterwards.
type Registry struct {
	tools   map[string]Tool
	aliases map[string]string
}

// NewRegistry creates a new tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		aliases: make(map[string]string),
	}
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) {
	r.tools[tool.Name()] = tool
}

// Alias makes alias resolve to the tool registered as target.
func (r *Registry) Alias(alias, target string) {
	r.aliases[alias] = target
}

// Get retrieves a tool by name or alias.
func (r *Registry) Get(name string) (Tool, bool) {
	if t, ok := r.tools[name]; ok {
		return t, true
	}
	if target, ok := r.aliases[name]; ok {
		t, ok := r.tools[target]
		return t, ok
	}
	return nil, false
}

// Has reports whether name resolves to a tool.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// List returns all registered tool names and aliases, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.tools)+len(r.aliases))
	for name := range r.tools {
		names = append(names, name)
	}
	for alias := range r.aliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	return names
}

// Execute runs a tool by name. The result's Tool field is always the
// requested name, even when it is an alias.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]string) (*Result, error) {
	tool, ok := r.Get(name)
	if !ok {
		return nil, apperrors.UnknownTool(name)
	}
	if params == nil {
		params = map[string]string{}
	}

	start := time.Now()
	result, err := tool.Execute(ctx, params)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &Result{}
	}
	result.Tool = name
	if result.DurationMs == 0 {
		TimedResult(result, start)
	}
	return result, nil
}

// required returns a trimmed, non-empty parameter or an InvalidParams error.
func required(tool string, params map[string]string, key string) (string, error) {
	v := strings.TrimSpace(params[key])
	if v == "" {
		return "", apperrors.InvalidParams(tool, key+" parameter required")
	}
	return v, nil
}

// intParam parses an optional positive integer parameter.
func intParam(tool string, params map[string]string, key string, def int) (int, error) {
	v := strings.TrimSpace(params[key])
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperrors.InvalidParams(tool, key+" must be a non-negative integer")
	}
	return n, nil
}
