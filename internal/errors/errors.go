// Package errors provides the error taxonomy shared by DeskAI components.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================
// Error Categories
// ============================================================

// Category defines the type of error for handling decisions.
type Category int

const (
	// CategoryTemporary errors are retryable (network timeouts, temporary failures)
	CategoryTemporary Category = iota

	// CategoryPermanent errors are not retryable (bad payloads, failed tools)
	CategoryPermanent

	// CategoryUser errors are due to user input (validation, unknown names)
	CategoryUser

	// CategorySystem errors are system-level (missing binaries, permissions)
	CategorySystem
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTemporary:
		return "temporary"
	case CategoryPermanent:
		return "permanent"
	case CategoryUser:
		return "user"
	case CategorySystem:
		return "system"
	default:
		return "unknown"
	}
}

// ============================================================
// Kinds
// ============================================================

// Kind groups error codes into the failure classes callers branch on.
// Several codes can share a kind (every FILE_* code is KindIO).
type Kind string

const (
	KindBackendUnavailable Kind = "backend_unavailable"
	KindBackendProtocol    Kind = "backend_protocol"
	KindUnknownTool        Kind = "unknown_tool"
	KindIO                 Kind = "io"
	KindOcrToolMissing     Kind = "ocr_tool_missing"
	KindOcrExecution       Kind = "ocr_execution"
	KindInvalidInput       Kind = "invalid_input"
	KindRouting            Kind = "routing"
)

// Sentinels for errors.Is. They match any AppError of the same kind.
var (
	ErrBackendUnavailable = &AppError{Kind: KindBackendUnavailable, Message: "inference backend unavailable"}
	ErrBackendProtocol    = &AppError{Kind: KindBackendProtocol, Message: "inference backend protocol error"}
	ErrUnknownTool        = &AppError{Kind: KindUnknownTool, Message: "unknown tool"}
	ErrIO                 = &AppError{Kind: KindIO, Message: "i/o error"}
	ErrOcrToolMissing     = &AppError{Kind: KindOcrToolMissing, Message: "ocr tool missing"}
	ErrOcrExecution       = &AppError{Kind: KindOcrExecution, Message: "ocr execution failed"}
	ErrInvalidInput       = &AppError{Kind: KindInvalidInput, Message: "invalid input"}
	ErrRouting            = &AppError{Kind: KindRouting, Message: "routing failed"}
)

// ============================================================
// AppError - Main Error Type
// ============================================================

// AppError is the main error type for all DeskAI errors.
type AppError struct {
	// Code is a unique error code for programmatic handling
	Code string

	// Kind is the failure class used for errors.Is matching
	Kind Kind

	// Message is a user-friendly error message
	Message string

	// Category determines how the error should be handled
	Category Category

	// Inner is the underlying error
	Inner error

	// Retryable indicates if the operation can be retried
	Retryable bool

	// Suggestions are recovery suggestions for the user
	Suggestions []string

	// Context is additional debugging information
	Context map[string]interface{}
}

// Error returns the error message.
func (e *AppError) Error() string {
	var sb strings.Builder

	if e.Code != "" {
		sb.WriteString("[")
		sb.WriteString(e.Code)
		sb.WriteString("] ")
	}

	sb.WriteString(e.Message)

	if e.Inner != nil {
		innerMsg := e.Inner.Error()
		if innerMsg != "" && innerMsg != e.Message {
			sb.WriteString(": ")
			sb.WriteString(innerMsg)
		}
	}

	return sb.String()
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Inner
}

// Is reports whether target is a sentinel of the same kind, or is
// contained in the wrapped error.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok && t.Kind != "" && t.Kind == e.Kind {
		return true
	}
	return errors.Is(e.Inner, target)
}

// ============================================================
// Error Constructors
// ============================================================

// New creates a new AppError.
func New(code, message string, category Category) *AppError {
	return &AppError{
		Code:     code,
		Kind:     kindForCode(code),
		Message:  message,
		Category: category,
	}
}

// BackendUnavailable reports that the inference service could not be reached.
func BackendUnavailable(err error) *AppError {
	return NewBuilder(CodeModelUnavailable, "The local inference service is not reachable").
		Temporary().
		Wrap(err).
		WithSuggestion("Start the inference service (ollama serve)").
		WithSuggestion("Check inference.base_url in the config").
		Build()
}

// BackendProtocol reports a response that could not be understood.
func BackendProtocol(message string, err error) *AppError {
	return NewBuilder(CodeModelProtocolError, message).
		Permanent().
		Wrap(err).
		Build()
}

// UnknownTool reports a tool name that is not registered.
func UnknownTool(name string) *AppError {
	return NewBuilder(CodeToolNotFound, "unknown tool: "+name).
		User().
		WithContext("tool", name).
		Build()
}

// InvalidParams reports missing or malformed tool parameters.
func InvalidParams(tool, message string) *AppError {
	return NewBuilder(CodeToolInvalidParams, message).
		User().
		WithContext("tool", tool).
		Build()
}

// InvalidInput reports a rejected caller input outside of tool parameters.
func InvalidInput(message string) *AppError {
	return NewBuilder(CodeInvalidInput, message).User().Build()
}

// IO wraps a filesystem failure. The code picks the user-facing wording.
func IO(code, path string, err error) *AppError {
	msg := "file operation failed"
	switch code {
	case CodeFileNotFound:
		msg = "file not found: " + path
	case CodeFileReadFailed:
		msg = "could not read " + path
	case CodeFileWriteFailed:
		msg = "could not write " + path
	case CodeFileAccessDenied:
		msg = "access denied: " + path
	}
	b := NewBuilder(code, msg).System().Wrap(err).WithContext("path", path)
	if code == CodeFileAccessDenied {
		b = b.User()
	}
	return b.Build()
}

// OcrToolMissing reports that no OCR executable was found.
func OcrToolMissing(searched []string) *AppError {
	return NewBuilder(CodeOcrToolMissing, "No OCR executable found").
		System().
		WithContext("searched", searched).
		WithSuggestion("Install Tesseract OCR").
		WithSuggestion("Or set ocr.command to the executable path").
		Build()
}

// OcrExecution reports an OCR process that ran but failed.
func OcrExecution(stderr string, err error) *AppError {
	msg := "OCR tool failed"
	if s := strings.TrimSpace(stderr); s != "" {
		msg = fmt.Sprintf("OCR tool failed: %s", s)
	}
	return NewBuilder(CodeOcrExecutionFailed, msg).Permanent().Wrap(err).Build()
}

// ============================================================
// Builder Pattern for Fluent Error Construction
// ============================================================

// Builder provides fluent error construction.
type Builder struct {
	err *AppError
}

// NewBuilder starts building a new error.
func NewBuilder(code, message string) *Builder {
	return &Builder{
		err: &AppError{
			Code:     code,
			Kind:     kindForCode(code),
			Message:  message,
			Category: CategoryTemporary,
			Context:  make(map[string]interface{}),
		},
	}
}

// Temporary marks the error as temporary/retryable.
func (b *Builder) Temporary() *Builder {
	b.err.Category = CategoryTemporary
	b.err.Retryable = true
	return b
}

// Permanent marks the error as permanent/non-retryable.
func (b *Builder) Permanent() *Builder {
	b.err.Category = CategoryPermanent
	b.err.Retryable = false
	return b
}

// User marks the error as a user input error.
func (b *Builder) User() *Builder {
	b.err.Category = CategoryUser
	b.err.Retryable = false
	return b
}

// System marks the error as a system error.
func (b *Builder) System() *Builder {
	b.err.Category = CategorySystem
	b.err.Retryable = false
	return b
}

// Wrap sets the underlying error.
func (b *Builder) Wrap(err error) *Builder {
	b.err.Inner = err
	return b
}

// WithSuggestion adds a recovery suggestion.
func (b *Builder) WithSuggestion(suggestion string) *Builder {
	b.err.Suggestions = append(b.err.Suggestions, suggestion)
	return b
}

// WithContext adds context information.
func (b *Builder) WithContext(key string, value interface{}) *Builder {
	b.err.Context[key] = value
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *AppError {
	return b.err
}

// ============================================================
// Error Codes
// ============================================================

const (
	// Model errors
	CodeModelUnavailable   = "MODEL_UNAVAILABLE"
	CodeModelProtocolError = "MODEL_PROTOCOL_ERROR"

	// Tool errors
	CodeToolNotFound        = "TOOL_NOT_FOUND"
	CodeToolExecutionFailed = "TOOL_EXECUTION_FAILED"
	CodeToolInvalidParams   = "TOOL_INVALID_PARAMS"

	// OCR errors
	CodeOcrToolMissing     = "OCR_TOOL_MISSING"
	CodeOcrExecutionFailed = "OCR_EXECUTION_FAILED"

	// File errors
	CodeFileNotFound     = "FILE_NOT_FOUND"
	CodeFileAccessDenied = "FILE_ACCESS_DENIED"
	CodeFileReadFailed   = "FILE_READ_FAILED"
	CodeFileWriteFailed  = "FILE_WRITE_FAILED"

	// Routing errors
	CodeRoutingFailed = "ROUTING_FAILED"
	CodeUnknownRoute  = "UNKNOWN_ROUTE"

	// Config errors
	CodeConfigInvalid = "CONFIG_INVALID"

	// Validation errors
	CodeInvalidInput = "INVALID_INPUT"
)

func kindForCode(code string) Kind {
	switch code {
	case CodeModelUnavailable:
		return KindBackendUnavailable
	case CodeModelProtocolError:
		return KindBackendProtocol
	case CodeToolNotFound:
		return KindUnknownTool
	case CodeFileNotFound, CodeFileAccessDenied, CodeFileReadFailed, CodeFileWriteFailed:
		return KindIO
	case CodeOcrToolMissing:
		return KindOcrToolMissing
	case CodeOcrExecutionFailed:
		return KindOcrExecution
	case CodeInvalidInput, CodeToolInvalidParams, CodeConfigInvalid:
		return KindInvalidInput
	case CodeRoutingFailed, CodeUnknownRoute:
		return KindRouting
	}
	return ""
}

// ============================================================
// Helpers
// ============================================================

// Is mirrors the standard library's errors.Is so callers need one import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As mirrors the standard library's errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode returns the code of the outermost AppError, or "".
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}

	// Default to retryable for unknown errors
	return true
}

// FormatUserMessage formats a user-friendly error message with suggestions.
func FormatUserMessage(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	var appErr *AppError
	if errors.As(err, &appErr) {
		sb.WriteString(appErr.Error())

		if len(appErr.Suggestions) > 0 {
			sb.WriteString("\n\nSuggestions:")
			for _, s := range appErr.Suggestions {
				sb.WriteString("\n  - ")
				sb.WriteString(s)
			}
		}

		return sb.String()
	}

	return err.Error()
}
