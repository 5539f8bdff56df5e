package router

import (
	"fmt"

	apperrors "github.com/deskai/deskai/internal/errors"
	"github.com/deskai/deskai/pkg/protocol"
)

// TargetKind says what serves a query.
type TargetKind int

const (
	TargetModel TargetKind = iota
	TargetTool
)

func (k TargetKind) String() string {
	if k == TargetTool {
		return "tool"
	}
	return "model"
}

// Decision is the routing target for one query.
type Decision struct {
	Kind   TargetKind `json:"kind"`
	Target string     `json:"target"`
	Reason string     `json:"reason,omitempty"`
}

// Route returns the envelope route: a model id or "tool:<name>".
func (d Decision) Route() string {
	if d.Kind == TargetTool {
		return protocol.ToolRoute(d.Target)
	}
	return d.Target
}

// ToolsUsed is [name] for tool routes and empty for model routes.
func (d Decision) ToolsUsed() []string {
	if d.Kind == TargetTool {
		return []string{d.Target}
	}
	return []string{}
}

// RoutingError reports a query that could not be served. Decision is where
// the query was headed.
type RoutingError struct {
	Decision Decision
	Err      error
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("route %s: %v", e.Decision.Route(), e.Err)
}

func (e *RoutingError) Unwrap() error {
	return e.Err
}

// Is matches apperrors.ErrRouting in addition to the wrapped cause.
func (e *RoutingError) Is(target error) bool {
	return target == apperrors.ErrRouting
}

// Code returns the error code of the cause, or ROUTING_FAILED.
func (e *RoutingError) Code() string {
	if code := apperrors.GetCode(e.Err); code != "" {
		return code
	}
	return apperrors.CodeRoutingFailed
}
