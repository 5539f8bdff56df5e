// Package model provides the local model catalog and the inference
// backend client.
package model

import (
	"context"
	"time"
)

// Generator produces text from a local model.
type Generator interface {
	// Generate runs a single non-streaming completion.
	Generate(ctx context.Context, prompt, model string, timeout time.Duration) (string, error)
}

// Backend is the full inference service surface used by the API.
type Backend interface {
	Generator

	// ListModels returns the models the service reports, or the static
	// catalog when it cannot.
	ListModels(ctx context.Context) ModelList

	// CheckStatus probes the service.
	CheckStatus(ctx context.Context) Status
}
