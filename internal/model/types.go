package model

// Source tells where a model listing came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// ModelList is the result of ListModels.
type ModelList struct {
	Models []string `json:"models"`
	Source Source   `json:"source"`
}

// Status is the result of a status probe.
type Status struct {
	Installed bool   `json:"installed"`
	Running   bool   `json:"running"`
	Message   string `json:"message"`
	Version   string `json:"version,omitempty"`
}

// generateRequest is the body of POST /api/generate.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// NoResponseText is returned when the service answers without a
// "response" field and strict parsing is off.
const NoResponseText = "No response from model"
