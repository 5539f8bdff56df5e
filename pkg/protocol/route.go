package protocol

import "strings"

// ToolRoutePrefix marks envelope routes that were served by a tool.
const ToolRoutePrefix = "tool:"

// Query is a single front-end request.
type Query struct {
	Text       string            `json:"query"`
	ModelHint  string            `json:"modelHint,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// Envelope is the uniform response returned for every routed request.
type Envelope struct {
	Result        string   `json:"result"`
	Route         string   `json:"route"`
	ToolsUsed     []string `json:"toolsUsed"`
	Deterministic bool     `json:"deterministic"`
}

// ToolRoute returns the envelope route for a tool name.
func ToolRoute(name string) string {
	return ToolRoutePrefix + name
}

// ParseToolRoute strips the tool prefix. ok is false for model routes.
func ParseToolRoute(route string) (name string, ok bool) {
	if !strings.HasPrefix(route, ToolRoutePrefix) {
		return "", false
	}
	return strings.TrimPrefix(route, ToolRoutePrefix), true
}
