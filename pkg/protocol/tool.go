// Package protocol provides the wire types shared with the DeskAI front-end.
// These types can be imported by external tools and extensions.
package protocol

// ToolDescriptor describes a registered tool.
type ToolDescriptor struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Parameters  map[string]Parameter `json:"parameters,omitempty"`
}

// Parameter describes a tool parameter.
type Parameter struct {
	Type        string `json:"type"` // string, integer, boolean
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// ToolRequest is the body of a direct tool invocation.
type ToolRequest struct {
	Parameters map[string]string `json:"parameters"`
}

// ModelDescriptor describes a catalog model.
type ModelDescriptor struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
}

// HasCapability reports whether the model lists the capability.
func (m ModelDescriptor) HasCapability(capability string) bool {
	for _, c := range m.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
