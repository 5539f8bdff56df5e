package model

import (
	"github.com/deskai/deskai/pkg/protocol"
)

// defaultModels is the built-in catalog. It doubles as the fallback
// listing when the inference service is unreachable.
var defaultModels = []protocol.ModelDescriptor{
	{
		ID:           "llama3",
		Name:         "Llama 3",
		Description:  "General purpose conversational model",
		Capabilities: []string{"conversation", "qa", "writing", "analysis"},
	},
	{
		ID:           "phi3:mini",
		Name:         "Phi 3 Mini",
		Description:  "Small and fast, good for quick answers and summaries",
		Capabilities: []string{"qa", "summaries"},
	},
	{
		ID:           "mistral",
		Name:         "Mistral",
		Description:  "Fast model for search, classification and Q&A",
		Capabilities: []string{"search", "classification", "qa"},
	},
	{
		ID:           "dolphin-mixtral",
		Name:         "Dolphin Mixtral",
		Description:  "Large model for coding and complex analysis",
		Capabilities: []string{"coding", "debugging", "analysis"},
	},
	{
		ID:           "tinyllama:1.1b",
		Name:         "TinyLlama",
		Description:  "Very small model for low-end hardware",
		Capabilities: []string{"conversation"},
	},
	{
		ID:           "stablelm2:1.6b",
		Name:         "StableLM 2",
		Description:  "Small model for creative writing on low-end hardware",
		Capabilities: []string{"writing", "storytelling"},
	},
}

// Catalog is an immutable, ordered set of model descriptors. It is built
// once at startup and safe for concurrent reads.
type Catalog struct {
	models []protocol.ModelDescriptor
	index  map[string]int
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog()
}

// NewCatalog builds a catalog from the built-in models plus extra entries.
// An extra entry with an existing id replaces the built-in one in place.
func NewCatalog(extra ...protocol.ModelDescriptor) *Catalog {
	c := &Catalog{index: make(map[string]int)}
	for _, m := range defaultModels {
		c.put(m)
	}
	for _, m := range extra {
		c.put(m)
	}
	return c
}

func (c *Catalog) put(m protocol.ModelDescriptor) {
	m.Capabilities = append([]string(nil), m.Capabilities...)
	if m.Name == "" {
		m.Name = m.ID
	}
	if i, ok := c.index[m.ID]; ok {
		c.models[i] = m
		return
	}
	c.index[m.ID] = len(c.models)
	c.models = append(c.models, m)
}

// Get returns the descriptor for id.
func (c *Catalog) Get(id string) (protocol.ModelDescriptor, bool) {
	i, ok := c.index[id]
	if !ok {
		return protocol.ModelDescriptor{}, false
	}
	m := c.models[i]
	m.Capabilities = append([]string(nil), m.Capabilities...)
	return m, true
}

// Has reports whether id is registered.
func (c *Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// List returns a copy of all descriptors in catalog order.
func (c *Catalog) List() []protocol.ModelDescriptor {
	out := make([]protocol.ModelDescriptor, len(c.models))
	for i, m := range c.models {
		m.Capabilities = append([]string(nil), m.Capabilities...)
		out[i] = m
	}
	return out
}

// IDs returns the model ids in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.models))
	for i, m := range c.models {
		ids[i] = m.ID
	}
	return ids
}

// WithCapability returns the first model that lists capability.
func (c *Catalog) WithCapability(capability string) (protocol.ModelDescriptor, bool) {
	for _, m := range c.models {
		if m.HasCapability(capability) {
			return m, true
		}
	}
	return protocol.ModelDescriptor{}, false
}
