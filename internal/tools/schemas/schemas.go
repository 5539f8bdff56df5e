// Package schemas provides parameter definitions for the built-in tools.
package schemas

import (
	"sort"

	"github.com/deskai/deskai/pkg/protocol"
)

// Param is one named tool parameter.
type Param struct {
	Name string
	protocol.Parameter
}

// Schema defines a tool's parameters. Primary names the parameter that a
// free-form query text fills when no explicit parameters are given.
type Schema struct {
	Name        string
	Description string
	Params      []Param
	Primary     string
}

// Descriptor converts the schema to its wire form.
func (s *Schema) Descriptor() protocol.ToolDescriptor {
	d := protocol.ToolDescriptor{Name: s.Name, Description: s.Description}
	if len(s.Params) > 0 {
		d.Parameters = make(map[string]protocol.Parameter, len(s.Params))
		for _, p := range s.Params {
			d.Parameters[p.Name] = p.Parameter
		}
	}
	return d
}

// Missing returns the required parameters absent from params, in
// declaration order.
func (s *Schema) Missing(params map[string]string) []string {
	var missing []string
	for _, p := range s.Params {
		if p.Required && params[p.Name] == "" {
			missing = append(missing, p.Name)
		}
	}
	return missing
}

// SchemaBuilder provides a fluent interface for building tool schemas.
type SchemaBuilder struct {
	schema *Schema
}

// NewSchema creates a new schema builder with the given name and description.
func NewSchema(name, description string) *SchemaBuilder {
	return &SchemaBuilder{
		schema: &Schema{
			Name:        name,
			Description: description,
		},
	}
}

// AddParam adds a parameter to the schema.
func (b *SchemaBuilder) AddParam(name, paramType, description string, required bool) *SchemaBuilder {
	b.schema.Params = append(b.schema.Params, Param{
		Name: name,
		Parameter: protocol.Parameter{
			Type:        paramType,
			Description: description,
			Required:    required,
		},
	})
	return b
}

// Primary marks the parameter filled from query text.
func (b *SchemaBuilder) Primary(name string) *SchemaBuilder {
	b.schema.Primary = name
	return b
}

// Build returns the constructed schema.
func (b *SchemaBuilder) Build() *Schema {
	return b.schema
}

// Registry holds all tool schemas.
type Registry struct {
	schemas map[string]*Schema
}

// NewRegistry creates a new empty schema registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*Schema)}
}

// Register adds a schema to the registry.
func (r *Registry) Register(schema *Schema) {
	r.schemas[schema.Name] = schema
}

// Get retrieves a schema by name.
func (r *Registry) Get(name string) (*Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// List returns all registered schema names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns the wire descriptors sorted by name.
func (r *Registry) Descriptors() []protocol.ToolDescriptor {
	out := make([]protocol.ToolDescriptor, 0, len(r.schemas))
	for _, name := range r.List() {
		out = append(out, r.schemas[name].Descriptor())
	}
	return out
}
