package tool

import "context"

// ParamType is the JSON type of a tool parameter.
type ParamType string

const (
	String  ParamType = "string"
	Integer ParamType = "integer"
	Number  ParamType = "number"
	Boolean ParamType = "boolean"
)

// Parameter declares one named argument of a tool.
type Parameter struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Required    bool      `json:"required"`
	Description string    `json:"description,omitempty"`

	// AllowEmpty lets a required string through when blank so the handler
	// can answer with its own message.
	AllowEmpty bool `json:"allowEmpty,omitempty"`
}

// Descriptor is the model-facing description of a tool.
type Descriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Returns     string      `json:"returns,omitempty"`
}

// Param returns the parameter with the given name.
func (d Descriptor) Param(name string) (Parameter, bool) {
	for _, p := range d.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// InputSchema is the JSON Schema object advertised for a tool's arguments.
type InputSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required"`
	AdditionalProperties bool                `json:"additionalProperties"`
}

// Property is a single entry of InputSchema.Properties.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Schema builds the JSON Schema for the descriptor's parameters.
func (d Descriptor) Schema() InputSchema {
	s := InputSchema{
		Type:       "object",
		Properties: make(map[string]Property, len(d.Parameters)),
		Required:   []string{},
	}
	for _, p := range d.Parameters {
		s.Properties[p.Name] = Property{Type: string(p.Type), Description: p.Description}
		if p.Required {
			s.Required = append(s.Required, p.Name)
		}
	}
	return s
}

// Handler runs a tool with validated arguments. A returned Rejection is a
// successful business answer; a returned error is a handler fault.
type Handler func(ctx context.Context, args Arguments) (any, error)

// Tool pairs a descriptor with the handler that implements it.
type Tool struct {
	Descriptor
	Handler Handler
}

// Rejection is a handler result explaining why a request was declined,
// e.g. a missing recipient. It is delivered to the model verbatim.
type Rejection string
