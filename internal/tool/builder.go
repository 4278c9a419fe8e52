package tool

// Builder assembles a Tool declaratively.
//
//	tool.Define("set_alarm", "Sets the alarm").
//		Required("time", tool.String, "Hour to ring at").
//		Returns("confirmation").
//		Handle(h)
type Builder struct {
	d Descriptor
}

// Define starts a tool definition.
func Define(name, description string) *Builder {
	return &Builder{d: Descriptor{Name: name, Description: description}}
}

// Param appends a fully specified parameter.
func (b *Builder) Param(p Parameter) *Builder {
	b.d.Parameters = append(b.d.Parameters, p)
	return b
}

// Required appends a required parameter.
func (b *Builder) Required(name string, typ ParamType, description string) *Builder {
	return b.Param(Parameter{Name: name, Type: typ, Required: true, Description: description})
}

// Optional appends an optional parameter.
func (b *Builder) Optional(name string, typ ParamType, description string) *Builder {
	return b.Param(Parameter{Name: name, Type: typ, Description: description})
}

// Returns documents the result.
func (b *Builder) Returns(description string) *Builder {
	b.d.Returns = description
	return b
}

// Handle completes the definition.
func (b *Builder) Handle(h Handler) Tool {
	params := make([]Parameter, len(b.d.Parameters))
	copy(params, b.d.Parameters)
	d := b.d
	d.Parameters = params
	return Tool{Descriptor: d, Handler: h}
}
