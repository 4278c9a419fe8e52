package tool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Arguments is a validated argument bag. Values are string, int64,
// float64 or bool according to the declared parameter type.
type Arguments map[string]any

// Has reports whether name was supplied.
func (a Arguments) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// String returns the string argument or "".
func (a Arguments) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Int returns the integer argument or 0.
func (a Arguments) Int(name string) int64 {
	n, _ := a[name].(int64)
	return n
}

// Float returns the number argument or 0. Integer arguments are converted.
func (a Arguments) Float(name string) float64 {
	switch v := a[name].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

// Bool returns the boolean argument or false.
func (a Arguments) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// ParseArguments decodes raw JSON input and checks it against d. An empty
// input is treated as an empty object.
func ParseArguments(d Descriptor, input string) (Arguments, error) {
	raw := map[string]any{}
	if strings.TrimSpace(input) != "" {
		dec := json.NewDecoder(bytes.NewReader([]byte(input)))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, invalid(d, "input is not valid JSON: %v", err)
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, invalid(d, "input must be a JSON object")
		}
		raw = obj
	}
	return Validate(d, raw)
}

// Validate checks a decoded argument map against d and converts values to
// their declared Go types.
func Validate(d Descriptor, raw map[string]any) (Arguments, error) {
	var extra []string
	for name := range raw {
		if _, ok := d.Param(name); !ok {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return nil, invalid(d, "unexpected argument(s): %s", strings.Join(extra, ", "))
	}

	args := make(Arguments, len(raw))
	for _, p := range d.Parameters {
		v, present := raw[p.Name]
		if !present || v == nil {
			if p.Required {
				return nil, invalid(d, "missing required argument %q", p.Name)
			}
			continue
		}
		conv, err := convert(p, v)
		if err != nil {
			return nil, invalid(d, "%v", err)
		}
		if p.Required && p.Type == String && !p.AllowEmpty && strings.TrimSpace(conv.(string)) == "" {
			return nil, invalid(d, "argument %q must not be empty", p.Name)
		}
		args[p.Name] = conv
	}
	return args, nil
}

func convert(p Parameter, v any) (any, error) {
	switch p.Type {
	case String:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case Boolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case Integer:
		switch n := v.(type) {
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return i, nil
			}
			if f, err := n.Float64(); err == nil && f == math.Trunc(f) {
				return wholeFloat(p, f)
			}
		case float64:
			if n == math.Trunc(n) {
				return wholeFloat(p, n)
			}
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		}
	case Number:
		switch n := v.(type) {
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, nil
			}
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	default:
		return nil, fmt.Errorf("argument %q has unsupported type %q", p.Name, p.Type)
	}
	return nil, fmt.Errorf("argument %q must be of type %s", p.Name, p.Type)
}

// wholeFloat converts an integral float, rejecting values int64 cannot hold.
func wholeFloat(p Parameter, f float64) (any, error) {
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, fmt.Errorf("argument %q is out of range for type %s", p.Name, p.Type)
	}
	return int64(f), nil
}

func invalid(d Descriptor, format string, args ...any) error {
	return &InvalidArgumentsError{Tool: d.Name, Detail: fmt.Sprintf(format, args...)}
}
