package tool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDescriptor() Descriptor {
	return Descriptor{
		Name: "t",
		Parameters: []Parameter{
			{Name: "s", Type: String, Required: true},
			{Name: "blank", Type: String, Required: false},
			{Name: "n", Type: Integer},
			{Name: "f", Type: Number},
			{Name: "b", Type: Boolean},
		},
	}
}

func TestParseArguments(t *testing.T) {
	args, err := ParseArguments(testDescriptor(), `{"s":"hi","n":3,"f":1.5,"b":true}`)
	require.NoError(t, err)
	assert.Equal(t, "hi", args.String("s"))
	assert.Equal(t, int64(3), args.Int("n"))
	assert.Equal(t, 1.5, args.Float("f"))
	assert.True(t, args.Bool("b"))
	assert.False(t, args.Has("blank"))
}

func TestParseArgumentsIntegralFloat(t *testing.T) {
	args, err := ParseArguments(testDescriptor(), `{"s":"x","n":4.0}`)
	require.NoError(t, err)
	assert.Equal(t, int64(4), args.Int("n"))
	assert.Equal(t, float64(4), args.Float("n"))
}

func TestValidateIntegerBounds(t *testing.T) {
	args, err := Validate(testDescriptor(), map[string]any{"s": "x", "n": float64(-1 << 62)})
	require.NoError(t, err)
	assert.Equal(t, int64(-1<<62), args.Int("n"))

	_, err = Validate(testDescriptor(), map[string]any{"s": "x", "n": 1e30})
	var ie *InvalidArgumentsError
	require.ErrorAs(t, err, &ie)
	assert.Contains(t, ie.Detail, "out of range")
}

func TestParseArgumentsEmptyInput(t *testing.T) {
	d := Descriptor{Name: "time"}
	args, err := ParseArguments(d, "")
	require.NoError(t, err)
	assert.Empty(t, args)
}

func TestParseArgumentsFailures(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		detail string
	}{
		{"not json", `{"s":`, "not valid JSON"},
		{"not object", `["s"]`, "must be a JSON object"},
		{"null", `null`, "must be a JSON object"},
		{"missing required", `{}`, `missing required argument "s"`},
		{"null required", `{"s":null}`, `missing required argument "s"`},
		{"blank required", `{"s":"   "}`, `must not be empty`},
		{"wrong type", `{"s":5}`, `"s" must be of type string`},
		{"fractional integer", `{"s":"x","n":1.5}`, `"n" must be of type integer`},
		{"huge integer", `{"s":"x","n":1e30}`, `"n" is out of range for type integer`},
		{"huge negative integer", `{"s":"x","n":-1e19}`, `"n" is out of range for type integer`},
		{"integer just past int64", `{"s":"x","n":9223372036854775808}`, `"n" is out of range for type integer`},
		{"bool as string", `{"s":"x","b":"true"}`, `"b" must be of type boolean`},
		{"undeclared", `{"s":"x","zzz":1,"aaa":2}`, "unexpected argument(s): aaa, zzz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArguments(testDescriptor(), tt.input)
			var ie *InvalidArgumentsError
			require.True(t, errors.As(err, &ie), "got %v", err)
			assert.Equal(t, "t", ie.Tool)
			assert.Contains(t, ie.Detail, tt.detail)
		})
	}
}

func TestAllowEmptyPassesBlankString(t *testing.T) {
	d := Descriptor{Name: "send_email", Parameters: []Parameter{
		{Name: "recipientEmails", Type: String, Required: true, AllowEmpty: true},
	}}
	args, err := ParseArguments(d, `{"recipientEmails":""}`)
	require.NoError(t, err)
	assert.True(t, args.Has("recipientEmails"))
	assert.Equal(t, "", args.String("recipientEmails"))

	_, err = ParseArguments(d, `{}`)
	assert.Error(t, err, "AllowEmpty does not make the parameter optional")
}

func TestArgumentAccessorsOnMissing(t *testing.T) {
	var a Arguments
	assert.Equal(t, "", a.String("x"))
	assert.Equal(t, int64(0), a.Int("x"))
	assert.Equal(t, float64(0), a.Float("x"))
	assert.False(t, a.Bool("x"))
}
