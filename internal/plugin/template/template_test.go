package template

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soyeahso/assistant/internal/logging"
	"github.com/soyeahso/assistant/internal/tool"
)

func TestTools(t *testing.T) {
	reg := tool.NewRegistry()
	reg.MustRegister(New().Tools()...)
	eng := tool.NewEngine(reg, 0, logging.Nop())

	assert.Equal(t, []string{"do_something", "do_something_else"}, reg.Names())
	assert.Equal(t, "just a string", eng.Invoke(context.Background(), tool.CallRequest{ID: "1", Name: "do_something"}).Content)
	assert.Equal(t, "another string", eng.Invoke(context.Background(), tool.CallRequest{ID: "2", Name: "do_something_else"}).Content)
}
