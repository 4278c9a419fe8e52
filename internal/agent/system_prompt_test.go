package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildSystemPrompt(t *testing.T) {
	now := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

	got := BuildSystemPrompt(PromptConfig{Instructions: "Be nice.", Now: now})
	assert.Equal(t, "Be nice.\n\nCurrent date: 2024-03-09 (Saturday)", got)

	got = BuildSystemPrompt(PromptConfig{Instructions: "Be nice.", Now: now, UserName: "Sam", ExtraPrompt: "Reply in French."})
	assert.Equal(t, "Be nice.\n\nCurrent date: 2024-03-09 (Saturday)\nUser: Sam\n\nReply in French.", got)
}

func TestBuildSystemPrompt_Default(t *testing.T) {
	got := BuildSystemPrompt(PromptConfig{Instructions: "   "})
	assert.Contains(t, got, DefaultInstructions)
	assert.Contains(t, got, "Current date: ")
}
