package agent

import (
	"fmt"
	"strings"
	"time"
)

// DefaultInstructions is the operating brief for a personal assistant.
const DefaultInstructions = `You are a friendly personal assistant helping with everyday tasks such as sending emails. You have a set of tools available to fulfil requests. Complete the required steps and ask for approval before taking any consequential action.

When the user has not given enough information to finish a task, ask follow-up questions until you have every detail you need. Be especially careful with emails:
1. Never make up email addresses.
2. If no address was given, ask for it. For example: "What is Jody's email address?"
3. Never send an email whose recipient, subject or body is incomplete or still contains placeholders.

Keep answers short, under 200 characters where possible, as the user may not have much time.`

// PromptConfig controls system prompt generation.
type PromptConfig struct {
	Instructions string // DefaultInstructions when empty
	Now          time.Time
	UserName     string
	ExtraPrompt  string
}

// BuildSystemPrompt constructs the system turn that seeds a session.
func BuildSystemPrompt(cfg PromptConfig) string {
	var b strings.Builder

	instructions := strings.TrimSpace(cfg.Instructions)
	if instructions == "" {
		instructions = DefaultInstructions
	}
	b.WriteString(instructions)
	b.WriteString("\n\n")

	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	fmt.Fprintf(&b, "Current date: %s (%s)\n", now.Format("2006-01-02"), now.Weekday())
	if cfg.UserName != "" {
		fmt.Fprintf(&b, "User: %s\n", cfg.UserName)
	}

	if cfg.ExtraPrompt != "" {
		b.WriteString("\n")
		b.WriteString(cfg.ExtraPrompt)
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
