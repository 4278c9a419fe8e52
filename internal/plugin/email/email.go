// Package email exposes the send_email tool.
package email

import (
	"context"
	"strings"

	"github.com/soyeahso/assistant/internal/logging"
	"github.com/soyeahso/assistant/internal/mail"
	"github.com/soyeahso/assistant/internal/plugin"
	"github.com/soyeahso/assistant/internal/tool"
)

// Answers returned to the model instead of sending.
const (
	MsgNoRecipient = "No recipient email provided. Please specify the recipient's email address."
	MsgPlaceholder = "The email address appears to be a placeholder (e.g., 'example.com'). Please provide a valid email."
	MsgEmptyFields = "The email subject or body is empty. Please provide a subject and body for the email."
)

// PlaceholderDomains are reserved documentation domains a model tends to invent.
var PlaceholderDomains = []string{"@example.com", "@example.org", "@example.net"}

const description = "Sends an email to the given recipients. Never guess or invent an address: " +
	"if one was not stated explicitly, ask the user for it first (for example: 'What is the email address for Jody?'). " +
	"The email really is sent, so the subject and body must not contain placeholders such as '[Your name]'. " +
	"If an address looks incomplete or invalid, ask for clarification before calling."

// Plugin sends mail through a mail.Sender.
type Plugin struct {
	sender mail.Sender
	from   string
	log    *logging.Logger
}

// New creates the email plugin. from may be empty.
func New(sender mail.Sender, from string) *Plugin {
	return &Plugin{sender: sender, from: from, log: logging.Nop()}
}

func (p *Plugin) ID() string          { return "email" }
func (p *Plugin) Name() string        { return "Email" }
func (p *Plugin) Description() string { return "Sends email on the user's behalf" }

func (p *Plugin) Init(_ context.Context, api plugin.API) error {
	if api.Log != nil {
		p.log = api.Log
	}
	return nil
}

func (p *Plugin) Close() error { return nil }

func (p *Plugin) Tools() []tool.Tool {
	return []tool.Tool{
		tool.Define("send_email", description).
			Param(tool.Parameter{
				Name: "recipientEmails", Type: tool.String, Required: true, AllowEmpty: true,
				Description: "Semicolon separated list of recipient email addresses (required)",
			}).
			Param(tool.Parameter{
				Name: "subject", Type: tool.String, Required: true, AllowEmpty: true,
				Description: "Subject line of the email (required)",
			}).
			Param(tool.Parameter{
				Name: "body", Type: tool.String, Required: true, AllowEmpty: true,
				Description: "Plain text body of the email (required)",
			}).
			Returns("The status of the email sent").
			Handle(p.send),
	}
}

func (p *Plugin) send(ctx context.Context, args tool.Arguments) (any, error) {
	recipients, answer := parseRecipients(args.String("recipientEmails"))
	if answer != "" {
		return tool.Rejection(answer), nil
	}
	subject, body := args.String("subject"), args.String("body")
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(body) == "" {
		return tool.Rejection(MsgEmptyFields), nil
	}

	msg := mail.Message{From: p.from, To: recipients, Subject: subject, Body: body}
	if err := p.sender.Send(ctx, msg); err != nil {
		return nil, err
	}
	p.log.Info().Strs("to", recipients).Msg("email sent")
	return map[string]string{"status": "success"}, nil
}

// parseRecipients splits a ';' separated list. A non-empty answer means the
// list was rejected.
func parseRecipients(list string) ([]string, string) {
	parts := strings.Split(list, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		addr := strings.TrimSpace(part)
		if addr == "" {
			return nil, MsgNoRecipient
		}
		out = append(out, addr)
	}
	for _, addr := range out {
		if isPlaceholder(addr) {
			return nil, MsgPlaceholder
		}
	}
	return out, ""
}

func isPlaceholder(addr string) bool {
	lower := strings.ToLower(addr)
	for _, domain := range PlaceholderDomains {
		if strings.HasSuffix(lower, domain) {
			return true
		}
	}
	return false
}
