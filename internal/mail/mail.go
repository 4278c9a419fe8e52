// Package mail delivers outgoing email on behalf of the assistant.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/soyeahso/assistant/internal/config"
	"github.com/soyeahso/assistant/internal/logging"
)

// Message is an outgoing plain-text email.
type Message struct {
	From    string   `json:"from,omitempty"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Validate checks the fields every sender needs.
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return errors.New("mail: no recipients")
	}
	for _, to := range m.To {
		if strings.TrimSpace(to) == "" {
			return errors.New("mail: blank recipient")
		}
		if strings.ContainsAny(to, "\r\n") {
			return fmt.Errorf("mail: invalid recipient %q", to)
		}
	}
	if strings.ContainsAny(m.Subject, "\r\n") {
		return errors.New("mail: subject must be a single line")
	}
	return nil
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender logs messages instead of delivering them.
type LogSender struct {
	log *logging.Logger
}

// NewLogSender creates a sender that only logs.
func NewLogSender(log *logging.Logger) *LogSender {
	return &LogSender{log: log.Sub("mail")}
}

// Send logs the message.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	s.log.Info().
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Int("bodyLen", len(msg.Body)).
		Msg("mocking email send")
	return nil
}

// NewSender builds the sender selected by cfg. tokenFile is used when
// cfg.TokenFile is empty.
func NewSender(ctx context.Context, cfg config.MailConfig, tokenFile string, log *logging.Logger) (Sender, error) {
	switch cfg.Provider {
	case "", "log":
		return NewLogSender(log), nil
	case "gmail":
		if cfg.TokenFile != "" {
			tokenFile = cfg.TokenFile
		}
		return NewGmailSender(ctx, GmailOptions{
			CredentialsFile: cfg.CredentialsFile,
			TokenFile:       tokenFile,
			From:            cfg.From,
		}, log)
	default:
		return nil, fmt.Errorf("mail: unknown provider %q", cfg.Provider)
	}
}
