package mail

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/soyeahso/assistant/internal/logging"
)

// GmailOptions configures a GmailSender.
type GmailOptions struct {
	CredentialsFile string // OAuth client secrets downloaded from Google Cloud
	TokenFile       string // cached user token written by AuthorizeGmail
	From            string
}

// GmailSender sends mail through the Gmail API as the authorized user.
type GmailSender struct {
	svc  *gmail.Service
	from string
	log  *logging.Logger
}

// NewGmailSender creates a sender from stored OAuth credentials and token.
func NewGmailSender(ctx context.Context, opts GmailOptions, log *logging.Logger) (*GmailSender, error) {
	conf, err := gmailOAuthConfig(opts.CredentialsFile)
	if err != nil {
		return nil, err
	}
	token, err := tokenFromFile(opts.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("mail: no gmail token at %s, run 'assistant mail auth' first: %w", opts.TokenFile, err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("mail: create gmail service: %w", err)
	}
	return NewGmailSenderWithService(svc, opts.From, log), nil
}

// NewGmailSenderWithService wraps an existing Gmail service.
func NewGmailSenderWithService(svc *gmail.Service, from string, log *logging.Logger) *GmailSender {
	return &GmailSender{svc: svc, from: from, log: log.Sub("mail.gmail")}
}

// Send delivers msg.
func (s *GmailSender) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = s.from
	}
	raw, err := buildRawMessage(msg)
	if err != nil {
		return err
	}

	s.log.Info().Strs("to", msg.To).Str("subject", msg.Subject).Msg("sending email")
	sent, err := s.svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("mail: gmail send: %w", err)
	}
	s.log.Debug().Str("id", sent.Id).Msg("email sent")
	return nil
}

// buildRawMessage renders msg as base64url encoded RFC 822 text.
func buildRawMessage(msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	if msg.From != "" {
		fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	}
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(msg.Body, "\r\n", "\n"), "\n", "\r\n"))

	return base64.URLEncoding.EncodeToString([]byte(b.String())), nil
}

func gmailOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("mail: read gmail credentials: %w", err)
	}
	conf, err := google.ConfigFromJSON(b, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("mail: parse gmail credentials: %w", err)
	}
	return conf, nil
}

// AuthorizeGmail runs the interactive OAuth flow: it prints the consent URL
// to out, reads the authorization code from in and caches the token.
func AuthorizeGmail(ctx context.Context, opts GmailOptions, in io.Reader, out io.Writer) error {
	conf, err := gmailOAuthConfig(opts.CredentialsFile)
	if err != nil {
		return err
	}
	if _, err := tokenFromFile(opts.TokenFile); err == nil {
		fmt.Fprintf(out, "Already authorized. Delete %s to authorize again.\n", opts.TokenFile)
		return nil
	}

	authURL := conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Open this link in your browser, then paste the authorization code:\n%s\n", authURL)

	code, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && code == "" {
		return fmt.Errorf("mail: read authorization code: %w", err)
	}
	token, err := conf.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("mail: exchange authorization code: %w", err)
	}
	if err := saveToken(opts.TokenFile, token); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token saved to %s\n", opts.TokenFile)
	return nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("mail: cache oauth token: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("mail: cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
