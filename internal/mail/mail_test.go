package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/assistant/internal/config"
	"github.com/soyeahso/assistant/internal/logging"
)

func TestMessageValidate(t *testing.T) {
	ok := Message{To: []string{"jody@home.test"}, Subject: "Dinner", Body: "7pm?"}
	assert.NoError(t, ok.Validate())

	for name, m := range map[string]Message{
		"no recipients":     {Subject: "s"},
		"blank recipient":   {To: []string{" "}},
		"header injection":  {To: []string{"a@b.test\r\nBcc: evil@x.test"}},
		"multiline subject": {To: []string{"a@b.test"}, Subject: "one\ntwo"},
	} {
		assert.Error(t, m.Validate(), name)
	}
}

func TestLogSenderLogs(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(logging.New(&buf, "info"))

	err := s.Send(context.Background(), Message{To: []string{"a@home.test", "b@home.test"}, Subject: "Hi", Body: "body"})
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "mocking email send", entry["message"])
	assert.Equal(t, "mail", entry["subsystem"])
	assert.Equal(t, []any{"a@home.test", "b@home.test"}, entry["to"])
	assert.Equal(t, "Hi", entry["subject"])
}

func TestLogSenderRejectsInvalid(t *testing.T) {
	s := NewLogSender(logging.Nop())
	assert.Error(t, s.Send(context.Background(), Message{}))
}

func TestNewSender(t *testing.T) {
	ctx := context.Background()

	s, err := NewSender(ctx, config.MailConfig{}, "", logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	s, err = NewSender(ctx, config.MailConfig{Provider: "log"}, "", logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	_, err = NewSender(ctx, config.MailConfig{Provider: "pigeon"}, "", logging.Nop())
	assert.ErrorContains(t, err, "unknown provider")

	_, err = NewSender(ctx, config.MailConfig{Provider: "gmail", CredentialsFile: "/nonexistent.json"}, "", logging.Nop())
	assert.ErrorContains(t, err, "read gmail credentials")
}
