package mail

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	domainerrors "firecms/internal/domain/errors"
	"firecms/internal/domain/service"
	"firecms/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTransport struct {
	mu        sync.Mutex
	envelopes []*service.Envelope
	err       error
}

func (t *recordingTransport) Send(_ context.Context, envelope *service.Envelope) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.envelopes = append(t.envelopes, envelope)

	return t.err
}

func (t *recordingTransport) String() string { return "recording://" }

func (t *recordingTransport) last() *service.Envelope {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.envelopes) == 0 {
		return nil
	}

	return t.envelopes[len(t.envelopes)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTemplates(t *testing.T, templates map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range templates {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}

	return dir
}

func newTestMailer(t *testing.T, transport service.MailTransport, opts map[string]any) *Mailer {
	t.Helper()
	m, err := NewMailerWithTransport(context.Background(), discardLogger(), opts, transport)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	return m
}

func TestMailer_Send(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"default": "<p>Hello {{name}}</p><p>{{footer}}</p>",
	})
	transport := &recordingTransport{}
	m := newTestMailer(t, transport, map[string]any{
		"dsn":       "null://null",
		"from":      "cms@example.org",
		"from_name": "FireCMS",
		"reply_to":  "support@example.org",
		"path":      dir,
	})

	err := m.Send(context.Background(), service.Message{
		To:       "ada@example.org",
		Subject:  "Welcome",
		Bindings: map[string]string{"name": "Ada"},
		Cc:       []string{"cc@example.org"},
		Bcc:      []string{"audit@example.org"},
	})
	require.NoError(t, err)

	envelope := transport.last()
	require.NotNil(t, envelope)
	assert.Equal(t, "cms@example.org", envelope.From)
	assert.Equal(t, "FireCMS", envelope.FromName)
	assert.Equal(t, "support@example.org", envelope.ReplyTo)
	assert.Equal(t, []string{"ada@example.org"}, envelope.To)
	assert.Equal(t, []string{"cc@example.org"}, envelope.Cc)
	assert.Equal(t, []string{"audit@example.org"}, envelope.Bcc)
	assert.Equal(t, "Welcome", envelope.Subject)
	assert.Contains(t, envelope.HTML, "Hello Ada")
	assert.Contains(t, envelope.HTML, "{{footer}}")
}

func TestMailer_DefaultsFromOptions(t *testing.T) {
	dir := writeTemplates(t, map[string]string{"welcome": "hi"})
	transport := &recordingTransport{}
	m := newTestMailer(t, transport, map[string]any{"dsn": "null://null", "path": dir})

	err := m.Send(context.Background(), service.Message{To: "ada@example.org", Subject: "s", Template: "welcome"})
	require.NoError(t, err)

	envelope := transport.last()
	assert.Equal(t, "example@example.com", envelope.From)
	assert.Equal(t, "example@example.com", envelope.ReplyTo)
}

func TestMailer_TemplateNotFound(t *testing.T) {
	transport := &recordingTransport{}
	m := newTestMailer(t, transport, map[string]any{"dsn": "null://null", "path": t.TempDir()})

	err := m.Send(context.Background(), service.Message{To: "ada@example.org", Template: "missing"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrTemplateNotFound))
	assert.Nil(t, transport.last(), "nothing is dispatched without a template")
}

func TestMailer_DeliveryError(t *testing.T) {
	dir := writeTemplates(t, map[string]string{"default": "body"})
	transport := &recordingTransport{err: errors.New("connection refused")}
	m := newTestMailer(t, transport, map[string]any{"dsn": "null://null", "path": dir})

	err := m.Send(context.Background(), service.Message{To: "ada@example.org"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrDelivery))
	assert.Contains(t, err.Error(), "connection refused")

	var deliveryErr *domainerrors.DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Equal(t, "recording://", deliveryErr.Details())

	assert.Len(t, transport.envelopes, 1, "no retry")
}

func TestMailer_InvalidRecipients(t *testing.T) {
	dir := writeTemplates(t, map[string]string{"default": "body"})
	transport := &recordingTransport{}
	m := newTestMailer(t, transport, map[string]any{"dsn": "null://null", "path": dir})

	for _, msg := range []service.Message{
		{To: ""},
		{To: "not-an-address"},
		{To: "ada@example.org", Cc: []string{"bad"}},
		{To: "ada@example.org", Bcc: []string{"bad"}},
	} {
		err := m.Send(context.Background(), msg)
		assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed), "%+v", msg)
	}
	assert.Nil(t, transport.last())
}

func TestNewMailer_ConfigurationErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		opts map[string]any
	}{
		{name: "missing dsn", opts: map[string]any{"path": dir}},
		{name: "dsn wrong type", opts: map[string]any{"dsn": 25, "path": dir}},
		{name: "unknown option", opts: map[string]any{"dsn": "null://null", "form": "x@example.org", "path": dir}},
		{name: "bad dsn", opts: map[string]any{"dsn": "carrier-pigeon://coop", "path": dir}},
		{name: "bad sender", opts: map[string]any{"dsn": "null://null", "from": "nobody", "path": dir}},
		{name: "missing template directory", opts: map[string]any{"dsn": "null://null", "path": filepath.Join(dir, "nope")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMailer(context.Background(), discardLogger(), tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domainerrors.ErrConfiguration))
		})
	}
}

func TestNewMailer_DefaultPathUnderRoot(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "templates", "mailer")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default"), []byte("Hello {{name}}"), 0o600))

	m, err := NewMailer(context.Background(), discardLogger(), map[string]any{"dsn": "null://null", "root": root})
	require.NoError(t, err)
	defer m.Close()

	assert.NoError(t, m.Send(context.Background(), service.Message{To: "ada@example.org"}))
}

func TestOptions_TemplateLocation(t *testing.T) {
	tests := []struct {
		opts Options
		want string
	}{
		{opts: Options{Path: "/templates/mailer/"}, want: "/templates/mailer/"},
		{opts: Options{Root: "/srv/cms", Path: "/templates/mailer/"}, want: filepath.Join("/srv/cms", "templates", "mailer")},
		{opts: Options{Root: "/srv/cms", Path: "mail"}, want: filepath.Join("/srv/cms", "mail")},
		{opts: Options{Root: "/srv/cms", Path: "mem://"}, want: "mem://"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.opts.templateLocation(), "%+v", tt.opts)
	}
}

func TestNewMailer_NullTransport(t *testing.T) {
	dir := writeTemplates(t, map[string]string{"default": "body"})
	m, err := NewMailer(context.Background(), discardLogger(), map[string]any{"dsn": "null://null", "path": dir})
	require.NoError(t, err)
	defer m.Close()

	assert.NoError(t, m.Send(context.Background(), service.Message{To: "ada@example.org"}))
}

func TestMailer_TemplateBucketURL(t *testing.T) {
	dir := writeTemplates(t, map[string]string{"default": "Hello {{name}}"})
	transport := &recordingTransport{}
	m := newTestMailer(t, transport, map[string]any{"dsn": "null://null", "path": "file://" + filepath.ToSlash(dir)})

	err := m.Send(context.Background(), service.Message{To: "ada@example.org", Bindings: map[string]string{"name": "Ada"}})
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada", transport.last().HTML)
}
