package service

import "context"

// Message is one templated email request.
type Message struct {
	To      string
	Subject string
	// Bindings replace {{key}} placeholders in the template body verbatim.
	// Values are not escaped; callers pre-sanitize anything placed into HTML.
	Bindings map[string]string
	Cc       []string
	Bcc      []string
	// Template names a template in the configured template store.
	// Empty means "default".
	Template string
}

// Envelope is a fully rendered email ready for a transport.
type Envelope struct {
	From     string
	FromName string
	ReplyTo  string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	HTML     string
}

// Recipients returns every address the envelope is delivered to.
func (e *Envelope) Recipients() []string {
	all := make([]string, 0, len(e.To)+len(e.Cc)+len(e.Bcc))
	all = append(all, e.To...)
	all = append(all, e.Cc...)

	return append(all, e.Bcc...)
}

// Mailer renders a template and delivers the result.
type Mailer interface {
	// Send fails with a TemplateNotFoundError when the template cannot be
	// read and with a DeliveryError when the transport fails. It never retries.
	Send(ctx context.Context, msg Message) error
}

// MailTransport delivers rendered envelopes (SMTP, null, fakes in tests).
type MailTransport interface {
	Send(ctx context.Context, envelope *Envelope) error
	// String describes the transport without credentials, for logs.
	String() string
}
