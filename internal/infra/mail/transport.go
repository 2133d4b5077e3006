package mail

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"firecms/internal/domain/service"
	"firecms/internal/errors"

	"gopkg.in/gomail.v2"
)

// sendTimeout bounds one SMTP exchange when the caller sets no deadline.
const sendTimeout = 30 * time.Second

// NewTransport resolves a transport from a DSN string.
func NewTransport(raw string) (service.MailTransport, error) {
	dsn, err := ParseDSN(raw)
	if err != nil {
		return nil, err
	}

	if dsn.Scheme == SchemeNull {
		return nullTransport{}, nil
	}

	return newSMTPTransport(dsn), nil
}

type smtpTransport struct {
	dialer *gomail.Dialer
	scheme string
}

func newSMTPTransport(dsn DSN) *smtpTransport {
	d := gomail.NewDialer(dsn.Host, dsn.Port, dsn.User, dsn.Password)
	d.SSL = dsn.Scheme == SchemeSMTPS
	if local := dsn.Option("local_domain", ""); local != "" {
		d.LocalName = local
	}
	if dsn.Option("verify_peer", "1") == "0" {
		d.TLSConfig = &tls.Config{ServerName: dsn.Host, InsecureSkipVerify: true} //nolint:gosec // opt-in via dsn
	}

	return &smtpTransport{dialer: d, scheme: dsn.Scheme}
}

// Send dials, delivers and hangs up. The connection is bound to ctx: when
// ctx ends the conversation is interrupted and the connection closed.
// Without a ctx deadline the whole exchange is capped at sendTimeout.
func (t *smtpTransport) Send(ctx context.Context, envelope *service.Envelope) error {
	if err := t.deliver(ctx, toGomailMessage(envelope)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrapf(ctxErr, "send via %s", t.String())
		}

		return errors.Wrapf(err, "send via %s", t.String())
	}

	return nil
}

func (t *smtpTransport) deliver(ctx context.Context, msg *gomail.Message) error {
	d := t.dialer

	var netDialer net.Dialer
	raw, err := netDialer.DialContext(ctx, "tcp", net.JoinHostPort(d.Host, strconv.Itoa(d.Port)))
	if err != nil {
		return errors.Wrap(err, "dial")
	}
	if err := raw.SetDeadline(time.Now().Add(sendTimeout)); err != nil {
		raw.Close()

		return errors.Wrap(err, "set deadline")
	}
	stop := context.AfterFunc(ctx, func() {
		_ = raw.SetDeadline(time.Now())
	})
	defer stop()

	conn := raw
	if d.SSL {
		conn = tls.Client(conn, t.tlsConfig())
	}

	client, err := smtp.NewClient(conn, d.Host)
	if err != nil {
		conn.Close()

		return errors.Wrap(err, "smtp greeting")
	}
	defer client.Close()

	if d.LocalName != "" {
		if err := client.Hello(d.LocalName); err != nil {
			return errors.Wrap(err, "hello")
		}
	}
	if !d.SSL {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(t.tlsConfig()); err != nil {
				return errors.Wrap(err, "starttls")
			}
		}
	}
	if d.Username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.PlainAuth("", d.Username, d.Password, d.Host)); err != nil {
				return errors.Wrap(err, "auth")
			}
		}
	}

	if err := gomail.Send(smtpSender{client: client}, msg); err != nil {
		return errors.WithStack(err)
	}

	return errors.Wrap(client.Quit(), "quit")
}

func (t *smtpTransport) tlsConfig() *tls.Config {
	if t.dialer.TLSConfig != nil {
		return t.dialer.TLSConfig
	}

	return &tls.Config{ServerName: t.dialer.Host, MinVersion: tls.VersionTLS12}
}

// smtpSender hands gomail messages to an open SMTP session.
type smtpSender struct {
	client *smtp.Client
}

func (s smtpSender) Send(from string, to []string, msg io.WriterTo) error {
	if err := s.client.Mail(from); err != nil {
		return errors.Wrap(err, "mail from")
	}
	for _, addr := range to {
		if err := s.client.Rcpt(addr); err != nil {
			return errors.Wrapf(err, "rcpt to %s", addr)
		}
	}

	w, err := s.client.Data()
	if err != nil {
		return errors.Wrap(err, "data")
	}
	if _, err := msg.WriteTo(w); err != nil {
		w.Close()

		return errors.Wrap(err, "write message")
	}

	return errors.Wrap(w.Close(), "end data")
}

func (t *smtpTransport) String() string {
	return t.scheme + "://" + net.JoinHostPort(t.dialer.Host, strconv.Itoa(t.dialer.Port))
}

func toGomailMessage(envelope *service.Envelope) *gomail.Message {
	msg := gomail.NewMessage()
	if envelope.FromName != "" {
		msg.SetAddressHeader("From", envelope.From, envelope.FromName)
	} else {
		msg.SetHeader("From", envelope.From)
	}
	msg.SetHeader("To", envelope.To...)
	if len(envelope.Cc) > 0 {
		msg.SetHeader("Cc", envelope.Cc...)
	}
	if len(envelope.Bcc) > 0 {
		msg.SetHeader("Bcc", envelope.Bcc...)
	}
	if envelope.ReplyTo != "" {
		msg.SetHeader("Reply-To", envelope.ReplyTo)
	}
	msg.SetHeader("Subject", envelope.Subject)
	msg.SetBody("text/html", envelope.HTML)

	return msg
}

// nullTransport accepts and discards every message.
type nullTransport struct{}

func (nullTransport) Send(ctx context.Context, _ *service.Envelope) error {
	return errors.WithStack(ctx.Err())
}

func (nullTransport) String() string {
	return "null://"
}
