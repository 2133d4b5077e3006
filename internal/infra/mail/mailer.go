// Package mail implements the Mailer domain service: templates are read
// from a gocloud blob bucket, rendered by literal placeholder substitution
// and dispatched over a synchronous bus to a gomail backed transport.
package mail

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	domainerrors "firecms/internal/domain/errors"
	"firecms/internal/domain/service"
	"firecms/internal/errors"
	"firecms/internal/infra/options"

	"github.com/go-playground/validator/v10"
	"gocloud.dev/blob"
)

const defaultTemplate = "default"

// Options are the resolved mailer options.
//
// Path names the template store. A URL is opened as a blob bucket. A file
// path is resolved against Root when Root is set, so the default
// "/templates/mailer/" means <root>/templates/mailer. Without Root a file
// path is used as is and must exist.
type Options struct {
	DSN      string        `option:"dsn"`
	From     string        `option:"from"`
	FromName string        `option:"from_name"`
	ReplyTo  string        `option:"reply_to"`
	Root     string        `option:"root"`
	Path     string        `option:"path"`
	Timeout  time.Duration `option:"timeout"`
}

// templateLocation returns where the template store lives.
func (o Options) templateLocation() string {
	if o.Root == "" || strings.Contains(o.Path, "://") {
		return o.Path
	}

	return filepath.Join(o.Root, filepath.FromSlash(o.Path))
}

func configureOptions(r *options.Resolver) {
	r.SetDefaults(map[string]any{
		"from":      "example@example.com",
		"from_name": "",
		"reply_to":  "example@example.com",
		"root":      "",
		"path":      "/templates/mailer/",
		"timeout":   10 * time.Second,
	})
	r.SetRequired("dsn")
	r.SetAllowedTypes("dsn", options.TypeString)
	r.SetAllowedTypes("from", options.TypeString)
	r.SetAllowedTypes("from_name", options.TypeString)
	r.SetAllowedTypes("reply_to", options.TypeString)
	r.SetAllowedTypes("root", options.TypeString)
	r.SetAllowedTypes("path", options.TypeString)
	r.SetAllowedTypes("timeout", options.TypeDuration)
}

// Mailer sends templated HTML mail.
type Mailer struct {
	opts      Options
	transport service.MailTransport
	templates *blob.Bucket
	bus       *Bus
	validate  *validator.Validate
	logger    *slog.Logger
}

var _ service.Mailer = (*Mailer)(nil)

// NewMailer resolves opts and builds the transport named by the dsn option.
func NewMailer(ctx context.Context, logger *slog.Logger, opts map[string]any) (*Mailer, error) {
	return newMailer(ctx, logger, opts, nil)
}

// NewMailerWithTransport is NewMailer with an explicit transport. The dsn
// option is still required and validated but not used for delivery.
func NewMailerWithTransport(ctx context.Context, logger *slog.Logger, opts map[string]any, transport service.MailTransport) (*Mailer, error) {
	return newMailer(ctx, logger, opts, transport)
}

func newMailer(ctx context.Context, logger *slog.Logger, opts map[string]any, transport service.MailTransport) (*Mailer, error) {
	resolver := options.NewResolver()
	configureOptions(resolver)

	var resolved Options
	if err := resolver.ResolveInto(opts, &resolved); err != nil {
		return nil, err
	}

	dsnTransport, err := NewTransport(resolved.DSN)
	if err != nil {
		return nil, err
	}
	if transport == nil {
		transport = dsnTransport
	}

	validate := validator.New()
	for key, addr := range map[string]string{"from": resolved.From, "reply_to": resolved.ReplyTo} {
		if err := validate.Var(addr, "required,email"); err != nil {
			return nil, domainerrors.NewConfigurationError(errors.Wrapf(err, "option %q", key), "mailer."+key)
		}
	}

	location := resolved.templateLocation()
	templates, err := openTemplateBucket(ctx, location)
	if err != nil {
		return nil, err
	}

	m := &Mailer{
		opts:      resolved,
		transport: transport,
		templates: templates,
		validate:  validate,
		logger:    logger,
	}
	m.bus = NewBus(m.deliver, LoggingMiddleware(logger.With(slog.String("transport", transport.String()))))

	logger.Info("Mailer initialized",
		slog.String("transport", transport.String()),
		slog.String("templates", location))

	return m, nil
}

// Send renders msg.Template with msg.Bindings and delivers it.
func (m *Mailer) Send(ctx context.Context, msg service.Message) error {
	if err := m.validateRecipients(msg); err != nil {
		return err
	}

	name := msg.Template
	if name == "" {
		name = defaultTemplate
	}

	body, err := loadTemplate(ctx, m.templates, name)
	if err != nil {
		return err
	}

	envelope := &service.Envelope{
		From:     m.opts.From,
		FromName: m.opts.FromName,
		ReplyTo:  m.opts.ReplyTo,
		To:       []string{msg.To},
		Cc:       msg.Cc,
		Bcc:      msg.Bcc,
		Subject:  msg.Subject,
		HTML:     render(body, msg.Bindings),
	}

	if m.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.Timeout)
		defer cancel()
	}

	return m.bus.Dispatch(ctx, envelope)
}

// Close releases the template store.
func (m *Mailer) Close() error {
	return errors.WithStack(m.templates.Close())
}

func (m *Mailer) deliver(ctx context.Context, envelope *service.Envelope) error {
	if err := m.transport.Send(ctx, envelope); err != nil {
		return domainerrors.NewDeliveryError(err, m.transport.String())
	}

	return nil
}

func (m *Mailer) validateRecipients(msg service.Message) error {
	if err := m.validate.Var(msg.To, "required,email"); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("invalid recipient " + msg.To)
	}
	for _, addr := range append(append([]string(nil), msg.Cc...), msg.Bcc...) {
		if err := m.validate.Var(addr, "email"); err != nil {
			return domainerrors.ErrValidationFailed.WithDetails("invalid recipient " + addr)
		}
	}

	return nil
}
