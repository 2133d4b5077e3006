package handler

import (
	"log/slog"
	"net/http"

	"firecms/config"
	"firecms/internal/delivery/http/response"
	domainerrors "firecms/internal/domain/errors"
	"firecms/internal/domain/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const contactSubject = "New contact form message"

// ContactHandlerParams holds dependencies for ContactHandler, injected by Fx.
type ContactHandlerParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// ContactHandler forwards contact form submissions to the inbox
type ContactHandler struct {
	contact *config.ContactConfig
	logger  *slog.Logger
}

// NewContactHandler is the constructor for ContactHandler
func NewContactHandler(params ContactHandlerParams) *ContactHandler {
	return &ContactHandler{
		contact: params.Config.Contact,
		logger:  params.Logger,
	}
}

// ContactRequest represents the contact form body
type ContactRequest struct {
	Name    string `json:"name" form:"name" validate:"required,max=100"`
	Email   string `json:"email" form:"email" validate:"required,email"`
	Message string `json:"message" form:"message" validate:"required,max=5000"`
}

// Send mails the submission, with every value HTML-escaped, and answers
// with an ajax reply.
func (h *ContactHandler) Send(c echo.Context) error {
	var req ContactRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid contact form input")
	}

	if err := c.Validate(&req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	if h.contact == nil || h.contact.Inbox == "" {
		return domainerrors.NewConfigurationError(nil, "contact inbox is not configured")
	}

	a, err := app(c)
	if err != nil {
		return err
	}

	msg := service.Message{
		To:       h.contact.Inbox,
		Subject:  contactSubject,
		Template: h.contact.Template,
		Bindings: map[string]string{
			"name":    a.Responder.EscapeOutput(req.Name),
			"email":   a.Responder.EscapeOutput(req.Email),
			"message": a.Responder.EscapeOutput(req.Message),
		},
	}

	if err := a.Mailer.Send(c.Request().Context(), msg); err != nil {
		h.logger.Warn("Contact message not delivered", slog.Any("error", err))

		return err
	}

	return a.Responder.SendAjaxCall(c, map[string]bool{"sent": true}, http.StatusOK)
}
