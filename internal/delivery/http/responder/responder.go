// Package responder holds the HTTP helpers handlers share: ajax replies,
// file name validation, output escaping, redirects and security headers.
package responder

import (
	"html"
	"html/template"
	"log/slog"
	"net/http"
	"path"
	"regexp"
	"strings"

	domainerrors "firecms/internal/domain/errors"
	"firecms/internal/infra/csp"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// DefaultPoweredBy is the X-Powered-By value when none is configured.
const DefaultPoweredBy = `FireCMS\Core`

// Fixed security headers sent alongside the CSP header.
var secureHeaders = [][2]string{
	{"Expect-CT", "enforce,max-age=30"},
	{"Referrer-Policy", "same-origin"},
	{"Strict-Transport-Security", "max-age=30"},
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "SAMEORIGIN"},
	{"X-XSS-Protection", "1; mode=block"},
}

var fileNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Responder is the capability set handlers use to answer requests.
// Every method that writes a response is the last thing a handler does:
// return its error straight away.
type Responder interface {
	// SendAjaxCall writes {"data": data, "code": code} with status 200.
	SendAjaxCall(c echo.Context, data any, code int) error

	// ValidFileName returns the base name of name when it is safe, or an
	// ErrInvalidFileName validation error.
	ValidFileName(name string) (string, error)

	// EscapeOutput makes text safe to embed in HTML.
	EscapeOutput(text string) string

	// Redirect sends a redirect (302 when code is 0). When the response is
	// already committed it falls back to a client-side script redirect.
	Redirect(c echo.Context, url string, code int) error

	// SetXPoweredBy sets the X-Powered-By header.
	SetXPoweredBy(c echo.Context)

	// SendSecureHeaders sets the CSP header, read from the policy file on
	// every call, and the fixed security headers.
	SendSecureHeaders(c echo.Context) error
}

// Config configures the responder.
type Config struct {
	PoweredBy  string
	PolicyPath string
}

// AjaxResponse is the body written by SendAjaxCall.
type AjaxResponse struct {
	Data any `json:"data"`
	Code int `json:"code"`
}

type httpResponder struct {
	poweredBy  string
	policyPath string
	logger     *slog.Logger
}

// New creates a Responder.
func New(cfg Config, logger *slog.Logger) Responder {
	poweredBy := cfg.PoweredBy
	if poweredBy == "" {
		poweredBy = DefaultPoweredBy
	}

	return &httpResponder{
		poweredBy:  poweredBy,
		policyPath: cfg.PolicyPath,
		logger:     logger,
	}
}

func (r *httpResponder) SendAjaxCall(c echo.Context, data any, code int) error {
	return c.JSON(http.StatusOK, AjaxResponse{Data: data, Code: code})
}

func (r *httpResponder) ValidFileName(name string) (string, error) {
	return ValidFileName(name)
}

func (r *httpResponder) EscapeOutput(text string) string {
	return EscapeOutput(text)
}

func (r *httpResponder) Redirect(c echo.Context, url string, code int) error {
	if code == 0 {
		code = http.StatusFound
	}

	if !c.Response().Committed {
		return errors.WithStack(c.Redirect(code, url))
	}

	r.logger.Warn("Headers already sent, falling back to script redirect",
		slog.String("location", url))
	_, err := c.Response().Write([]byte("<script>location.href='" + template.JSEscapeString(url) + "';</script>"))

	return errors.WithStack(err)
}

func (r *httpResponder) SetXPoweredBy(c echo.Context) {
	c.Response().Header().Set("X-Powered-By", r.poweredBy)
}

func (r *httpResponder) SendSecureHeaders(c echo.Context) error {
	if r.policyPath == "" {
		return domainerrors.NewConfigurationError(nil, "no CSP policy file configured")
	}

	policy, err := csp.Load(r.policyPath)
	if err != nil {
		return err
	}

	header := c.Response().Header()
	name, value := policy.Header()
	header.Set(name, value)
	for _, h := range secureHeaders {
		header.Set(h[0], h[1])
	}

	return nil
}

// ValidFileName strips the directory part of name and accepts the rest when
// it only holds letters, digits, '_', '-' and single dots. Any "." or ".."
// path segment rejects the whole name.
func ValidFileName(name string) (string, error) {
	normalized := strings.ReplaceAll(name, `\`, "/")
	for _, segment := range strings.Split(normalized, "/") {
		if segment == "." || segment == ".." {
			return "", domainerrors.ErrInvalidFileName.WithDetails("path traversal in " + name)
		}
	}

	base := path.Base(normalized)
	if base == "." || base == "/" || !fileNamePattern.MatchString(base) || strings.Contains(base, "..") {
		return "", domainerrors.ErrInvalidFileName.WithDetails(name)
	}

	return base, nil
}

// EscapeOutput HTML-escapes <, >, &, ' and ".
func EscapeOutput(text string) string {
	return html.EscapeString(text)
}
