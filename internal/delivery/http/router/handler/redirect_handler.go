package handler

import (
	"net/url"
	"strings"

	domainerrors "firecms/internal/domain/errors"

	"github.com/labstack/echo/v4"
)

// Redirect sends the client to the local path given in ?to=.
func Redirect(c echo.Context) error {
	target := c.QueryParam("to")
	if !isLocalPath(target) {
		return domainerrors.ErrInvalidRedirect.WithDetails(target)
	}

	a, err := app(c)
	if err != nil {
		return err
	}

	return a.Responder.Redirect(c, target, 0)
}

// isLocalPath accepts absolute paths on this host only.
func isLocalPath(target string) bool {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return false
	}
	if strings.ContainsAny(target, "\\\r\n\t") {
		return false
	}

	u, err := url.Parse(target)
	if err != nil {
		return false
	}

	return u.Scheme == "" && u.Host == ""
}
