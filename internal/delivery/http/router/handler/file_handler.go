package handler

import (
	"net/http"
	"net/url"

	domainerrors "firecms/internal/domain/errors"

	"github.com/labstack/echo/v4"
)

// ValidateFileName answers with the sanitised base name of :name.
func ValidateFileName(c echo.Context) error {
	a, err := app(c)
	if err != nil {
		return err
	}

	raw, err := url.PathUnescape(c.Param("name"))
	if err != nil {
		return domainerrors.ErrInvalidFileName.WithDetails("malformed escape sequence")
	}

	name, err := a.Responder.ValidFileName(raw)
	if err != nil {
		return err
	}

	return a.Responder.SendAjaxCall(c, map[string]string{"file": name}, http.StatusOK)
}
