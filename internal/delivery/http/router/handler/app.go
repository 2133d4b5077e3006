package handler

import (
	"firecms/internal/container"
	domainerrors "firecms/internal/domain/errors"

	"github.com/labstack/echo/v4"
)

// app returns the service container of the request.
func app(c echo.Context) (*container.App, error) {
	a := container.FromContext(c)
	if a == nil {
		return nil, domainerrors.ErrInternalError.WithDetails("service container not initialised")
	}

	return a, nil
}
