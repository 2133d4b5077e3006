package middleware

import (
	"firecms/internal/delivery/http/responder"

	"github.com/labstack/echo/v4"
)

// SecureHeaders sets X-Powered-By and the security headers on every
// response before the handler runs. A broken CSP policy fails the request.
func SecureHeaders(r responder.Responder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r.SetXPoweredBy(c)
			if err := r.SendSecureHeaders(c); err != nil {
				return err
			}

			return next(c)
		}
	}
}
