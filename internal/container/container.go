// Package container holds the composed service graph. The fx graph builds
// App at boot; request handlers read it from the request context, other
// code may use the process-wide reference installed with Set.
package container

import (
	"log/slog"
	"sync/atomic"

	"firecms/config"
	"firecms/internal/delivery/http/responder"
	"firecms/internal/domain/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const contextKey = "firecms.container"

// Params holds the services assembled into App, injected by Fx.
type Params struct {
	fx.In

	Config    *config.Config
	Logger    *slog.Logger
	Hasher    service.PasswordHasher
	Mailer    service.Mailer
	Responder responder.Responder
}

// App is the service container shared by the application.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Hasher    service.PasswordHasher
	Mailer    service.Mailer
	Responder responder.Responder
}

// New assembles the container.
func New(params Params) *App {
	return &App{
		Config:    params.Config,
		Logger:    params.Logger,
		Hasher:    params.Hasher,
		Mailer:    params.Mailer,
		Responder: params.Responder,
	}
}

var current atomic.Pointer[App]

// Set installs app as the process-wide container. The last call wins.
func Set(app *App) {
	current.Store(app)
}

// Get returns the process-wide container, or nil before Set.
func Get() *App {
	return current.Load()
}

// Middleware exposes app to every request handled after it.
func Middleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(contextKey, app)

			return next(c)
		}
	}
}

// FromContext returns the container attached by Middleware, falling back
// to the process-wide one.
func FromContext(c echo.Context) *App {
	if app, ok := c.Get(contextKey).(*App); ok && app != nil {
		return app
	}

	return Get()
}
