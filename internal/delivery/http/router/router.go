// Package router contains routing for the HTTP delivery.
package router

import (
	"firecms/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	ContactHandler *handler.ContactHandler
}

// router holds all the handlers that need to be registered.
type router struct {
	contactHandler *handler.ContactHandler
}

// NewRouter is the constructor for the Router.
func NewRouter(params RouterParams) *router {
	return &router{
		contactHandler: params.ContactHandler,
	}
}

// RegisterRoutes sets up all the routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)
	e.GET("/go", handler.Redirect)

	api := e.Group("/api")
	{
		api.POST("/contact", r.contactHandler.Send)
		api.GET("/files/:name", handler.ValidateFileName)

		password := api.Group("/password")
		password.POST("/hash", handler.HashPassword)
		password.POST("/verify", handler.VerifyPassword)
	}
}
