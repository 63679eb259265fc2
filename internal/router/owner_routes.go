package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lightbnb/internal/handler"
	"github.com/iliyamo/lightbnb/internal/middleware"
)

// RegisterOwner registers listing creation.  Any logged-in user may list a
// property and becomes its owner.
func RegisterOwner(e *echo.Echo, p *handler.PropertyHandler, limiter echo.MiddlewareFunc) {
	e.POST(handler.PropertiesRoute, p.CreateProperty, middleware.RequireSession(), limiter)
}
