package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/lightbnb/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/lightbnb/internal/middleware" // session enforcement
)

// RegisterRoutes registers the health check.  It answers 200 only while
// the store responds to a ping.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterUsers registers account and session routes.  Registration and
// login are rate limited; /users/me requires a session.  The session
// middleware itself is installed globally by the server.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, limiter echo.MiddlewareFunc) {
	e.POST("/users", u.Register, limiter)
	e.POST("/users/login", u.Login, limiter)
	e.POST("/users/logout", u.Logout)
	e.GET("/users/me", u.Me, middleware.RequireSession())
}

// RegisterPublic registers the unauthenticated property search.  cache
// wraps only this route so that POST /properties can invalidate it.
func RegisterPublic(e *echo.Echo, p *handler.PropertyHandler, cache echo.MiddlewareFunc) {
	e.GET(handler.PropertiesRoute, p.ListProperties, cache)
}
