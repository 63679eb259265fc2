package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lightbnb/internal/handler"
	"github.com/iliyamo/lightbnb/internal/middleware"
)

// RegisterGuest registers the reservation routes.  Both require a session;
// booking is also rate limited.
func RegisterGuest(e *echo.Echo, h *handler.ReservationHandler, limiter echo.MiddlewareFunc) {
	e.GET("/reservations", h.ListReservations, middleware.RequireSession())
	e.POST("/reservations", h.CreateReservation, middleware.RequireSession(), limiter)
}
