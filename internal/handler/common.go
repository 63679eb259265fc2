package handler // handler defines http handlers

import (
    "context"
    "errors"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/lightbnb/internal/middleware"
    "github.com/iliyamo/lightbnb/internal/model"
    "github.com/iliyamo/lightbnb/internal/queue"
    "github.com/iliyamo/lightbnb/internal/repository"
)

// dbTimeout bounds every store call made while serving a request.
const dbTimeout = 5 * time.Second

// UserStore is the user persistence the handlers need.  *repository.UserRepo
// and *repository.UserCache both satisfy it.
type UserStore interface {
    Create(ctx context.Context, name, email, password string, cost int) (model.User, error)
    GetByEmail(ctx context.Context, email string) (model.User, error)
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

// PropertyStore is satisfied by *repository.PropertyRepo.
type PropertyStore interface {
    Search(ctx context.Context, q repository.PropertySearchQuery, limit int) ([]model.PropertyListing, error)
    Create(ctx context.Context, p model.Property) (model.Property, error)
    GetByID(ctx context.Context, id uint64) (model.Property, error)
}

// ReservationStore is satisfied by *repository.ReservationRepo.
type ReservationStore interface {
    ListByGuest(ctx context.Context, guestID uint64, limit int) ([]model.GuestReservation, error)
    CreateIfAvailable(ctx context.Context, r model.Reservation) (model.Reservation, error)
}

// EventPublisher sends domain events to the broker.
type EventPublisher interface {
    PublishReservationCreated(ctx context.Context, ev queue.ReservationCreatedEvent) error
}

// RouteInvalidator drops cached responses of a route after a write.
type RouteInvalidator interface {
    InvalidateRoute(ctx context.Context, route string) error
}

var errNoSession = errors.New("no session")

// getUserID returns the logged-in user's id as stored by the session
// middleware.
func getUserID(c echo.Context) (uint64, error) {
    id, ok := middleware.UserID(c)
    if !ok {
        return 0, errNoSession
    }
    return id, nil
}
