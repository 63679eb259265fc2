package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lightbnb/internal/model"
	"github.com/iliyamo/lightbnb/internal/queue"
	"github.com/iliyamo/lightbnb/internal/repository"
)

// ReservationListLimit is the number of reservations GET /reservations returns.
const ReservationListLimit = 20

// publishTimeout bounds the best-effort event publish after a booking.
const publishTimeout = 5 * time.Second

// ReservationHandler serves a guest's reservations.  All methods assume the
// session middleware has run; anonymous callers get 401.
type ReservationHandler struct {
	Reservations ReservationStore
	Properties   PropertyStore
	Events       EventPublisher // may be nil
}

func NewReservationHandler(res ReservationStore, props PropertyStore, events EventPublisher) *ReservationHandler {
	if res == nil || props == nil {
		panic("nil store passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: res, Properties: props, Events: events}
}

// ListReservations handles GET /reservations: the caller's reservations,
// earliest stay first, each with its property and average rating.
func (h *ReservationHandler) ListReservations(c echo.Context) error {
	guestID, err := getUserID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	items, err := h.Reservations.ListByGuest(ctx, guestID, ReservationListLimit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": items})
}

type reservationReq struct {
	StartDate  string `json:"start_date" form:"start_date"`
	EndDate    string `json:"end_date" form:"end_date"`
	PropertyID uint64 `json:"property_id" form:"property_id"`
}

func (r reservationReq) toModel(guestID uint64) (model.Reservation, error) {
	if strings.TrimSpace(r.StartDate) == "" || strings.TrimSpace(r.EndDate) == "" {
		return model.Reservation{}, invalid("start_date and end_date are required")
	}
	start, err := model.ParseDate(r.StartDate)
	if err != nil {
		return model.Reservation{}, invalid("start_date must be YYYY-MM-DD")
	}
	end, err := model.ParseDate(r.EndDate)
	if err != nil {
		return model.Reservation{}, invalid("end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return model.Reservation{}, invalid("end_date must not be before start_date")
	}
	if r.PropertyID == 0 {
		return model.Reservation{}, invalid("property_id is required")
	}
	return model.Reservation{StartDate: start, EndDate: end, PropertyID: r.PropertyID, GuestID: guestID}, nil
}

// CreateReservation handles POST /reservations.  The range is booked only
// when no reservation of the same property overlaps it; otherwise the
// caller gets 409 reservation_unavailable and nothing is stored.  The
// stored reservation is returned with 201 and a reservation.created event
// is published in the background.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	guestID, err := getUserID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req reservationReq
	if err := c.Bind(&req); err != nil {
		return writeError(c, invalid("invalid body"))
	}
	r, err := req.toModel(guestID)
	if err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	created, err := h.Reservations.CreateIfAvailable(ctx, r)
	if err != nil {
		return writeError(c, err)
	}
	if h.Events != nil {
		go h.publishCreated(created)
	}
	return c.JSON(http.StatusCreated, created)
}

// publishCreated never fails the request it follows; errors are only logged.
func (h *ReservationHandler) publishCreated(r model.Reservation) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	p, err := h.Properties.GetByID(ctx, r.PropertyID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Printf("reservation %d: load property for event: %v", r.ID, err)
	}
	if err := h.Events.PublishReservationCreated(ctx, queue.NewReservationCreated(r, p, time.Now())); err != nil {
		log.Printf("reservation %d: publish reservation.created: %v", r.ID, err)
	}
}
