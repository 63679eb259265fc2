// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

import (
    "time"

    "github.com/iliyamo/lightbnb/internal/model"
)

// ReservationCreatedQueue is the durable queue carrying ReservationCreatedEvent.
const ReservationCreatedQueue = "reservation.created"

// ReservationCreatedEvent is published after a reservation is stored.  It
// carries enough for consumers to log or notify without querying the
// primary database.  PropertyTitle and City are best-effort and may be
// empty.
type ReservationCreatedEvent struct {
    ReservationID uint64 `json:"reservation_id"`
    GuestID       uint64 `json:"guest_id"`
    PropertyID    uint64 `json:"property_id"`
    PropertyTitle string `json:"property_title,omitempty"`
    City          string `json:"city,omitempty"`
    StartDate     string `json:"start_date"`
    EndDate       string `json:"end_date"`
    CreatedAt     string `json:"created_at"`
}

// NewReservationCreated builds the event for r.  p may be the zero value
// when the property could not be loaded.
func NewReservationCreated(r model.Reservation, p model.Property, at time.Time) ReservationCreatedEvent {
    return ReservationCreatedEvent{
        ReservationID: r.ID,
        GuestID:       r.GuestID,
        PropertyID:    r.PropertyID,
        PropertyTitle: p.Title,
        City:          p.City,
        StartDate:     r.StartDate.String(),
        EndDate:       r.EndDate.String(),
        CreatedAt:     at.UTC().Format(time.RFC3339),
    }
}
