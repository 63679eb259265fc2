package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"

    "github.com/jmoiron/sqlx"

    "github.com/iliyamo/lightbnb/internal/model"
)

// DefaultGuestLimit caps ListByGuest when the caller passes a non-positive limit.
const DefaultGuestLimit = 20

// ReservationRepo provides reads and writes for reservations.  Dates are
// calendar days; a range is inclusive on both ends.
type ReservationRepo struct {
    db *sqlx.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sqlx.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = "id, start_date, end_date, property_id, guest_id"

// ListByGuest returns the guest's reservations joined with the reserved
// property and its average rating (unrated counts as 0), earliest stay
// first.  When no reservations exist, an empty slice is returned.
func (r *ReservationRepo) ListByGuest(ctx context.Context, guestID uint64, limit int) ([]model.GuestReservation, error) {
    if limit <= 0 {
        limit = DefaultGuestLimit
    }
    const q = `SELECT reservations.id, reservations.start_date, reservations.end_date,
                      reservations.guest_id, reservations.property_id,
                      properties.owner_id, properties.title, COALESCE(properties.description, '') AS description,
                      properties.thumbnail_photo_url, properties.cover_photo_url, properties.cost_per_night,
                      properties.street, properties.city, properties.province, properties.post_code, properties.country,
                      properties.parking_spaces, properties.number_of_bathrooms, properties.number_of_bedrooms,
                      AVG(COALESCE(property_reviews.rating, 0)) AS average_rating
               FROM reservations
               JOIN properties ON properties.id = reservations.property_id
               LEFT JOIN property_reviews ON property_reviews.property_id = properties.id
               WHERE reservations.guest_id = ?
               GROUP BY properties.id, reservations.id
               ORDER BY reservations.start_date ASC
               LIMIT ?`
    out := []model.GuestReservation{}
    if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), guestID, limit); err != nil {
        return nil, classify(err)
    }
    return out, nil
}

// Overlapping returns every reservation whose range intersects
// [start, end]: existing.start <= end AND existing.end >= start, so ranges
// touching on a boundary day count.  propertyID 0 searches all properties.
// This is a read-only check; use CreateIfAvailable to book safely.
func (r *ReservationRepo) Overlapping(ctx context.Context, start, end model.Date, propertyID uint64) ([]model.Reservation, error) {
    out, err := overlapping(ctx, r.db, start, end, propertyID)
    return out, classify(err)
}

func overlapping(ctx context.Context, q dbtx, start, end model.Date, propertyID uint64) ([]model.Reservation, error) {
    query := "SELECT " + reservationColumns + " FROM reservations WHERE start_date <= ? AND end_date >= ?"
    args := []interface{}{end, start}
    if propertyID != 0 {
        query += " AND property_id = ?"
        args = append(args, propertyID)
    }
    query += " ORDER BY start_date"
    out := []model.Reservation{}
    if err := q.SelectContext(ctx, &out, q.Rebind(query), args...); err != nil {
        return nil, err
    }
    return out, nil
}

// Create inserts the reservation without checking availability and returns
// the stored row.  An unknown property or guest surfaces as ErrNotFound.
func (r *ReservationRepo) Create(ctx context.Context, res model.Reservation) (model.Reservation, error) {
    out, err := insertReservation(ctx, r.db, res)
    if err != nil {
        if isForeignKey(err) {
            return model.Reservation{}, ErrNotFound
        }
        return model.Reservation{}, classify(err)
    }
    return out, nil
}

func insertReservation(ctx context.Context, q dbtx, res model.Reservation) (model.Reservation, error) {
    id, err := insertID(ctx, q,
        "INSERT INTO reservations (start_date, end_date, property_id, guest_id) VALUES (?, ?, ?, ?)",
        res.StartDate, res.EndDate, res.PropertyID, res.GuestID)
    if err != nil {
        return model.Reservation{}, err
    }
    // Query back the full row to return what the store actually holds
    var out model.Reservation
    err = q.GetContext(ctx, &out, q.Rebind("SELECT "+reservationColumns+" FROM reservations WHERE id = ?"), id)
    return out, err
}

// CreateIfAvailable books the range only if no reservation on the same
// property overlaps it.  The property row is locked for the duration of
// the transaction so concurrent bookings of one property are serialized
// and cannot both pass the overlap check.  It returns ErrNotFound when the
// property does not exist and ErrUnavailable when the range is taken; in
// both cases nothing is written.
func (r *ReservationRepo) CreateIfAvailable(ctx context.Context, res model.Reservation) (model.Reservation, error) {
    tx, err := r.db.BeginTxx(ctx, nil)
    if err != nil {
        return model.Reservation{}, classify(err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var locked uint64
    if err := tx.QueryRowxContext(ctx, tx.Rebind("SELECT id FROM properties WHERE id = ? FOR UPDATE"), res.PropertyID).Scan(&locked); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return model.Reservation{}, ErrNotFound
        }
        return model.Reservation{}, classify(err)
    }
    clash, err := overlapping(ctx, tx, res.StartDate, res.EndDate, res.PropertyID)
    if err != nil {
        return model.Reservation{}, classify(err)
    }
    if len(clash) > 0 {
        return model.Reservation{}, ErrUnavailable
    }
    out, err := insertReservation(ctx, tx, res)
    if err != nil {
        if isForeignKey(err) {
            return model.Reservation{}, ErrNotFound
        }
        return model.Reservation{}, classify(err)
    }
    if err := tx.Commit(); err != nil {
        return model.Reservation{}, classify(fmt.Errorf("commit reservation: %w", err))
    }
    committed = true
    return out, nil
}
