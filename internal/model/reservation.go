package model

// Reservation binds a guest to a property for the inclusive date range
// [StartDate, EndDate].
//
// Fields:
//  ID         – primary key identifier.
//  StartDate  – first night.
//  EndDate    – last day of the stay.
//  PropertyID – property being reserved.
//  GuestID    – user who made the reservation.
type Reservation struct {
    ID         uint64 `db:"id" json:"id"`
    StartDate  Date   `db:"start_date" json:"start_date"`
    EndDate    Date   `db:"end_date" json:"end_date"`
    PropertyID uint64 `db:"property_id" json:"property_id"`
    GuestID    uint64 `db:"guest_id" json:"guest_id"`
}

// Overlaps reports whether r intersects the inclusive range [start, end].
// Ranges that only touch on a boundary day overlap.
func (r Reservation) Overlaps(start, end Date) bool {
    return !r.StartDate.After(end) && !r.EndDate.Before(start)
}

// GuestReservation is one row of a guest's reservation list: the
// reservation, the reserved property and that property's average rating.
// ID is the reservation id; the embedded property's own id is shadowed and
// exposed as PropertyID instead.
type GuestReservation struct {
    ID            uint64  `db:"id" json:"id"`
    StartDate     Date    `db:"start_date" json:"start_date"`
    EndDate       Date    `db:"end_date" json:"end_date"`
    GuestID       uint64  `db:"guest_id" json:"guest_id"`
    PropertyID    uint64  `db:"property_id" json:"property_id"`
    Property
    AverageRating float64 `db:"average_rating" json:"average_rating"`
}
