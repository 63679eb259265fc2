package model

// Property is a rentable listing owned by exactly one user.  CostPerNight
// is stored and returned in cents; only the search filters accept whole
// currency units.
type Property struct {
    ID                uint64 `db:"id" json:"id"`
    OwnerID           uint64 `db:"owner_id" json:"owner_id"`
    Title             string `db:"title" json:"title"`
    Description       string `db:"description" json:"description"`
    ThumbnailPhotoURL string `db:"thumbnail_photo_url" json:"thumbnail_photo_url"`
    CoverPhotoURL     string `db:"cover_photo_url" json:"cover_photo_url"`
    CostPerNight      int64  `db:"cost_per_night" json:"cost_per_night"`
    Street            string `db:"street" json:"street"`
    City              string `db:"city" json:"city"`
    Province          string `db:"province" json:"province"`
    PostCode          string `db:"post_code" json:"post_code"`
    Country           string `db:"country" json:"country"`
    ParkingSpaces     int    `db:"parking_spaces" json:"parking_spaces"`
    NumberOfBathrooms int    `db:"number_of_bathrooms" json:"number_of_bathrooms"`
    NumberOfBedrooms  int    `db:"number_of_bedrooms" json:"number_of_bedrooms"`
}

// PropertyListing is a property as returned by search, with the mean of its
// review ratings (0 when it has none).
type PropertyListing struct {
    Property
    AverageRating float64 `db:"average_rating" json:"average_rating"`
}

// PropertyReview is a single rating left on a property.
type PropertyReview struct {
    ID            uint64 `db:"id" json:"id"`
    PropertyID    uint64 `db:"property_id" json:"property_id"`
    GuestID       uint64 `db:"guest_id" json:"guest_id"`
    ReservationID uint64 `db:"reservation_id" json:"reservation_id"`
    Rating        int    `db:"rating" json:"rating"`
    Message       string `db:"message" json:"message"`
}
