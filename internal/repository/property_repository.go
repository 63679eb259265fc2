package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/lightbnb/internal/model"
)

// PropertyRepo persists listings and runs the filtered property search.
type PropertyRepo struct {
	db *sqlx.DB
}

// NewPropertyRepo returns a new PropertyRepo bound to the given database.
func NewPropertyRepo(db *sqlx.DB) *PropertyRepo { return &PropertyRepo{db: db} }

// DB exposes the underlying handle so callers can begin transactions or
// check connectivity.
func (r *PropertyRepo) DB() *sqlx.DB { return r.db }

// Create inserts every listing field and returns the stored row.  The cost
// is taken as given, already in cents.  An unknown owner surfaces as
// ErrNotFound.
func (r *PropertyRepo) Create(ctx context.Context, p model.Property) (model.Property, error) {
	const q = `INSERT INTO properties (
		owner_id, title, description, thumbnail_photo_url, cover_photo_url, cost_per_night,
		street, city, province, post_code, country,
		parking_spaces, number_of_bathrooms, number_of_bedrooms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := insertID(ctx, r.db, q,
		p.OwnerID, p.Title, p.Description, p.ThumbnailPhotoURL, p.CoverPhotoURL, p.CostPerNight,
		p.Street, p.City, p.Province, p.PostCode, p.Country,
		p.ParkingSpaces, p.NumberOfBathrooms, p.NumberOfBedrooms,
	)
	if err != nil {
		if isForeignKey(err) {
			return model.Property{}, ErrNotFound
		}
		return model.Property{}, classify(err)
	}
	// Query back the full row so defaults applied by the store are returned
	return r.GetByID(ctx, id)
}

// GetByID loads one property without its rating.
func (r *PropertyRepo) GetByID(ctx context.Context, id uint64) (model.Property, error) {
	var p model.Property
	err := r.db.GetContext(ctx, &p, r.db.Rebind("SELECT "+propertyColumns+" FROM properties WHERE properties.id = ?"), id)
	return p, classify(err)
}
