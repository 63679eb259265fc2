package repository

import (
	"context"
	"math"
	"strings"

	"github.com/iliyamo/lightbnb/internal/model"
)

// DefaultSearchLimit caps Search when the caller passes a non-positive limit.
const DefaultSearchLimit = 10

// PropertySearchQuery holds the optional search filters.  Zero values mean
// "not filtered".  Prices are in whole currency units and are converted to
// cents before they reach the store.
type PropertySearchQuery struct {
	City             string
	OwnerID          uint64
	MinPricePerNight *float64
	MaxPricePerNight *float64
	MinRating        *float64
}

// filterBuilder collects predicates and their bound arguments.  The WHERE
// keyword and the AND separators are only produced by clause(), so the
// order in which filters are added never changes the shape of the SQL.
type filterBuilder struct {
	preds []string
	args  []interface{}
}

func (b *filterBuilder) add(pred string, args ...interface{}) {
	b.preds = append(b.preds, pred)
	b.args = append(b.args, args...)
}

// clause renders "WHERE p1 AND p2 ..." or "" when no predicate was added.
func (b *filterBuilder) clause() string {
	if len(b.preds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(b.preds, " AND ")
}

const propertyColumns = `properties.id, properties.owner_id, properties.title, COALESCE(properties.description, '') AS description,
		properties.thumbnail_photo_url, properties.cover_photo_url, properties.cost_per_night,
		properties.street, properties.city, properties.province, properties.post_code, properties.country,
		properties.parking_spaces, properties.number_of_bathrooms, properties.number_of_bedrooms`

const averageRating = "AVG(COALESCE(property_reviews.rating, 0))"

// buildSearch renders the search statement with "?" placeholders and the
// matching argument list.  Filters are applied in a fixed order: city,
// owner, minimum price, maximum price; the rating filter applies after
// grouping.
func buildSearch(q PropertySearchQuery, limit int) (string, []interface{}) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	var where filterBuilder
	if city := strings.TrimSpace(q.City); city != "" {
		where.add("properties.city LIKE ?", "%"+city+"%")
	}
	if q.OwnerID != 0 {
		where.add("properties.owner_id = ?", q.OwnerID)
	}
	if q.MinPricePerNight != nil {
		where.add("properties.cost_per_night >= ?", toCents(*q.MinPricePerNight))
	}
	if q.MaxPricePerNight != nil {
		where.add("properties.cost_per_night <= ?", toCents(*q.MaxPricePerNight))
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + propertyColumns + ",\n\t\t" + averageRating + " AS average_rating\n")
	sb.WriteString("\tFROM properties\n")
	sb.WriteString("\tLEFT JOIN property_reviews ON property_reviews.property_id = properties.id\n")
	if c := where.clause(); c != "" {
		sb.WriteString("\t" + c + "\n")
	}
	sb.WriteString("\tGROUP BY properties.id\n")
	args := where.args
	if q.MinRating != nil {
		sb.WriteString("\tHAVING " + averageRating + " >= ?\n")
		args = append(args, *q.MinRating)
	}
	sb.WriteString("\tORDER BY properties.cost_per_night ASC\n")
	sb.WriteString("\tLIMIT ?")
	args = append(args, limit)
	return sb.String(), args
}

// toCents converts whole currency units to cents, rounding half away from
// zero.  Amounts beyond the int64 range saturate, so a huge maximum still
// matches every property and a huge minimum matches none.
func toCents(units float64) int64 {
	c := math.Round(units * 100)
	switch {
	case math.IsNaN(c):
		return 0
	case c >= math.MaxInt64: // float64(MaxInt64) is 2^63, itself out of range
		return math.MaxInt64
	case c <= math.MinInt64:
		return math.MinInt64
	}
	return int64(c)
}

// Search returns properties matching q, cheapest first, with their average
// rating.  An empty result is an empty slice, never nil.
func (r *PropertyRepo) Search(ctx context.Context, q PropertySearchQuery, limit int) ([]model.PropertyListing, error) {
	query, args := buildSearch(q, limit)
	out := []model.PropertyListing{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		return nil, classify(err)
	}
	return out, nil
}
