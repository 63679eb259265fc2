package handler

import (
    "context"
    "math"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/lightbnb/internal/model"
    "github.com/iliyamo/lightbnb/internal/repository"
)

// PropertyListLimit is the number of listings GET /properties returns.
const PropertyListLimit = 20

// PropertiesRoute is the path whose cached responses a new listing invalidates.
const PropertiesRoute = "/properties"

// PropertyHandler serves the public search and listing creation.
type PropertyHandler struct {
    Properties PropertyStore
    Cache      RouteInvalidator // may be nil
}

func NewPropertyHandler(props PropertyStore, cache RouteInvalidator) *PropertyHandler {
    if props == nil {
        panic("nil store passed to NewPropertyHandler")
    }
    return &PropertyHandler{Properties: props, Cache: cache}
}

// ListProperties handles GET /properties.  Every filter is optional:
// city (substring), owner_id, minimum_price_per_night and
// maximum_price_per_night (whole currency units) and minimum_rating.
func (h *PropertyHandler) ListProperties(c echo.Context) error {
    q, err := parseSearchQuery(c)
    if err != nil {
        return writeError(c, err)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    items, err := h.Properties.Search(ctx, q, PropertyListLimit)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"properties": items})
}

func parseSearchQuery(c echo.Context) (repository.PropertySearchQuery, error) {
    q := repository.PropertySearchQuery{City: strings.TrimSpace(c.QueryParam("city"))}
    if s := strings.TrimSpace(c.QueryParam("owner_id")); s != "" {
        id, err := strconv.ParseUint(s, 10, 64)
        if err != nil || id == 0 {
            return q, invalid("owner_id must be a positive integer")
        }
        q.OwnerID = id
    }
    var err error
    if q.MinPricePerNight, err = floatParam(c, "minimum_price_per_night"); err != nil {
        return q, err
    }
    if q.MaxPricePerNight, err = floatParam(c, "maximum_price_per_night"); err != nil {
        return q, err
    }
    if q.MinRating, err = floatParam(c, "minimum_rating"); err != nil {
        return q, err
    }
    return q, nil
}

// floatParam returns nil for an absent or empty parameter.
func floatParam(c echo.Context, name string) (*float64, error) {
    s := strings.TrimSpace(c.QueryParam(name))
    if s == "" {
        return nil, nil
    }
    f, err := strconv.ParseFloat(s, 64)
    if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
        return nil, invalid(name + " must be a number")
    }
    return &f, nil
}

// propertyReq mirrors the listing form.  cost_per_night is in cents.
type propertyReq struct {
    Title             string `json:"title" form:"title"`
    Description       string `json:"description" form:"description"`
    ThumbnailPhotoURL string `json:"thumbnail_photo_url" form:"thumbnail_photo_url"`
    CoverPhotoURL     string `json:"cover_photo_url" form:"cover_photo_url"`
    CostPerNight      int64  `json:"cost_per_night" form:"cost_per_night"`
    Street            string `json:"street" form:"street"`
    City              string `json:"city" form:"city"`
    Province          string `json:"province" form:"province"`
    PostCode          string `json:"post_code" form:"post_code"`
    Country           string `json:"country" form:"country"`
    ParkingSpaces     int    `json:"parking_spaces" form:"parking_spaces"`
    NumberOfBathrooms int    `json:"number_of_bathrooms" form:"number_of_bathrooms"`
    NumberOfBedrooms  int    `json:"number_of_bedrooms" form:"number_of_bedrooms"`
}

func (r propertyReq) toModel(ownerID uint64) (model.Property, error) {
    p := model.Property{
        OwnerID:           ownerID,
        Title:             strings.TrimSpace(r.Title),
        Description:       r.Description,
        ThumbnailPhotoURL: strings.TrimSpace(r.ThumbnailPhotoURL),
        CoverPhotoURL:     strings.TrimSpace(r.CoverPhotoURL),
        CostPerNight:      r.CostPerNight,
        Street:            strings.TrimSpace(r.Street),
        City:              strings.TrimSpace(r.City),
        Province:          strings.TrimSpace(r.Province),
        PostCode:          strings.TrimSpace(r.PostCode),
        Country:           strings.TrimSpace(r.Country),
        ParkingSpaces:     r.ParkingSpaces,
        NumberOfBathrooms: r.NumberOfBathrooms,
        NumberOfBedrooms:  r.NumberOfBedrooms,
    }
    switch {
    case p.Title == "":
        return p, invalid("title is required")
    case p.City == "":
        return p, invalid("city is required")
    case p.CostPerNight < 0:
        return p, invalid("cost_per_night must not be negative")
    case p.ParkingSpaces < 0 || p.NumberOfBathrooms < 0 || p.NumberOfBedrooms < 0:
        return p, invalid("room and parking counts must not be negative")
    }
    return p, nil
}

// CreateProperty handles POST /properties.  The listing is always owned by
// the logged-in user; an owner_id in the body is ignored.
func (h *PropertyHandler) CreateProperty(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return writeError(c, err)
    }
    var req propertyReq
    if err := c.Bind(&req); err != nil {
        return writeError(c, invalid("invalid body"))
    }
    p, err := req.toModel(ownerID)
    if err != nil {
        return writeError(c, err)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    created, err := h.Properties.Create(ctx, p)
    if err != nil {
        return writeError(c, err)
    }
    if h.Cache != nil {
        if err := h.Cache.InvalidateRoute(ctx, PropertiesRoute); err != nil {
            c.Logger().Warnf("invalidate %s cache: %v", PropertiesRoute, err)
        }
    }
    return c.JSON(http.StatusCreated, created)
}
