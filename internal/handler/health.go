package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "fmt"
    "net/http" // net/http provides status codes and response helpers

    "github.com/labstack/echo/v4" // echo is the web framework used for this project

    "github.com/iliyamo/lightbnb/internal/repository"
)

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// Health answers load balancers and monitors.  It returns plain "ok" when
// the store answers a ping and 503 otherwise.
func Health(db Pinger) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
        defer cancel()
        if err := db.PingContext(ctx); err != nil {
            return writeError(c, fmt.Errorf("%w: %w", repository.ErrStoreUnavailable, err))
        }
        return c.String(http.StatusOK, "ok")
    }
}
