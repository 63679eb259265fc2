package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/lightbnb/internal/repository"
)

// validationError reports malformed client input; its message is safe to
// return as is.
type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func invalid(msg string) error { return &validationError{msg: msg} }

// errorBody is the single error shape of the API.
func errorBody(code, message string) echo.Map {
    return echo.Map{"error": code, "message": message}
}

// writeError translates err into its status code and JSON body.  Anything
// not recognized is logged and reported as a generic 500 so driver text
// never reaches the client.
func writeError(c echo.Context, err error) error {
    var ve *validationError
    switch {
    case errors.As(err, &ve):
        return c.JSON(http.StatusBadRequest, errorBody("validation_error", ve.msg))
    case errors.Is(err, errNoSession):
        return c.JSON(http.StatusUnauthorized, errorBody("unauthenticated", "log in to continue"))
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, errorBody("not_found", "resource not found"))
    case errors.Is(err, repository.ErrEmailExists):
        return c.JSON(http.StatusConflict, errorBody("email_taken", "an account with this email already exists"))
    case errors.Is(err, repository.ErrUnavailable):
        return c.JSON(http.StatusConflict, errorBody("reservation_unavailable", "Reservation not available."))
    case errors.Is(err, repository.ErrStoreUnavailable):
        c.Logger().Errorf("store unavailable: %v", err)
        return c.JSON(http.StatusServiceUnavailable, errorBody("store_unavailable", "service temporarily unavailable"))
    }
    c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
    return c.JSON(http.StatusInternalServerError, errorBody("internal_error", "something went wrong"))
}
