package middleware

// identity.go holds the helpers that read the authenticated user back out
// of the Echo context.  Session stores the id under "user_id" as a uint64.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// UserID returns the id of the logged-in user, or false for anonymous
// requests.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get("user_id").(uint64)
    if !ok || id == 0 {
        return 0, false
    }
    return id, true
}

// userKey renders the user id for rate-limit keys; anonymous callers share
// "anon".
func userKey(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
