package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/lightbnb/internal/utils"
)

// SessionCookie is the cookie carrying the session token for browser clients.
const SessionCookie = "session"

// Session returns a lenient middleware that resolves the caller's session.
// The token is read from an "Authorization: Bearer" header first and from
// the session cookie second.  A valid token stores the user id (uint64)
// under "user_id"; a missing or invalid one leaves the request anonymous
// so public routes keep working.  Use RequireSession on routes that need a
// logged-in user.
func Session(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := bearerToken(c.Request().Header.Get("Authorization"))
            if raw == "" {
                if ck, err := c.Cookie(SessionCookie); err == nil {
                    raw = ck.Value
                }
            }
            if raw != "" {
                if id, err := utils.ParseSessionToken(secret, raw); err == nil {
                    c.Set("user_id", id)
                }
            }
            return next(c)
        }
    }
}

// RequireSession rejects anonymous requests with 401.  It assumes Session
// has already run.
func RequireSession() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if _, ok := UserID(c); !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{
                    "error":   "unauthenticated",
                    "message": "log in to continue",
                })
            }
            return next(c)
        }
    }
}

func bearerToken(auth string) string {
    if !strings.HasPrefix(auth, "Bearer ") {
        return ""
    }
    return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}
