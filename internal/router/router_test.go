package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lightbnb/internal/handler"
	"github.com/iliyamo/lightbnb/internal/middleware"
)

type stubPinger struct{}

func (stubPinger) PingContext(context.Context) error { return nil }

// stubs satisfy the store interfaces; the tests below never reach them.
type stubProps struct{ handler.PropertyStore }
type stubReservations struct{ handler.ReservationStore }

func noop(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newServer() *echo.Echo {
	e := echo.New()
	e.Use(middleware.Session("secret"))
	props := handler.NewPropertyHandler(stubProps{}, nil)
	RegisterRoutes(e, stubPinger{})
	RegisterUsers(e, &handler.UserHandler{Secret: "secret"}, noop)
	RegisterPublic(e, props, noop)
	RegisterOwner(e, props, noop)
	RegisterGuest(e, handler.NewReservationHandler(stubReservations{}, stubProps{}, nil), noop)
	return e
}

func TestRoutesRegistered(t *testing.T) {
	want := map[string]bool{
		"GET /healthz":       false,
		"POST /users":        false,
		"POST /users/login":  false,
		"POST /users/logout": false,
		"GET /users/me":      false,
		"GET /properties":    false,
		"POST /properties":   false,
		"GET /reservations":  false,
		"POST /reservations": false,
	}
	for _, r := range newServer().Routes() {
		key := r.Method + " " + r.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for route, seen := range want {
		if !seen {
			t.Errorf("route %s not registered", route)
		}
	}
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	e := newServer()
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/reservations"},
		{http.MethodPost, "/reservations"},
		{http.MethodPost, "/properties"},
		{http.MethodGet, "/users/me"},
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s = %d, want 401", tc.method, tc.path, rec.Code)
		}
	}
}

func TestHealthRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	newServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d", rec.Code)
	}
}
