package repository

import (
	"context"
	"errors"
	"math"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/lightbnb/internal/model"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return sqlx.NewDb(db, "mysql"), mock
}

// q matches a fragment of SQL literally.
func q(fragment string) string { return regexp.QuoteMeta(fragment) }

func mustDate(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func f64(v float64) *float64 { return &v }

var reservationCols = []string{"id", "start_date", "end_date", "property_id", "guest_id"}

// ----- search SQL -----

func TestBuildSearch(t *testing.T) {
	tests := []struct {
		name     string
		query    PropertySearchQuery
		limit    int
		where    string
		having   bool
		wantArgs []interface{}
	}{
		{
			name:     "no filters",
			limit:    0,
			wantArgs: []interface{}{DefaultSearchLimit},
		},
		{
			name:     "city only",
			query:    PropertySearchQuery{City: " Vancouver "},
			limit:    20,
			where:    "WHERE properties.city LIKE ?",
			wantArgs: []interface{}{"%Vancouver%", 20},
		},
		{
			name:     "owner and prices",
			query:    PropertySearchQuery{OwnerID: 3, MinPricePerNight: f64(50), MaxPricePerNight: f64(150.5)},
			limit:    5,
			where:    "WHERE properties.owner_id = ? AND properties.cost_per_night >= ? AND properties.cost_per_night <= ?",
			wantArgs: []interface{}{uint64(3), int64(5000), int64(15050), 5},
		},
		{
			name:     "everything",
			query:    PropertySearchQuery{City: "Banff", OwnerID: 1, MinPricePerNight: f64(0), MaxPricePerNight: f64(1), MinRating: f64(4)},
			limit:    10,
			where:    "WHERE properties.city LIKE ? AND properties.owner_id = ? AND properties.cost_per_night >= ? AND properties.cost_per_night <= ?",
			having:   true,
			wantArgs: []interface{}{"%Banff%", uint64(1), int64(0), int64(100), 4.0, 10},
		},
		{
			name:     "huge prices saturate",
			query:    PropertySearchQuery{MinPricePerNight: f64(-1e300), MaxPricePerNight: f64(1e17)},
			limit:    10,
			where:    "WHERE properties.cost_per_night >= ? AND properties.cost_per_night <= ?",
			wantArgs: []interface{}{int64(math.MinInt64), int64(math.MaxInt64), 10},
		},
		{
			name:     "rating only",
			query:    PropertySearchQuery{MinRating: f64(3.5)},
			limit:    10,
			having:   true,
			wantArgs: []interface{}{3.5, 10},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := buildSearch(tt.query, tt.limit)
			if tt.where == "" && strings.Contains(sql, "WHERE") {
				t.Errorf("unexpected WHERE in %s", sql)
			}
			if tt.where != "" && !strings.Contains(sql, tt.where+"\n") {
				t.Errorf("want %q in\n%s", tt.where, sql)
			}
			if got := strings.Contains(sql, "HAVING AVG(COALESCE(property_reviews.rating, 0)) >= ?"); got != tt.having {
				t.Errorf("HAVING present = %v, want %v", got, tt.having)
			}
			if strings.Count(sql, "?") != len(args) {
				t.Errorf("%d placeholders for %d args", strings.Count(sql, "?"), len(args))
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %#v, want %#v", args, tt.wantArgs)
			}
			order := []string{"FROM properties", "LEFT JOIN property_reviews", "GROUP BY properties.id", "ORDER BY properties.cost_per_night ASC", "LIMIT ?"}
			last := -1
			for _, frag := range order {
				i := strings.Index(sql, frag)
				if i <= last {
					t.Fatalf("%q out of order in\n%s", frag, sql)
				}
				last = i
			}
		})
	}
}

func TestToCents(t *testing.T) {
	for in, want := range map[float64]int64{
		0: 0, 1: 100, 99.99: 9999, 0.125: 13, 150.5: 15050,
		1e16: 1e18, 1e17: math.MaxInt64, 1e300: math.MaxInt64, -1e17: math.MinInt64,
		math.Inf(1): math.MaxInt64, math.Inf(-1): math.MinInt64,
	} {
		if got := toCents(in); got != want {
			t.Errorf("toCents(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestSearchEmptyIsNotNil(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("FROM properties")).
		WithArgs("%Nowhere%", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "average_rating"}))

	got, err := NewPropertyRepo(db).Search(context.Background(), PropertySearchQuery{City: "Nowhere"}, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("Search = %#v, want empty non-nil slice", got)
	}
}

func TestSearchRows(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("HAVING AVG(COALESCE(property_reviews.rating, 0)) >= ?")).
		WithArgs(4.0, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "title", "cost_per_night", "city", "average_rating"}).
			AddRow(2, 1, "Loft", 9000, "Toronto", 4.5).
			AddRow(7, 1, "Villa", 30000, "Toronto", 4))

	got, err := NewPropertyRepo(db).Search(context.Background(), PropertySearchQuery{MinRating: f64(4)}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 || got[0].Title != "Loft" || got[0].AverageRating != 4.5 || got[1].CostPerNight != 30000 {
		t.Fatalf("unexpected listings %+v", got)
	}
}

// ----- properties -----

func TestPropertyCreate(t *testing.T) {
	db, mock := newMock(t)
	p := model.Property{OwnerID: 1, Title: "Cabin", City: "Banff", CostPerNight: 12000, NumberOfBedrooms: 2}
	mock.ExpectExec(q("INSERT INTO properties")).
		WithArgs(p.OwnerID, p.Title, "", "", "", p.CostPerNight, "", p.City, "", "", "", 0, 0, 2).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery(q("FROM properties WHERE properties.id = ?")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "title", "city", "cost_per_night", "number_of_bedrooms"}).
			AddRow(5, 1, "Cabin", "Banff", 12000, 2))

	got, err := NewPropertyRepo(db).Create(context.Background(), p)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID != 5 || got.Title != "Cabin" || got.NumberOfBedrooms != 2 {
		t.Fatalf("unexpected property %+v", got)
	}
}

func TestPropertyCreateUnknownOwner(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("INSERT INTO properties")).WillReturnError(&mysql.MySQLError{Number: 1452, Message: "fk"})

	_, err := NewPropertyRepo(db).Create(context.Background(), model.Property{OwnerID: 404, Title: "x", City: "y"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// ----- users -----

func TestUserCreate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("INSERT INTO users (name, email, password) VALUES (?, ?, ?)")).
		WithArgs("Ana", "ana@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(12, 1))

	u, err := NewUserRepo(db).Create(context.Background(), " Ana ", " Ana@Example.COM", "pw", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID != 12 || u.Email != "ana@example.com" || u.Name != "Ana" {
		t.Fatalf("unexpected user %+v", u)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("pw")) != nil {
		t.Fatal("stored password is not a bcrypt hash of the input")
	}
}

func TestUserCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := NewUserRepo(db).Create(context.Background(), "Ana", "ana@example.com", "pw", bcrypt.MinCost)
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}
}

func TestUserGetByEmail(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("FROM users WHERE email = ? LIMIT 1")).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password"}).AddRow(1, "Ana", "ana@example.com", "$2a$hash"))
	mock.ExpectQuery(q("FROM users WHERE email = ? LIMIT 1")).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password"}))

	repo := NewUserRepo(db)
	u, err := repo.GetByEmail(context.Background(), "ANA@example.com ")
	if err != nil || u.ID != 1 {
		t.Fatalf("GetByEmail = %+v, %v", u, err)
	}
	if _, err := repo.GetByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStoreUnavailable(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("FROM users WHERE id = ?")).WillReturnError(mysql.ErrInvalidConn)

	_, err := NewUserRepo(db).GetByID(context.Background(), 1)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestUserCacheHit(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("FROM users WHERE id = ?")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password"}).AddRow(3, "Bo", "bo@example.com", "h"))
	mock.ExpectQuery(q("FROM users WHERE id = ?")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password"}))

	cache := NewUserCache(NewUserRepo(db), 10, time.Minute)
	defer cache.Stop()
	for i := 0; i < 3; i++ {
		u, err := cache.GetByID(context.Background(), 3)
		if err != nil || u.Email != "bo@example.com" {
			t.Fatalf("GetByID #%d = %+v, %v", i, u, err)
		}
	}
	// misses are not cached; the second lookup of 4 would hit an unexpected query
	if _, err := cache.GetByID(context.Background(), 4); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// ----- reservations -----

func TestOverlappingScopes(t *testing.T) {
	db, mock := newMock(t)
	start, end := mustDate(t, "2024-06-01"), mustDate(t, "2024-06-05")

	mock.ExpectQuery(q("FROM reservations WHERE start_date <= ? AND end_date >= ? ORDER BY start_date")).
		WithArgs("2024-06-05", "2024-06-01").
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(1, "2024-05-30", "2024-06-01", 8, 2).
			AddRow(2, "2024-06-05", "2024-06-09", 9, 3))
	mock.ExpectQuery(q("FROM reservations WHERE start_date <= ? AND end_date >= ? AND property_id = ?")).
		WithArgs("2024-06-05", "2024-06-01", 9).
		WillReturnRows(sqlmock.NewRows(reservationCols))

	repo := NewReservationRepo(db)
	all, err := repo.Overlapping(context.Background(), start, end, 0)
	if err != nil {
		t.Fatalf("Overlapping: %v", err)
	}
	if len(all) != 2 || all[1].StartDate.String() != "2024-06-05" {
		t.Fatalf("unexpected overlaps %+v", all)
	}
	one, err := repo.Overlapping(context.Background(), start, end, 9)
	if err != nil || one == nil || len(one) != 0 {
		t.Fatalf("Overlapping(property 9) = %#v, %v", one, err)
	}
}

func TestCreateIfAvailable(t *testing.T) {
	db, mock := newMock(t)
	r := model.Reservation{StartDate: mustDate(t, "2024-06-01"), EndDate: mustDate(t, "2024-06-05"), PropertyID: 3, GuestID: 8}

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT id FROM properties WHERE id = ? FOR UPDATE")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(q("AND property_id = ?")).
		WithArgs("2024-06-05", "2024-06-01", 3).
		WillReturnRows(sqlmock.NewRows(reservationCols))
	mock.ExpectExec(q("INSERT INTO reservations (start_date, end_date, property_id, guest_id) VALUES (?, ?, ?, ?)")).
		WithArgs("2024-06-01", "2024-06-05", 3, 8).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectQuery(q("FROM reservations WHERE id = ?")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(reservationCols).AddRow(10, "2024-06-01", "2024-06-05", 3, 8))
	mock.ExpectCommit()

	got, err := NewReservationRepo(db).CreateIfAvailable(context.Background(), r)
	if err != nil {
		t.Fatalf("CreateIfAvailable: %v", err)
	}
	if got.ID != 10 || got.GuestID != 8 || got.EndDate.String() != "2024-06-05" {
		t.Fatalf("unexpected reservation %+v", got)
	}
}

func TestCreateIfAvailableOverlap(t *testing.T) {
	db, mock := newMock(t)
	r := model.Reservation{StartDate: mustDate(t, "2024-06-05"), EndDate: mustDate(t, "2024-06-07"), PropertyID: 3, GuestID: 8}

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).WithArgs(3).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(q("AND property_id = ?")).
		WithArgs("2024-06-07", "2024-06-05", 3).
		WillReturnRows(sqlmock.NewRows(reservationCols).AddRow(1, "2024-06-01", "2024-06-05", 3, 2))
	mock.ExpectRollback()

	_, err := NewReservationRepo(db).CreateIfAvailable(context.Background(), r)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestCreateIfAvailableUnknownProperty(t *testing.T) {
	db, mock := newMock(t)
	r := model.Reservation{StartDate: mustDate(t, "2024-06-01"), EndDate: mustDate(t, "2024-06-02"), PropertyID: 404, GuestID: 8}

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).WithArgs(404).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := NewReservationRepo(db).CreateIfAvailable(context.Background(), r)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReservationCreate(t *testing.T) {
	db, mock := newMock(t)
	r := model.Reservation{StartDate: mustDate(t, "2024-06-01"), EndDate: mustDate(t, "2024-06-02"), PropertyID: 3, GuestID: 8}
	mock.ExpectExec(q("INSERT INTO reservations")).
		WithArgs("2024-06-01", "2024-06-02", 3, 8).
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectQuery(q("FROM reservations WHERE id = ?")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows(reservationCols).AddRow(4, "2024-06-01", "2024-06-02", 3, 8))

	got, err := NewReservationRepo(db).Create(context.Background(), r)
	if err != nil || got.ID != 4 {
		t.Fatalf("Create = %+v, %v", got, err)
	}
}

func TestListByGuest(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("WHERE reservations.guest_id = ?")).
		WithArgs(8, DefaultGuestLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "start_date", "end_date", "guest_id", "property_id", "title", "city", "cost_per_night", "average_rating"}).
			AddRow(10, "2024-06-01", "2024-06-05", 8, 3, "Lake hut", "Banff", 12000, 0).
			AddRow(11, "2024-07-01", "2024-07-02", 8, 4, "Loft", "Toronto", 9000, 4.5))

	got, err := NewReservationRepo(db).ListByGuest(context.Background(), 8, 0)
	if err != nil {
		t.Fatalf("ListByGuest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d reservations", len(got))
	}
	first := got[0]
	if first.ID != 10 || first.PropertyID != 3 || first.Title != "Lake hut" || first.AverageRating != 0 || first.StartDate.String() != "2024-06-01" {
		t.Fatalf("unexpected first row %+v", first)
	}
	if got[1].AverageRating != 4.5 {
		t.Fatalf("rating = %v, want 4.5", got[1].AverageRating)
	}
}
