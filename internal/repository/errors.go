// Package repository defines error types that are reused across multiple
// repositories. These sentinel values let handlers tell apart the failure
// scenarios they must report with distinct status codes.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when the store's unique index on users.email
// rejects an insert.
var ErrEmailExists = errors.New("email already exists")

// ErrUnavailable is returned when a reservation would overlap an existing
// one on the same property.
var ErrUnavailable = errors.New("reservation not available")

// ErrStoreUnavailable wraps failures to reach the database at all (broken
// connections, timeouts).  Handlers translate it into HTTP 503.
var ErrStoreUnavailable = errors.New("store unavailable")
