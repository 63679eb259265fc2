package repository

import (
    "context"
    "database/sql"
    "database/sql/driver"
    "errors"
    "fmt"
    "net"

    "github.com/go-sql-driver/mysql"
    "github.com/jmoiron/sqlx"
    "github.com/lib/pq"
)

// dbtx is satisfied by both *sqlx.DB and *sqlx.Tx so that query helpers can
// run inside or outside a transaction.  SQL text is always written with "?"
// placeholders and passed through Rebind before execution.
type dbtx interface {
    sqlx.ExtContext
    GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
    SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// insertID runs an INSERT and returns the generated primary key.  MySQL
// reports it through LastInsertId; PostgreSQL needs a RETURNING clause.
func insertID(ctx context.Context, q dbtx, query string, args ...interface{}) (uint64, error) {
    if q.DriverName() == "postgres" {
        var id uint64
        if err := q.QueryRowxContext(ctx, q.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
            return 0, err
        }
        return id, nil
    }
    res, err := q.ExecContext(ctx, q.Rebind(query), args...)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// classify maps driver errors onto the package sentinels.  Errors it does
// not recognize are returned unchanged.
func classify(err error) error {
    switch {
    case err == nil:
        return nil
    case errors.Is(err, sql.ErrNoRows):
        return ErrNotFound
    case isConnectionError(err):
        return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
    }
    return err
}

func isConnectionError(err error) bool {
    if errors.Is(err, driver.ErrBadConn) ||
        errors.Is(err, sql.ErrConnDone) ||
        errors.Is(err, mysql.ErrInvalidConn) ||
        errors.Is(err, context.DeadlineExceeded) {
        return true
    }
    var netErr net.Error
    return errors.As(err, &netErr)
}

// isDuplicate reports a unique-index violation (MySQL 1062, PostgreSQL 23505).
func isDuplicate(err error) bool {
    var myErr *mysql.MySQLError
    if errors.As(err, &myErr) {
        return myErr.Number == 1062
    }
    var pqErr *pq.Error
    if errors.As(err, &pqErr) {
        return pqErr.Code == "23505"
    }
    return false
}

// isForeignKey reports a foreign-key violation (MySQL 1452, PostgreSQL 23503).
func isForeignKey(err error) bool {
    var myErr *mysql.MySQLError
    if errors.As(err, &myErr) {
        return myErr.Number == 1452
    }
    var pqErr *pq.Error
    if errors.As(err, &pqErr) {
        return pqErr.Code == "23503"
    }
    return false
}
