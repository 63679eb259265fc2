package model

import (
    "database/sql/driver"
    "fmt"
    "strings"
    "time"
)

// DateLayout is the wire and storage format of reservation dates.
const DateLayout = "2006-01-02"

// Date is a calendar day without a time of day.  It scans from DATE columns
// (time.Time with parseTime, or raw text) and marshals as "YYYY-MM-DD".
type Date struct {
    time.Time
}

// NewDate truncates t to midnight UTC of the same calendar day.
func NewDate(t time.Time) Date {
    y, m, d := t.Date()
    return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts "YYYY-MM-DD" and, leniently, a full RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
    s = strings.TrimSpace(s)
    if t, err := time.Parse(DateLayout, s); err == nil {
        return NewDate(t), nil
    }
    t, err := time.Parse(time.RFC3339, s)
    if err != nil {
        return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
    }
    return NewDate(t), nil
}

func (d Date) String() string { return d.Format(DateLayout) }

// Before and After compare calendar days.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }

func (d Date) MarshalJSON() ([]byte, error) {
    return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
    s := strings.Trim(string(b), `"`)
    if s == "" || s == "null" {
        *d = Date{}
        return nil
    }
    parsed, err := ParseDate(s)
    if err != nil {
        return err
    }
    *d = parsed
    return nil
}

// UnmarshalParam lets echo bind form and query values into a Date.
func (d *Date) UnmarshalParam(s string) error {
    parsed, err := ParseDate(s)
    if err != nil {
        return err
    }
    *d = parsed
    return nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
    switch v := src.(type) {
    case time.Time:
        *d = NewDate(v)
        return nil
    case []byte:
        return d.scanText(string(v))
    case string:
        return d.scanText(v)
    case nil:
        *d = Date{}
        return nil
    }
    return fmt.Errorf("cannot scan %T into Date", src)
}

func (d *Date) scanText(s string) error {
    if len(s) >= len(DateLayout) {
        s = s[:len(DateLayout)]
    }
    t, err := time.Parse(DateLayout, s)
    if err != nil {
        return err
    }
    *d = NewDate(t)
    return nil
}

// Value implements driver.Valuer.  Dates are sent as text so both MySQL
// and PostgreSQL compare them against DATE columns without a zone shift.
func (d Date) Value() (driver.Value, error) {
    return d.String(), nil
}
