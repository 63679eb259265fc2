package model

// User represents a row of the `users` table.
//
// Fields:
//  ID        – primary key identifier of the user.
//  Name      – display name.
//  Email     – unique, lower-cased email address.
//  Password  – bcrypt hash; never serialized.
type User struct {
    ID        uint64 `db:"id" json:"id"`
    Name      string `db:"name" json:"name"`
    Email     string `db:"email" json:"email"`
    Password  string `db:"password" json:"-"`
}
