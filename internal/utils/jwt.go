package utils // package utils provides helpers for session tokens and password hashing

import (
    "crypto/rand"  // secure random number generation for token ids
    "encoding/hex" // hex encoding of the token id
    "errors"       // sentinel errors for malformed subjects
    "strconv"      // user ids travel as decimal strings in the sub claim
    "time"         // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens
)

// ErrInvalidSession is returned by ParseSessionToken for any token that is
// malformed, expired, signed with another key or missing its subject.
var ErrInvalidSession = errors.New("invalid session token")

// SessionToken is a signed HS256 JWT identifying a logged-in user.  The
// same string is set as the session cookie and returned in the login
// response so API clients can send it as a Bearer token instead.
type SessionToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// NewSessionToken signs a session for userID valid for ttlMin minutes.  The
// claims carry the user id as the subject, a random token id (jti), the
// issue time and the expiry.
func NewSessionToken(secret string, userID uint64, ttlMin int) (SessionToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    jti, err := randomHex(16)
    if err != nil {
        return SessionToken{}, err
    }
    claims := jwt.RegisteredClaims{
        Subject:   strconv.FormatUint(userID, 10),
        ID:        jti,
        IssuedAt:  jwt.NewNumericDate(now),
        ExpiresAt: jwt.NewNumericDate(exp),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken verifies raw against secret and returns the user id it
// was issued for.  Only HMAC-signed tokens are accepted.
func ParseSessionToken(secret, raw string) (uint64, error) {
    var claims jwt.RegisteredClaims
    tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidSession
        }
        return []byte(secret), nil
    }, jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return 0, ErrInvalidSession
    }
    id, err := strconv.ParseUint(claims.Subject, 10, 64)
    if err != nil || id == 0 {
        return 0, ErrInvalidSession
    }
    return id, nil
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
