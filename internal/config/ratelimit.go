package config

import "time"

// RateLimitConfig drives the token bucket on the endpoints that create
// state: POST /users, POST /users/login, POST /properties and
// POST /reservations.  Reads are never limited.
//
// A bucket holds Capacity tokens and regains RefillTokens every
// RefillInterval; each request spends one.  With the defaults a client may
// burst 30 sign-up or login attempts and then settle at one every two
// seconds, which keeps password guessing against /users/login slow.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration

    // TTL expires idle buckets in Redis.  It never drops below the time an
    // empty bucket needs to refill, or an idle client would get a fresh
    // bucket early.
    TTL time.Duration

    // KeyStrategy picks what a bucket is shared by: any of ip, user and
    // route joined by "_" (for example "ip_route").  Guests registering or
    // logging in have no session yet and are keyed as anonymous users.
    KeyStrategy string
    Prefix      string

    // Debug exposes the bucket key in an X-RateLimit-Key response header.
    Debug bool
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  RATE_LIMIT_BURST is an
// alias for RATE_LIMIT_CAPACITY and wins when both are set.
func LoadRateLimitConfig() RateLimitConfig {
    capacity := envInt("RATE_LIMIT_CAPACITY", 30)
    if burst := envInt("RATE_LIMIT_BURST", 0); burst > 0 {
        capacity = burst
    }
    return RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       capacity,
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 2*time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "lightbnb:rl"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }.normalized()
}

// normalized clamps values the bucket script cannot work with.
func (c RateLimitConfig) normalized() RateLimitConfig {
    c.Capacity = max(c.Capacity, 1)
    c.RefillTokens = max(c.RefillTokens, 1)
    if c.RefillInterval <= 0 {
        c.RefillInterval = time.Second
    }
    refill := time.Duration(c.Capacity/c.RefillTokens+1) * c.RefillInterval
    c.TTL = max(c.TTL, refill)
    return c
}
