package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/lightbnb/internal/config"
)

// ResponseCache stores successful responses in Redis, keyed per route so
// that a write can drop every cached variant of that route.  Each route
// also has a generation counter that is part of every key; invalidation
// bumps it, so a response computed before a write and stored after it is
// never served.  A nil *ResponseCache, or one without a Redis client,
// caches nothing.
type ResponseCache struct {
    cfg config.CacheConfig
    rdb *redis.Client
}

// NewResponseCache returns a cache over rdb.  rdb may be nil.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client) *ResponseCache {
    if cfg.TTL <= 0 {
        cfg.TTL = 30 * time.Second
    }
    return &ResponseCache{cfg: cfg, rdb: rdb}
}

func (rc *ResponseCache) active() bool {
    return rc != nil && rc.cfg.Enabled && rc.rdb != nil
}

// captureWriter forwards the response to the client while keeping up to
// limit bytes of the body (limit <= 0 keeps everything).
type captureWriter struct {
    http.ResponseWriter
    status    int
    buf       bytes.Buffer
    limit     int64
    truncated bool
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
    if !cw.truncated {
        if cw.limit > 0 && int64(cw.buf.Len()+len(b)) > cw.limit {
            cw.truncated = true
            cw.buf.Reset()
        } else {
            cw.buf.Write(b)
        }
    }
    return cw.ResponseWriter.Write(b)
}

// routePrefix is the namespace holding every cached entry of route.
func (rc *ResponseCache) routePrefix(route string) string {
    return rc.cfg.Prefix + ":route:" + route + ":"
}

// genKey holds the generation counter of route.  It lives outside the route
// namespace so invalidation's SCAN never removes it.
func (rc *ResponseCache) genKey(route string) string {
    return rc.cfg.Prefix + ":gen:" + route
}

// generation reads the current generation of route; a missing counter is 0.
func (rc *ResponseCache) generation(ctx context.Context, route string) (int64, error) {
    gen, err := rc.rdb.Get(ctx, rc.genKey(route)).Int64()
    if errors.Is(err, redis.Nil) {
        return 0, nil
    }
    return gen, err
}

// keyFor builds a stable key under the route namespace for generation gen;
// the variant part depends on the configured strategy.
func (rc *ResponseCache) keyFor(c echo.Context, gen int64) string {
    r := c.Request()
    var variant string
    switch strings.ToLower(rc.cfg.KeyStrategy) {
    case "route":
        variant = ""
    case "method_route":
        variant = r.Method
    case "method_route_query":
        variant = r.Method + "?" + r.URL.RawQuery
    default: // "route_query"
        variant = r.URL.RawQuery
    }
    sum := sha1.Sum([]byte(variant))
    return fmt.Sprintf("%sg%d:%x", rc.routePrefix(c.Path()), gen, sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8+len(hdrJSON)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if hlen < 0 || 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    header = make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, header, bs[8+hlen:], true
}

// Middleware serves cached 200 responses for the configured methods and
// records fresh ones.  Responses are marked with X-Cache: HIT or MISS.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
    if !rc.active() {
        return passThrough
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !rc.cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            ctx := c.Request().Context()
            gen, err := rc.generation(ctx, c.Path())
            if err != nil {
                c.Logger().Warnf("[cache] generation %s: %v", c.Path(), err)
                return next(c)
            }
            key := rc.keyFor(c, gen)

            if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    for k, vals := range hdr {
                        if strings.EqualFold(k, "Content-Length") || strings.EqualFold(k, "X-Cache") {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    _, _ = c.Response().Write(body)
                    return nil
                }
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(rc.cfg.MaxBodyBytes)}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.truncated {
                return nil
            }
            hdr := c.Response().Header().Clone()
            if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
                if err := rc.rdb.Set(context.Background(), key, payload, rc.cfg.TTL).Err(); err != nil {
                    c.Logger().Warnf("[cache] store %s: %v", key, err)
                }
            }
            return nil
        }
    }
}

// InvalidateRoute retires the current generation of route (an Echo path
// such as "/properties") and deletes its cached responses.  It is a no-op
// when caching is inactive.
func (rc *ResponseCache) InvalidateRoute(ctx context.Context, route string) error {
    if !rc.active() {
        return nil
    }
    if err := rc.rdb.Incr(ctx, rc.genKey(route)).Err(); err != nil {
        return err
    }
    iter := rc.rdb.Scan(ctx, 0, rc.routePrefix(route)+"*", 100).Iterator()
    var keys []string
    for iter.Next(ctx) {
        keys = append(keys, iter.Val())
    }
    if err := iter.Err(); err != nil {
        return err
    }
    if len(keys) == 0 {
        return nil
    }
    return rc.rdb.Del(ctx, keys...).Err()
}
