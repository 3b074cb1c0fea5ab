package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/tidyhome/booking-api/internal/config"
)

// cachedResponse is the JSON-encoded payload stored in Redis for a cached
// public catalog response.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// captureWriter records the response body and status while forwarding to
// the client, up to a configurable size limit.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 || cw.size+int64(len(b)) <= cw.limit {
		cw.buf.Write(b)
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// ResponseCache serves public GET responses from Redis. Only 200 responses
// within the body limit are stored. With a nil client it is a no-op.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			key := cacheKey(cfg, c)
			ctx := c.Request().Context()

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var cached cachedResponse
				if json.Unmarshal(bs, &cached) == nil {
					c.Response().Header().Set(echo.HeaderContentType, cached.ContentType)
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(cached.Status)
					_, _ = c.Response().Write(cached.Body)
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(cfg.MaxBodyBytes)}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if cw.status == http.StatusOK && (cw.limit <= 0 || cw.size <= cw.limit) {
				payload, err := json.Marshal(cachedResponse{
					Status:      cw.status,
					ContentType: c.Response().Header().Get(echo.HeaderContentType),
					Body:        cw.buf.Bytes(),
				})
				if err == nil {
					_ = rdb.SetEx(context.Background(), key, payload, cfg.TTL).Err()
				}
			}
			return nil
		}
	}
}

// CacheBust invalidates cached catalog reads after a successful write. It
// drops the collection entry for listPath plus the entry for the request's
// own path, so an update or delete of /services/:id clears both the list
// and that detail. Query-string variants are left to expire by TTL.
func CacheBust(cfg config.CacheConfig, rdb *redis.Client, listPath string) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				return err
			}
			if c.Response().Status < http.StatusBadRequest {
				keys := []string{
					keyFor(cfg, http.MethodGet, listPath, ""),
					keyFor(cfg, http.MethodGet, c.Request().URL.Path, ""),
				}
				_ = rdb.Del(context.Background(), keys...).Err()
			}
			return nil
		}
	}
}

// The key hashes the concrete URL path, not the route pattern, so each
// catalog entry caches separately.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	return keyFor(cfg, r.Method, r.URL.Path, r.URL.RawQuery)
}

func keyFor(cfg config.CacheConfig, method, path, query string) string {
	sum := sha1.Sum([]byte(method + ":" + path + "?" + query))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}
