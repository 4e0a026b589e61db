package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// CacheHeader reports whether a response was served from the cache.
const CacheHeader = "X-Cache"

type storedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

// recorder tees everything the handler writes into buf.
type recorder struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (r *recorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *recorder) WriteString(s string) (int, error) {
	r.buf.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}

// Cache keeps successful GET responses in memory, keyed by request URI.
// Only mount it on routes whose payload never changes once produced.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if hit, ok := store.Get(key); ok {
			replay(c, hit.(storedResponse))
			return
		}

		c.Writer.Header().Set(CacheHeader, "MISS")
		rec := &recorder{ResponseWriter: c.Writer, buf: new(bytes.Buffer)}
		c.Writer = rec

		c.Next()

		status := rec.Status()
		if status < 200 || status >= 300 {
			return
		}
		headers := rec.Header().Clone()
		headers.Del(CacheHeader)
		headers.Del(RequestIDHeader)
		store.Set(key, storedResponse{status: status, headers: headers, body: rec.buf.Bytes()}, ttl)
	}
}

func replay(c *gin.Context, resp storedResponse) {
	h := c.Writer.Header()
	for k, v := range resp.headers {
		h[k] = v
	}
	h.Set(CacheHeader, "HIT")
	c.Writer.WriteHeader(resp.status)
	_, _ = c.Writer.Write(resp.body)
	c.Abort()
}
