package middleware

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type cacheEntry struct {
	Content     []byte
	ContentType string
	Expiration  time.Time
}

// ResponseCache keeps successful GET responses in memory. Responses of
// authenticated requests are never cached.
type ResponseCache struct {
	mu         sync.RWMutex
	items      map[string]cacheEntry
	expiration time.Duration
	now        func() time.Time
}

// NewResponseCache creates a cache whose entries live for expiration
func NewResponseCache(expiration time.Duration) *ResponseCache {
	if expiration <= 0 {
		expiration = time.Minute
	}
	return &ResponseCache{
		items:      make(map[string]cacheEntry),
		expiration: expiration,
		now:        time.Now,
	}
}

// cacheKey hashes the path and the sorted query string
func cacheKey(c *gin.Context) string {
	query := c.Request.URL.Query()
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(c.Request.URL.Path)
	b.WriteByte('?')
	for _, k := range keys {
		values := query[k]
		sort.Strings(values)
		for _, v := range values {
			b.WriteString(k + "=" + v + "&")
		}
	}
	sum := md5.Sum([]byte(b.String()))
	return c.Request.URL.Path + "#" + hex.EncodeToString(sum[:])
}

// Handler serves cached GET responses. A successful write request passing
// through the same handler empties the cache.
func (rc *ResponseCache) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			if c.Writer.Status() < http.StatusBadRequest {
				rc.Purge()
			}
			return
		}
		if c.GetHeader("Authorization") != "" {
			c.Next()
			return
		}

		key := cacheKey(c)
		rc.mu.RLock()
		entry, found := rc.items[key]
		rc.mu.RUnlock()

		if found && entry.Expiration.After(rc.now()) {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, entry.ContentType, entry.Content)
			c.Abort()
			return
		}

		writer := &responseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer
		c.Header("X-Cache", "MISS")
		c.Next()

		if writer.Status() == http.StatusOK {
			rc.mu.Lock()
			rc.cleanExpiredLocked()
			rc.items[key] = cacheEntry{
				Content:     writer.body.Bytes(),
				ContentType: writer.Header().Get("Content-Type"),
				Expiration:  rc.now().Add(rc.expiration),
			}
			rc.mu.Unlock()
		}
	}
}

// Purge clears every entry
func (rc *ResponseCache) Purge() {
	rc.mu.Lock()
	rc.items = make(map[string]cacheEntry)
	rc.mu.Unlock()
}

func (rc *ResponseCache) cleanExpiredLocked() {
	now := rc.now()
	for key, entry := range rc.items {
		if !entry.Expiration.After(now) {
			delete(rc.items, key)
		}
	}
}

// Len returns the number of entries, expired ones included
func (rc *ResponseCache) Len() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return len(rc.items)
}

// responseWriter copies the body while writing it through
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
