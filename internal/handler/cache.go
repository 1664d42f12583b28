package handler

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ══════════════════════════════════════════════════════════════════════════════
// THE FLASH CACHE - In-Memory Response Caching
// ══════════════════════════════════════════════════════════════════════════════
//
// Key:   SHA256 of method, path and request body
// Value: the JSON body of a 200 response
// TTL:   5 minutes by default
//
// Generations are slow and billed per token, so an identical resubmission
// within the TTL is answered from memory.
//
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultCacheTTL is the default time-to-live for cache entries.
	DefaultCacheTTL = 5 * time.Minute

	// CleanupInterval is how often the cache cleaner runs.
	CleanupInterval = 1 * time.Minute

	// CachedPathPrefix marks the routes whose responses are cached.
	CachedPathPrefix = "/api/generate"
)

// CacheEntry represents a cached response with expiration time.
type CacheEntry struct {
	Response  []byte
	ExpireAt  time.Time
	CreatedAt time.Time
}

// FlashCache is a thread-safe in-memory cache for generation responses.
type FlashCache struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	hits   int64
	misses int64

	stop     chan struct{}
	stopOnce sync.Once
}

// FlashCacheOption is a functional option for configuring FlashCache.
type FlashCacheOption func(*FlashCache)

// WithCacheTTL sets a custom TTL for cache entries.
func WithCacheTTL(ttl time.Duration) FlashCacheOption {
	return func(c *FlashCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheLogger sets a custom logger.
func WithCacheLogger(logger *slog.Logger) FlashCacheOption {
	return func(c *FlashCache) {
		c.logger = logger
	}
}

// NewFlashCache creates a FlashCache and starts its cleanup goroutine.
// Call Close to stop it.
func NewFlashCache(opts ...FlashCacheOption) *FlashCache {
	c := &FlashCache{
		entries: make(map[string]*CacheEntry),
		ttl:     DefaultCacheTTL,
		logger:  slog.Default(),
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	go c.startCleanup()

	return c
}

// HashRequest derives the cache key of a request.
func HashRequest(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a live entry. Expired entries count as misses and are dropped.
func (c *FlashCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.now().After(entry.ExpireAt) {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}

	c.hits++
	return entry.Response, true
}

// Set stores a response in the cache with the configured TTL.
func (c *FlashCache) Set(key string, response []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = &CacheEntry{
		Response:  response,
		ExpireAt:  now.Add(c.ttl),
		CreatedAt: now,
	}
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *FlashCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *FlashCache) startCleanup() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

// cleanup removes all expired entries from the cache.
func (c *FlashCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expired := 0
	for key, entry := range c.entries {
		if now.After(entry.ExpireAt) {
			delete(c.entries, key)
			expired++
		}
	}

	if expired > 0 && c.logger != nil {
		c.logger.Debug("cache cleanup",
			slog.Int("expired_entries", expired),
			slog.Int("remaining_entries", len(c.entries)),
		)
	}
}

// Stats returns cache hit/miss statistics.
func (c *FlashCache) Stats() (hits, misses int64, size int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, len(c.entries)
}

// CacheHitNotifier is told about every cache hit. *ui.Console satisfies it.
type CacheHitNotifier interface {
	CacheHit(cacheKey string, latency time.Duration)
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// CacheMiddleware caches POST responses under CachedPathPrefix.
// Flow:
//  1. Hash method, path and body (SHA256)
//  2. HIT: replay the stored body
//  3. MISS: run the handler and keep the body if it answered 200
func CacheMiddleware(cache *FlashCache, logger *slog.Logger, notify CacheHitNotifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method != http.MethodPost || !strings.HasPrefix(path, CachedPathPrefix) {
			c.Next()
			return
		}

		start := time.Now()
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Next()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

		cacheKey := HashRequest(c.Request.Method, path, bodyBytes)

		if cached, found := cache.Get(cacheKey); found {
			latency := time.Since(start)
			if logger != nil {
				logger.Info("cache hit",
					slog.String("cache_key", cacheKey[:12]+"..."),
					slog.String("path", path),
					slog.Duration("latency", latency),
				)
			}
			if notify != nil {
				notify.CacheHit(cacheKey, latency)
			}

			c.Set(ctxCacheHit, true)
			c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			c.Abort()
			return
		}

		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer

		c.Next()

		if writer.Status() == http.StatusOK {
			cache.Set(cacheKey, writer.body.Bytes())

			if logger != nil {
				logger.Debug("response cached",
					slog.String("cache_key", cacheKey[:12]+"..."),
					slog.Int("size_bytes", writer.body.Len()),
				)
			}
		}
	}
}

// responseWriter wraps gin.ResponseWriter to capture the response body.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write captures the response body while writing to the original writer.
func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// WriteString keeps the capture working for handlers that write strings.
func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
