package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// ============================================================================
// FLASH CACHE UNIT TESTS
// ============================================================================

func TestHashRequest(t *testing.T) {
	body := []byte(`{"requirements":["Users can log in"],"apiConfig":{"provider":"openai"}}`)

	hash1 := HashRequest(http.MethodPost, "/api/generate", body)
	hash2 := HashRequest(http.MethodPost, "/api/generate", body)
	if hash1 != hash2 {
		t.Errorf("Expected consistent hash, got %s != %s", hash1, hash2)
	}
	if len(hash1) != 64 {
		t.Errorf("Expected 64 hex characters, got %d", len(hash1))
	}

	if HashRequest(http.MethodPost, "/api/generate/srs", body) == hash1 {
		t.Error("Expected the path to change the hash")
	}
	if HashRequest(http.MethodPost, "/api/generate", []byte(`{"requirements":["other"]}`)) == hash1 {
		t.Error("Expected the body to change the hash")
	}

	// The separator keeps "ab"+"c" apart from "a"+"bc".
	if HashRequest("POST", "/ab", []byte("c")) == HashRequest("POST", "/a", []byte("bc")) {
		t.Error("Expected path and body boundaries to be unambiguous")
	}
}

func TestFlashCacheGetSet(t *testing.T) {
	cache := NewFlashCache()
	defer cache.Close()

	key := "test-key-123"
	value := []byte(`{"srs":"# SRS"}`)

	if _, found := cache.Get(key); found {
		t.Errorf("Expected cache miss for new key")
	}

	cache.Set(key, value)

	cached, found := cache.Get(key)
	if !found {
		t.Fatalf("Expected cache hit after set")
	}
	if string(cached) != string(value) {
		t.Errorf("Expected cached value to match, got %s", string(cached))
	}
}

func TestFlashCacheExpiration(t *testing.T) {
	cache := NewFlashCache(WithCacheTTL(time.Minute))
	defer cache.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Set("expiring-key", []byte(`{"expires":"soon"}`))

	if _, found := cache.Get("expiring-key"); !found {
		t.Errorf("Expected cache hit immediately after set")
	}

	now = now.Add(61 * time.Second)

	if _, found := cache.Get("expiring-key"); found {
		t.Errorf("Expected cache miss after TTL expiration")
	}
	if _, _, size := cache.Stats(); size != 0 {
		t.Errorf("Expected expired entry to be dropped, size=%d", size)
	}
}

func TestFlashCacheCleanup(t *testing.T) {
	cache := NewFlashCache(WithCacheTTL(time.Minute))
	defer cache.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Set("old", []byte("1"))
	now = now.Add(30 * time.Second)
	cache.Set("new", []byte("2"))
	now = now.Add(45 * time.Second)

	cache.cleanup()

	if _, _, size := cache.Stats(); size != 1 {
		t.Fatalf("Expected one surviving entry, got %d", size)
	}
	if _, found := cache.Get("new"); !found {
		t.Error("Expected the newer entry to survive cleanup")
	}
}

func TestFlashCacheStats(t *testing.T) {
	cache := NewFlashCache()
	defer cache.Close()

	hits, misses, size := cache.Stats()
	if hits != 0 || misses != 0 || size != 0 {
		t.Errorf("Expected empty stats, got hits=%d misses=%d size=%d", hits, misses, size)
	}

	cache.Get("nonexistent")
	cache.Set("key1", []byte("value1"))
	cache.Get("key1")

	hits, misses, size = cache.Stats()
	if hits != 1 || misses != 1 || size != 1 {
		t.Errorf("Expected hits=1 misses=1 size=1, got hits=%d misses=%d size=%d", hits, misses, size)
	}
}

func TestFlashCacheCloseTwice(t *testing.T) {
	cache := NewFlashCache()
	cache.Close()
	cache.Close()
}

func TestFlashCacheConcurrency(t *testing.T) {
	cache := NewFlashCache()
	defer cache.Close()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if id%2 == 0 {
				cache.Set("concurrent-key", []byte(`{"id":"test"}`))
			} else {
				cache.Get("concurrent-key")
			}
		}(i)
	}
	wg.Wait()
}

// ============================================================================
// CACHE MIDDLEWARE TESTS
// ============================================================================

type hitCounter struct {
	mu   sync.Mutex
	hits int
}

func (h *hitCounter) CacheHit(string, time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits++
}

func cachedRouter(cache *FlashCache, notify CacheHitNotifier, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CacheMiddleware(cache, slog.New(slog.NewTextHandler(io.Discard, nil)), notify))

	handle := func(c *gin.Context) {
		*calls++
		body, _ := io.ReadAll(c.Request.Body)
		if strings.Contains(string(body), "fail") {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Generation failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"call": *calls})
	}
	r.POST("/api/generate", handle)
	r.POST("/api/generate/srs", handle)
	r.POST("/api/test-provider", handle)
	return r
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCacheMiddlewareReplaysIdenticalRequest(t *testing.T) {
	cache := NewFlashCache()
	defer cache.Close()
	notify := &hitCounter{}
	calls := 0
	r := cachedRouter(cache, notify, &calls)

	first := post(r, "/api/generate", `{"requirements":["a"]}`)
	second := post(r, "/api/generate", `{"requirements":["a"]}`)

	if calls != 1 {
		t.Errorf("Expected the handler to run once, ran %d times", calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("Expected identical bodies, got %q and %q", first.Body.String(), second.Body.String())
	}
	if notify.hits != 1 {
		t.Errorf("Expected one cache hit notification, got %d", notify.hits)
	}

	post(r, "/api/generate/srs", `{"requirements":["a"]}`)
	if calls != 2 {
		t.Errorf("Expected a different path to miss, calls=%d", calls)
	}
}

func TestCacheMiddlewareSkipsFailuresAndOtherRoutes(t *testing.T) {
	cache := NewFlashCache()
	defer cache.Close()
	calls := 0
	r := cachedRouter(cache, nil, &calls)

	post(r, "/api/generate", `{"fail":true}`)
	post(r, "/api/generate", `{"fail":true}`)
	if calls != 2 {
		t.Errorf("Expected failed responses not to be cached, calls=%d", calls)
	}

	post(r, "/api/test-provider", `{}`)
	post(r, "/api/test-provider", `{}`)
	if calls != 4 {
		t.Errorf("Expected routes outside /api/generate to bypass the cache, calls=%d", calls)
	}
}
