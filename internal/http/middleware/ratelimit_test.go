package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestKeyByClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	// Deterministic IP for ClientIP()
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")

	c, _ := gin.CreateTestContext(w)
	c.Request = req

	key := KeyByClientIP()(c)
	if !strings.HasPrefix(key, "ip:") || !strings.Contains(key, "203.0.113.9") {
		t.Fatalf("expected ip-based key; got %q", key)
	}
}

func TestNewRateLimiter_BurstCoercion_AndGetVisitorReuse(t *testing.T) {
	rl := NewRateLimiter(2.0, 0, KeyByClientIP()) // burst<=0 coerced to 1
	if rl.burst != 1 {
		t.Fatalf("burst coercion failed, got %d", rl.burst)
	}

	lim := rl.getVisitor("k1")
	if lim == nil {
		t.Fatalf("expected limiter")
	}
	// Second call reuses the same limiter instance
	if got := rl.getVisitor("k1"); got != lim {
		t.Fatalf("expected same limiter instance to be reused")
	}
}

func TestRateLimiter_getVisitor_GC(t *testing.T) {
	rl := NewRateLimiter(1.0, 1, KeyByClientIP())
	// Make TTL immediate so anything old gets evicted
	rl.ttl = 1 * time.Nanosecond

	// Seed an old visitor
	rl.mu.Lock()
	rl.visitors["old"] = &visitor{
		limiter:  rate.NewLimiter(1, 1),
		lastSeen: time.Now().Add(-time.Hour),
	}
	// Force cleanup to run on the next getVisitor
	rl.cleanupN = 4999
	rl.mu.Unlock()

	_ = rl.getVisitor("new")

	rl.mu.Lock()
	_, existsOld := rl.visitors["old"]
	_, existsNew := rl.visitors["new"]
	rl.mu.Unlock()

	if existsOld {
		t.Fatalf("expected 'old' visitor to be evicted by opportunistic GC")
	}
	if !existsNew {
		t.Fatalf("expected 'new' visitor to be created")
	}
}

func TestRateLimiter_Handler_AllowThenDeny(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// rps=1, burst=1 -> first immediate request allowed, second denied
	rl := NewRateLimiter(1.0, 1, KeyByClientIP())

	r := gin.New()
	// Set a request-id header like the real stack would, so the JSON has it
	r.Use(func(c *gin.Context) { c.Header("X-Request-ID", "rid-1"); c.Next() })
	r.Use(rl.Handler())
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w1.Code != http.StatusOK {
		t.Fatalf("first request should be allowed, got %d", w1.Code)
	}

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be rate-limited, got %d", w2.Code)
	}
	if got := w2.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After=1, got %q", got)
	}
	var body map[string]any
	if err := json.Unmarshal(w2.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["code"] != "rate_limited" || body["message"] != "rate limit exceeded" {
		t.Fatalf("unexpected JSON body: %v", body)
	}
}

func TestRateLimiter_Handler_SeparateClientsSeparateBuckets(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(1.0, 1, KeyByClientIP())
	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	send := func(ip string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.RemoteAddr = net.JoinHostPort(ip, "40000")
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("203.0.113.1"); code != http.StatusOK {
		t.Fatalf("first client first request = %d", code)
	}
	if code := send("203.0.113.1"); code != http.StatusTooManyRequests {
		t.Fatalf("first client second request = %d, want 429", code)
	}
	// A different client has its own bucket
	if code := send("203.0.113.2"); code != http.StatusOK {
		t.Fatalf("second client first request = %d, want 200", code)
	}
}
