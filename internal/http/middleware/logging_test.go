package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// captureLogger swaps the global logger for an in-memory buffer for the
// duration of the test.
func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

func loggedRouter(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	for _, mw := range extra {
		r.Use(mw)
	}
	return r
}

func doGet(r *gin.Engine, target string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := loggedRouter()
	r.GET("/health", func(c *gin.Context) {
		if v, ok := c.Get(requestIDKey); !ok || v == "" {
			t.Fatalf("request id missing from context")
		}
		c.String(http.StatusOK, "ok")
	})

	t.Run("generates when absent", func(t *testing.T) {
		w := doGet(r, "/health", nil)
		if w.Header().Get(requestIDHeader) == "" {
			t.Fatalf("expected generated %s header", requestIDHeader)
		}
	})

	t.Run("propagates lowercase header", func(t *testing.T) {
		w := doGet(r, "/health", map[string]string{strings.ToLower(requestIDHeader): "abc-123"})
		if got := w.Header().Get(requestIDHeader); got != "abc-123" {
			t.Fatalf("request id = %q; want abc-123", got)
		}
	})

	t.Run("propagates canonical header", func(t *testing.T) {
		w := doGet(r, "/health", map[string]string{requestIDHeader: "Z-REQ-123"})
		if got := w.Header().Get(requestIDHeader); got != "Z-REQ-123" {
			t.Fatalf("request id = %q; want Z-REQ-123", got)
		}
	})
}

func TestLogger_LevelsAndPathFallback(t *testing.T) {
	buf := captureLogger(t)
	r := loggedRouter(Logger())

	r.GET("/api/square", func(c *gin.Context) { c.String(http.StatusOK, "{}") })
	r.GET("/broken", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.Status(http.StatusBadRequest)
	})

	if w := doGet(r, "/api/square", nil); w.Code != http.StatusOK {
		t.Fatalf("GET /api/square -> %d", w.Code)
	}
	// Unmatched route: 404 logs at warn with the raw URL path.
	if w := doGet(r, "/nope", nil); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope -> %d", w.Code)
	}
	// A gin error on the context forces error level even for a 4xx.
	if w := doGet(r, "/broken", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("GET /broken -> %d", w.Code)
	}

	logs := buf.String()
	if !strings.Contains(logs, `"level":"info"`) || !strings.Contains(logs, `"path":"/api/square"`) {
		t.Fatalf("expected info log for matched route, got:\n%s", logs)
	}
	if !strings.Contains(logs, `"level":"warn"`) || !strings.Contains(logs, `"path":"/nope"`) {
		t.Fatalf("expected warn log with raw-path fallback, got:\n%s", logs)
	}
	if !strings.Contains(logs, `"level":"error"`) {
		t.Fatalf("expected error log, got:\n%s", logs)
	}
}

func TestRecovery(t *testing.T) {
	t.Run("panic before write yields JSON 500", func(t *testing.T) {
		buf := captureLogger(t)
		r := loggedRouter(Logger(), Recovery())
		r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

		w := doGet(r, "/boom", nil)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid json body: %v", err)
		}
		if body["code"] != "internal_error" || body["message"] != "internal server error" {
			t.Fatalf("unexpected body: %v", body)
		}
		if out := buf.String(); !strings.Contains(out, "panic recovered") {
			t.Fatalf("expected panic log, got:\n%s", out)
		}
	})

	t.Run("panic after write leaves the response alone", func(t *testing.T) {
		buf := captureLogger(t)
		r := loggedRouter(Logger(), Recovery())
		r.GET("/late", func(c *gin.Context) {
			c.String(http.StatusOK, "partial")
			panic("late kaboom")
		})

		w := doGet(r, "/late", nil)
		// The status may already be flushed; what matters is that no JSON
		// error body was appended to the partial response.
		if strings.Contains(w.Body.String(), "internal server error") ||
			strings.Contains(strings.ToLower(w.Header().Get("Content-Type")), "application/json") {
			t.Fatalf("unexpected JSON error after partial write: CT=%q body=%q",
				w.Header().Get("Content-Type"), w.Body.String())
		}
		if out := buf.String(); !strings.Contains(out, "panic recovered") {
			t.Fatalf("expected panic log, got:\n%s", out)
		}
	})
}

func TestLoggerFrom(t *testing.T) {
	t.Run("fallback without Logger installed", func(t *testing.T) {
		buf := captureLogger(t)
		r := loggedRouter()
		r.GET("/use", func(c *gin.Context) {
			LoggerFrom(c).Info().Msg("custom")
			c.Status(http.StatusOK)
		})
		doGet(r, "/use", nil)
		out := buf.String()
		if !strings.Contains(out, `"message":"custom"`) {
			t.Fatalf("expected custom log, got:\n%s", out)
		}
		if strings.Contains(out, `"request_id"`) {
			t.Fatalf("fallback logger should not carry request_id:\n%s", out)
		}
	})

	t.Run("request-scoped carries request_id", func(t *testing.T) {
		buf := captureLogger(t)
		r := loggedRouter(Logger())
		r.GET("/use", func(c *gin.Context) {
			LoggerFrom(c).Info().Msg("custom2")
			c.Status(http.StatusOK)
		})
		doGet(r, "/use", nil)
		out := buf.String()
		if !strings.Contains(out, `"message":"custom2"`) || !strings.Contains(out, `"request_id"`) {
			t.Fatalf("expected scoped log with request_id, got:\n%s", out)
		}
	})
}

func Test_asString(t *testing.T) {
	if asString("x") != "x" {
		t.Fatalf("asString(string) should pass through")
	}
	if asString(123) != "" || asString(nil) != "" {
		t.Fatalf("asString(non-string) should be empty")
	}
}

func Test_truncate(t *testing.T) {
	if truncate("hello", 10) != "hello" {
		t.Fatalf("short strings pass through")
	}
	if got := truncate("abcdefgh", 5); got != "abcde…" {
		t.Fatalf("truncate = %q; want %q", got, "abcde…")
	}
	if truncate("abc", 0) != "abc" {
		t.Fatalf("max <= 0 disables truncation")
	}
}
