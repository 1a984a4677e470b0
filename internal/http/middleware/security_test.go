package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// securityRouter builds a minimal router with the given options and an
// optional pre-middleware run before SecurityHeaders.
func securityRouter(opt SecurityOptions, pre gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if pre != nil {
		r.Use(pre)
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func serveHealth(r *gin.Engine, mutate func(*http.Request)) http.Header {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	if mutate != nil {
		mutate(req)
	}
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_Defaults(t *testing.T) {
	t.Run("baseline only, expose request id", func(t *testing.T) {
		r := securityRouter(SecurityOptions{}, func(c *gin.Context) {
			c.Header("X-Request-ID", "rid-123")
			c.Next()
		})
		h := serveHealth(r, nil)

		if h.Get("X-Content-Type-Options") != "nosniff" ||
			h.Get("X-Frame-Options") != "DENY" ||
			h.Get("Referrer-Policy") != "no-referrer" {
			t.Fatalf("baseline headers missing: %#v", h)
		}
		for _, name := range []string{
			"Permissions-Policy", "X-Permitted-Cross-Domain-Policies",
			"Cache-Control", "Pragma", "Expires",
			"Strict-Transport-Security",
		} {
			if h.Get(name) != "" {
				t.Fatalf("%s should not be set by default: %q", name, h.Get(name))
			}
		}
		if got := h.Get("Access-Control-Expose-Headers"); got != "X-Request-ID" {
			t.Fatalf("expected expose header X-Request-ID, got %q", got)
		}
	})

	t.Run("appends to an existing expose header", func(t *testing.T) {
		r := securityRouter(SecurityOptions{}, func(c *gin.Context) {
			c.Header("X-Request-ID", "rid-abc")
			c.Header("Access-Control-Expose-Headers", "Content-Length")
			c.Next()
		})
		if got := serveHealth(r, nil).Get("Access-Control-Expose-Headers"); got != "Content-Length, X-Request-ID" {
			t.Fatalf("expected appended expose header, got %q", got)
		}
	})

	t.Run("does not duplicate X-Request-ID", func(t *testing.T) {
		r := securityRouter(SecurityOptions{}, func(c *gin.Context) {
			c.Header("X-Request-ID", "rid-xyz")
			c.Header("Access-Control-Expose-Headers", "X-Request-ID, Content-Length")
			c.Next()
		})
		if got := serveHealth(r, nil).Get("Access-Control-Expose-Headers"); got != "X-Request-ID, Content-Length" {
			t.Fatalf("expected unchanged expose header, got %q", got)
		}
	})
}

func TestSecurityHeaders_AllOptionsOverTLS(t *testing.T) {
	r := securityRouter(SecurityOptions{
		EnableHSTS:   true,
		HSTSMaxAge:   24 * time.Hour,
		NoStore:      true,
		EnablePolicy: true,
	}, nil)
	h := serveHealth(r, func(req *http.Request) {
		req.TLS = &tls.ConnectionState{}
	})

	if h.Get("Permissions-Policy") == "" || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("policy headers missing: %#v", h)
	}
	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
		t.Fatalf("cache headers missing: %#v", h)
	}
	want := "max-age=86400; includeSubDomains; preload"
	if got := h.Get("Strict-Transport-Security"); got != want {
		t.Fatalf("HSTS: got %q want %q", got, want)
	}
}

func TestSecurityHeaders_HSTSBehindProxy(t *testing.T) {
	r := securityRouter(SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour}, nil)
	h := serveHealth(r, func(req *http.Request) {
		req.Header.Set("X-Forwarded-Proto", "https")
	})
	if got := h.Get("Strict-Transport-Security"); !strings.HasPrefix(got, "max-age=3600") {
		t.Fatalf("expected HSTS via forwarded proto, got %q", got)
	}
}

func TestSecurityHeaders_NoHSTSOverPlainHTTP(t *testing.T) {
	r := securityRouter(SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour}, nil)
	if got := serveHealth(r, nil).Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("HSTS must not be sent over plain HTTP, got %q", got)
	}
}

func Test_isHTTPS(t *testing.T) {
	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTTPS(plain) {
		t.Fatalf("plain HTTP should not count as https")
	}

	tlsReq := httptest.NewRequest(http.MethodGet, "/", nil)
	tlsReq.TLS = &tls.ConnectionState{}
	if !isHTTPS(tlsReq) {
		t.Fatalf("TLS request should count as https")
	}

	fwd := httptest.NewRequest(http.MethodGet, "/", nil)
	fwd.Header.Set("X-Forwarded-Proto", "HTTPS")
	if !isHTTPS(fwd) {
		t.Fatalf("forwarded-proto https should count as https")
	}
}
