package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestBodySizeLimit_RejectsOversizedPayload(t *testing.T) {
	router := gin.New()
	router.POST("/", BodySizeLimit(16), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	body := bytes.NewBufferString(strings.Repeat("x", 64))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status 413, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "16 byte limit") {
		t.Errorf("expected limit in error body, got %s", w.Body.String())
	}
}

func TestBodySizeLimit_CapsReaderWithoutContentLength(t *testing.T) {
	router := gin.New()
	router.POST("/", BodySizeLimit(16), func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	// Chunked request: no Content-Length, so only the capped reader can stop it.
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)))
	req.ContentLength = -1
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status 413 for oversized chunked body, got %d", w.Code)
	}
}

func TestBodySizeLimit_PassesSmallPayload(t *testing.T) {
	router := gin.New()
	router.POST("/", BodySizeLimit(1024), func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, "%d", len(b))
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("hello"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "5" {
		t.Errorf("expected handler to read the full body, got %s", w.Body.String())
	}
}

func TestRateLimiter_FixedWindowQuota(t *testing.T) {
	router := gin.New()
	router.GET("/", RateLimiter(3), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 3; i++ {
		if code := do(); code != http.StatusOK {
			t.Fatalf("request %d: expected 200 within quota, got %d", i+1, code)
		}
	}
	if code := do(); code != http.StatusTooManyRequests {
		t.Errorf("expected 429 once the window quota is spent, got %d", code)
	}
}

func TestRateLimiter_IsolatesClients(t *testing.T) {
	router := gin.New()
	router.GET("/", RateLimiter(1), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	if code := do("10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("first client: expected 200, got %d", code)
	}
	if code := do("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Errorf("first client over quota: expected 429, got %d", code)
	}
	if code := do("10.0.0.2:1234"); code != http.StatusOK {
		t.Errorf("second client has its own window: expected 200, got %d", code)
	}
}
