package translator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", "test-model", 1000, srv.Client(), zap.NewNop())
}

func TestTranslate_ChoicesShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" Bonjour "}}]}`))
	})

	out, err := c.Translate(context.Background(), "Hello", "fr", "en")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", out)
}

func TestTranslate_ContentBlockShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"text","text":"Hallo"}]}`))
	})

	out, err := c.Translate(context.Background(), "Hello", "de", "en")
	require.NoError(t, err)
	assert.Equal(t, "Hallo", out)
}

func TestTranslate_OutputTextShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"snake_case", `{"output_text":"Hola"}`, "Hola"},
		{"camelCase", `{"outputText":"Ciao"}`, "Ciao"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			})
			out, err := c.Translate(context.Background(), "Hello", "xx", "en")
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestTranslate_EmptyResponseIsBackendError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := c.Translate(context.Background(), "Hello", "fr", "en")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBackend))
	assert.False(t, errors.Is(err, ErrThrottled))
}

func TestTranslate_MalformedResponseIsBackendError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := c.Translate(context.Background(), "Hello", "fr", "en")
	assert.True(t, errors.Is(err, ErrBackend))
}

func TestTranslate_RateLimitIsThrottled(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusServiceUnavailable} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		_, err := c.Translate(context.Background(), "Hello", "fr", "en")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrThrottled), "status %d should classify as throttled", status)
	}
}

func TestTranslate_ServerErrorIsBackendError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom"}}`))
	})

	_, err := c.Translate(context.Background(), "Hello", "fr", "en")
	assert.True(t, errors.Is(err, ErrBackend))
}

func TestTranslate_APIErrorField(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"model overloaded"}}`))
	})

	_, err := c.Translate(context.Background(), "Hello", "fr", "en")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBackend))
	assert.Contains(t, err.Error(), "model overloaded")
}
