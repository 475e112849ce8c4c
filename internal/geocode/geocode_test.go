package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "spx-val-test", nil)
	c.rateLimiter = rate.NewLimiter(rate.Inf, 1)
	return c
}

func TestReverse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"village and state", `{"address":{"village":"Lonavala","city":"Pune","state":"Maharashtra"}}`, "Lonavala, Maharashtra"},
		{"city only", `{"address":{"city":"Pune"}}`, "Pune"},
		{"state only", `{"address":{"state":"Goa"}}`, "Goa"},
		{"no address", `{"error":"Unable to geocode"}`, FallbackAddress},
		{"bad json", `{`, FallbackAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/reverse", r.URL.Path)
				assert.Equal(t, "json", r.URL.Query().Get("format"))
				assert.Equal(t, "18.5204", r.URL.Query().Get("lat"))
				assert.Equal(t, "73.8567", r.URL.Query().Get("lon"))
				assert.Equal(t, "spx-val-test", r.Header.Get("User-Agent"))
				w.Write([]byte(tt.body))
			})
			assert.Equal(t, tt.want, c.Reverse(context.Background(), 18.5204, 73.8567))
		})
	}
}

func TestReverse_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	assert.Equal(t, FallbackAddress, c.Reverse(context.Background(), 1, 2))
}

func TestReverse_RateLimited(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"address":{"town":"Alibag"}}`))
	})
	c.rateLimiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	assert.Equal(t, "Alibag", c.Reverse(context.Background(), 1, 2))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Equal(t, FallbackAddress, c.Reverse(ctx, 1, 2))
	require.Equal(t, 1, calls, "second lookup waits for a token instead of calling out")
}

func TestDisabled(t *testing.T) {
	var r Reverser = Disabled{}
	assert.Equal(t, FallbackAddress, r.Reverse(context.Background(), 1, 2))
}
