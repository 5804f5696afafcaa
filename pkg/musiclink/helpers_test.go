package musiclink

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingThrottle records how many calls were throttled.
type countingThrottle struct {
	mutex sync.Mutex
	calls int
}

func (c *countingThrottle) Pause(_ context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.calls++
	return nil
}

func (c *countingThrottle) Calls() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.calls
}

// writeJSON writes body with the given status.
func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestFetchJSON_StatusMapping(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantAuth      bool
		wantTransport bool
		wantStatus    int
	}{
		{name: "OK", status: http.StatusOK, body: `{"value":"x"}`},
		{name: "Unauthorized", status: http.StatusUnauthorized, body: `{}`, wantTransport: true, wantStatus: 401},
		{name: "Forbidden", status: http.StatusForbidden, body: `{}`, wantTransport: true, wantStatus: 403},
		{name: "Not found", status: http.StatusNotFound, body: `{}`, wantTransport: true, wantStatus: 404},
		{name: "Server error", status: http.StatusInternalServerError, body: `{}`, wantTransport: true, wantStatus: 500},
		{name: "Undecodable body", status: http.StatusOK, body: `<html>`, wantTransport: true, wantStatus: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "application/json", r.Header.Get("Accept"))
				writeJSON(w, tt.status, tt.body)
			}))
			defer srv.Close()

			throttle := &countingThrottle{}
			var dest struct {
				Value string `json:"value"`
			}
			err := fetchJSON(context.Background(), srv.Client(), throttle,
				apiRequest{provider: Deezer, op: "test", url: srv.URL}, &dest)

			assert.Equal(t, 1, throttle.Calls(), "every call is throttled exactly once")
			assert.Equal(t, tt.wantAuth, IsAuth(err))
			assert.Equal(t, tt.wantTransport, IsTransport(err))
			if !tt.wantAuth && !tt.wantTransport {
				require.NoError(t, err)
				assert.Equal(t, "x", dest.Value)
			}
			if tt.wantTransport {
				var transportErr *TransportError
				require.ErrorAs(t, err, &transportErr)
				assert.Equal(t, tt.wantStatus, transportErr.Status)
			}
		})
	}
}

func TestFetchJSON_ConnectionFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	unreachable := srv.URL
	srv.Close()

	throttle := &countingThrottle{}
	var dest map[string]interface{}
	err := fetchJSON(context.Background(), newHTTPClient(), throttle,
		apiRequest{provider: Spotify, op: "test", url: unreachable}, &dest)

	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Equal(t, 1, throttle.Calls())
}

func TestFetchJSON_ExtraHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Discogs token=abc", r.Header.Get("Authorization"))
		assert.Equal(t, "custom/1.0", r.Header.Get("User-Agent"))
		writeJSON(w, http.StatusOK, `{}`)
	}))
	defer srv.Close()

	var dest map[string]interface{}
	err := fetchJSON(context.Background(), srv.Client(), NoDelay{}, apiRequest{
		provider: Discogs,
		op:       "test",
		url:      srv.URL,
		header: http.Header{
			"Authorization": {"Discogs token=abc"},
			"User-Agent":    {"custom/1.0"},
		},
	}, &dest)
	require.NoError(t, err)
}
