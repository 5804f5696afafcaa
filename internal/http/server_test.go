package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"linkenricher/internal/core"
	"linkenricher/internal/metrics"
)

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, http.NoBody)
	if err != nil {
		t.Fatalf("NewRequest() error: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, string(body)
}

func TestCreateHTTPServer(t *testing.T) {
	config := &core.ServerConfig{
		Addr:         "127.0.0.1:9090",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	mux := http.NewServeMux()
	server := createHTTPServer(config, mux)

	if server.Addr != config.Addr {
		t.Errorf("createHTTPServer() Addr = %q, expected %q", server.Addr, config.Addr)
	}
	if server.Handler != mux {
		t.Errorf("createHTTPServer() Handler mismatch")
	}
	if server.ReadTimeout != config.ReadTimeout {
		t.Errorf("createHTTPServer() ReadTimeout = %v, expected %v", server.ReadTimeout, config.ReadTimeout)
	}
	if server.WriteTimeout != config.WriteTimeout {
		t.Errorf("createHTTPServer() WriteTimeout = %v, expected %v", server.WriteTimeout, config.WriteTimeout)
	}
}

func TestRoutes(t *testing.T) {
	m := metrics.New()
	m.ReleaseDone(1, 3)
	s := NewServer(&core.ServerConfig{Addr: "127.0.0.1:0"}, m, zap.NewNop())

	ts := httptest.NewServer(s.server.Handler)
	defer ts.Close()

	resp, body := get(t, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/healthz returned status %d, expected %d", resp.StatusCode, http.StatusOK)
	}
	if contentType := resp.Header.Get("Content-Type"); contentType != "application/json" {
		t.Errorf("/healthz Content-Type = %q, expected application/json", contentType)
	}
	if !strings.Contains(body, `"ok"`) {
		t.Errorf("/healthz body = %q", body)
	}

	resp, _ = get(t, ts.URL+"/readyz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("/readyz before SetReady returned %d, expected %d", resp.StatusCode, http.StatusServiceUnavailable)
	}

	s.SetReady(true)
	resp, _ = get(t, ts.URL+"/readyz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/readyz after SetReady returned %d, expected %d", resp.StatusCode, http.StatusOK)
	}

	resp, body = get(t, ts.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/metrics returned status %d", resp.StatusCode)
	}
	if !strings.Contains(body, "linkenricher_releases_total 1") {
		t.Errorf("/metrics missing releases_total sample")
	}
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	s := NewServer(&core.ServerConfig{Addr: "127.0.0.1:0"}, metrics.New(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned %v after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
}
