package musiclink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// defaultUserAgent identifies this tool to public catalog APIs.
	defaultUserAgent = "linkenricher/1.0 (+https://github.com/linkenricher/linkenricher)"
	// defaultHTTPTimeout is the default timeout for HTTP requests.
	defaultHTTPTimeout = 10 * time.Second
	// maxHTTPRedirects is the maximum number of HTTP redirects to follow.
	maxHTTPRedirects = 3
	// maxResponseSize caps how much of a response body is decoded.
	maxResponseSize = 4 << 20
	// searchLimit is the number of results requested from search endpoints.
	searchLimit = 10
)

// newHTTPClient creates a new HTTP client with standard settings and redirect validation.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: defaultHTTPTimeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxHTTPRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}
}

// apiRequest describes one JSON GET against a provider.
type apiRequest struct {
	provider ProviderName
	op       string
	url      string
	header   http.Header
}

// fetchJSON performs the request, pauses on the throttle whatever the outcome,
// and decodes a 2xx body into dest. Every failure, 401 and 403 included, becomes
// a *TransportError carrying the status; only Authenticate reports *AuthError.
func fetchJSON(ctx context.Context, client *http.Client, throttle Throttle, r apiRequest, dest interface{}) error {
	defer func() {
		_ = throttle.Pause(ctx)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, http.NoBody)
	if err != nil {
		return &TransportError{Provider: r.provider, Op: r.op, Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)
	for key, values := range r.header {
		for _, value := range values {
			req.Header.Set(key, value)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return &TransportError{Provider: r.provider, Op: r.op, Cause: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{
			Provider: r.provider,
			Op:       r.op,
			Status:   resp.StatusCode,
			Cause:    fmt.Errorf("%s returned status %d", r.provider, resp.StatusCode),
		}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(dest); err != nil {
		return &TransportError{
			Provider: r.provider,
			Op:       r.op,
			Status:   resp.StatusCode,
			Cause:    fmt.Errorf("failed to decode response: %w", err),
		}
	}

	return nil
}
