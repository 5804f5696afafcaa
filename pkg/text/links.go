// Package text cleans and classifies the store links written to a catalog.
package text

import (
	"net/url"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"linkenricher/pkg/musiclink"
)

// trackingParams are stripped from every link; they identify the requester, not the release.
var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"si", "uo", "app", "at", "ct",
}

var providerDomains = map[musiclink.ProviderName]string{
	musiclink.Spotify:    "spotify.com",
	musiclink.Deezer:     "deezer.com",
	musiclink.AppleMusic: "apple.com",
}

// CleanLink trims, normalizes and strips tracking parameters from an http(s) link.
// Anything that is not an absolute http(s) URL with a host yields "".
func CleanLink(rawURL string) string {
	rawURL = norm.NFKC.String(strings.TrimSpace(rawURL))
	rawURL = strings.TrimRight(rawURL, ".,!?;")

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return ""
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}

	u.RawQuery = stripTracking(u.RawQuery)
	u.Fragment = ""

	return u.String()
}

// IsHTTPLink reports whether rawURL is an absolute http(s) URL with a host.
func IsHTTPLink(rawURL string) bool {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return false
	}
	u, err := url.Parse(rawURL)
	return err == nil && u.Host != ""
}

// stripTracking drops tracking pairs from a raw query. Every other pair is kept
// byte for byte and in order, so signed or ";"-carrying values survive.
func stripTracking(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	pairs := strings.Split(rawQuery, "&")
	kept := pairs[:0]
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		key, _, _ := strings.Cut(pair, "=")
		if unescaped, err := url.QueryUnescape(key); err == nil {
			key = unescaped
		}
		if slices.Contains(trackingParams, key) {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}

// ProviderOf reports which streaming provider serves rawURL, or "" when none does.
func ProviderOf(rawURL string) musiclink.ProviderName {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	hostname := strings.ToLower(u.Hostname())
	for provider, domain := range providerDomains {
		if hostname == domain || strings.HasSuffix(hostname, "."+domain) {
			return provider
		}
	}
	return ""
}

// BelongsTo reports whether rawURL is hosted by provider.
func BelongsTo(rawURL string, provider musiclink.ProviderName) bool {
	return ProviderOf(rawURL) == provider
}
