package musiclink

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const defaultMusicBrainzBaseURL = "https://musicbrainz.org/ws/2"

type musicBrainzRecordingSearch struct {
	Count      int `json:"count"`
	Recordings []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Score int    `json:"score"`
	} `json:"recordings"`
}

// MusicBrainzSource lists recordings credited to an artist on a release.
type MusicBrainzSource struct {
	client    *http.Client
	throttle  Throttle
	baseURL   string
	userAgent string
}

// NewMusicBrainzSource creates a source against the public web service.
// MusicBrainz requires a meaningful User-Agent with contact information.
func NewMusicBrainzSource(userAgent string, throttle Throttle) *MusicBrainzSource {
	return NewMusicBrainzSourceWithBaseURL(userAgent, throttle, defaultMusicBrainzBaseURL)
}

// NewMusicBrainzSourceWithBaseURL creates a source with a custom base URL (for testing).
func NewMusicBrainzSourceWithBaseURL(userAgent string, throttle Throttle, baseURL string) *MusicBrainzSource {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &MusicBrainzSource{
		client:    newHTTPClient(),
		throttle:  throttle,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
	}
}

func (m *MusicBrainzSource) Name() ProviderName { return MusicBrainz }

// Tracks returns the titles of up to ten recordings matching artist and release.
func (m *MusicBrainzSource) Tracks(ctx context.Context, artist, album string) ([]string, error) {
	params := url.Values{
		"query": {fmt.Sprintf(`artist:"%s" AND release:"%s"`, luceneEscape(artist), luceneEscape(album))},
		"fmt":   {"json"},
		"limit": {strconv.Itoa(searchLimit)},
	}

	var resp musicBrainzRecordingSearch
	err := fetchJSON(ctx, m.client, m.throttle, apiRequest{
		provider: MusicBrainz,
		op:       "search recording",
		url:      m.baseURL + "/recording/?" + params.Encode(),
		header:   http.Header{"User-Agent": {m.userAgent}},
	}, &resp)
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(resp.Recordings))
	for _, recording := range resp.Recordings {
		titles = append(titles, recording.Title)
	}
	return titles, nil
}

// luceneEscape escapes characters that would end a quoted Lucene phrase.
func luceneEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
