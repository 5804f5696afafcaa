package musiclink

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultDiscogsBaseURL = "https://api.discogs.com"
	// discogsTrackType marks real tracks in a tracklist, as opposed to headings and index entries.
	discogsTrackType = "track"
)

type discogsSearchResponse struct {
	Results []struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
		Type  string `json:"type"`
	} `json:"results"`
}

type discogsRelease struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Tracklist []struct {
		Position string `json:"position"`
		Title    string `json:"title"`
		Type     string `json:"type_"`
	} `json:"tracklist"`
}

// DiscogsSource lists the tracklist of the first Discogs release matching a search.
type DiscogsSource struct {
	client   *http.Client
	throttle Throttle
	baseURL  string
	token    string
}

// NewDiscogsSource creates a source authenticated with a personal access token.
func NewDiscogsSource(token string, throttle Throttle) *DiscogsSource {
	return NewDiscogsSourceWithBaseURL(token, throttle, defaultDiscogsBaseURL)
}

// NewDiscogsSourceWithBaseURL creates a source with a custom base URL (for testing).
func NewDiscogsSourceWithBaseURL(token string, throttle Throttle, baseURL string) *DiscogsSource {
	return &DiscogsSource{
		client:   newHTTPClient(),
		throttle: throttle,
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
	}
}

func (d *DiscogsSource) Name() ProviderName { return Discogs }

// Tracks searches releases by album and artist and returns the first hit's tracklist.
func (d *DiscogsSource) Tracks(ctx context.Context, artist, album string) ([]string, error) {
	if d.token == "" {
		return nil, &AuthError{Provider: Discogs, Cause: ErrMissingCredentials}
	}

	params := url.Values{
		"q":        {album},
		"artist":   {artist},
		"type":     {"release"},
		"per_page": {"5"},
	}

	var search discogsSearchResponse
	if err := d.get(ctx, "search release", "/database/search?"+params.Encode(), &search); err != nil {
		return nil, err
	}
	if len(search.Results) == 0 {
		return nil, nil
	}

	var release discogsRelease
	releasePath := "/releases/" + strconv.FormatInt(search.Results[0].ID, 10)
	if err := d.get(ctx, "release", releasePath, &release); err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(release.Tracklist))
	for _, track := range release.Tracklist {
		if track.Type != "" && track.Type != discogsTrackType {
			continue
		}
		titles = append(titles, track.Title)
	}
	return titles, nil
}

func (d *DiscogsSource) get(ctx context.Context, op, path string, dest interface{}) error {
	return fetchJSON(ctx, d.client, d.throttle, apiRequest{
		provider: Discogs,
		op:       op,
		url:      d.baseURL + path,
		header:   http.Header{"Authorization": {"Discogs token=" + d.token}},
	}, dest)
}
