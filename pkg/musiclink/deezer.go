package musiclink

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	defaultDeezerBaseURL = "https://api.deezer.com"
	// deezerNoDataCode is the error code Deezer answers with when a search has no hits.
	deezerNoDataCode = 800
)

// deezerError is the error envelope Deezer returns with HTTP 200.
type deezerError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type deezerArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Link string `json:"link"`
}

type deezerAlbum struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Link        string       `json:"link"`
	ReleaseDate string       `json:"release_date"`
	Artist      deezerArtist `json:"artist"`
}

type deezerTrack struct {
	ID      int64        `json:"id"`
	Title   string       `json:"title"`
	Link    string       `json:"link"`
	Preview string       `json:"preview"`
	Artist  deezerArtist `json:"artist"`
	Album   deezerAlbum  `json:"album"`
}

type deezerAlbumSearch struct {
	Data  []deezerAlbum `json:"data"`
	Error *deezerError  `json:"error"`
}

type deezerTrackSearch struct {
	Data  []deezerTrack `json:"data"`
	Error *deezerError  `json:"error"`
}

type deezerArtistSearch struct {
	Data  []deezerArtist `json:"data"`
	Error *deezerError   `json:"error"`
}

type deezerAlbumDetail struct {
	ID     int64 `json:"id"`
	Tracks struct {
		Data []deezerTrack `json:"data"`
	} `json:"tracks"`
	Error *deezerError `json:"error"`
}

// DeezerClient talks to Deezer's public API. No credential is needed.
type DeezerClient struct {
	client   *http.Client
	throttle Throttle
	baseURL  string
}

// NewDeezerClient creates a Deezer client against the public API.
func NewDeezerClient(throttle Throttle) *DeezerClient {
	return NewDeezerClientWithBaseURL(throttle, defaultDeezerBaseURL)
}

// NewDeezerClientWithBaseURL creates a Deezer client with a custom base URL (for testing).
func NewDeezerClientWithBaseURL(throttle Throttle, baseURL string) *DeezerClient {
	return &DeezerClient{
		client:   newHTTPClient(),
		throttle: throttle,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

func (d *DeezerClient) Name() ProviderName { return Deezer }

// Authenticate is a no-op; the public API is anonymous.
func (d *DeezerClient) Authenticate(_ context.Context) error { return nil }

// SearchAlbum returns albums newest first, as Deezer's relevance order tends to
// surface compilations ahead of the original release.
func (d *DeezerClient) SearchAlbum(ctx context.Context, artist, album string) ([]Candidate, error) {
	query := album
	if artist != "" {
		query = fmt.Sprintf("artist:'%s' album:'%s'", artist, album)
	}

	var resp deezerAlbumSearch
	if err := d.get(ctx, "search album", "/search/album", url.Values{"q": {query}}, &resp); err != nil {
		return nil, err
	}
	if err := d.checkEnvelope("search album", resp.Error); err != nil {
		return nil, err
	}

	albums := resp.Data
	sort.SliceStable(albums, func(i, j int) bool {
		return albums[i].ReleaseDate > albums[j].ReleaseDate
	})

	candidates := make([]Candidate, 0, len(albums))
	for _, a := range albums {
		candidates = append(candidates, Candidate{
			ID:          strconv.FormatInt(a.ID, 10),
			Title:       a.Title,
			Artist:      a.Artist.Name,
			ReleaseDate: a.ReleaseDate,
			URL:         a.Link,
		})
	}
	return candidates, nil
}

func (d *DeezerClient) ListAlbumTracks(ctx context.Context, albumID string) ([]string, error) {
	tracks, err := d.albumTracks(ctx, albumID)
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(tracks))
	for _, track := range tracks {
		titles = append(titles, track.Title)
	}
	return titles, nil
}

func (d *DeezerClient) FindAlbumPreview(ctx context.Context, albumID string) (string, error) {
	tracks, err := d.albumTracks(ctx, albumID)
	if err != nil {
		return "", err
	}

	for _, track := range tracks {
		if track.Preview != "" {
			return track.Preview, nil
		}
	}
	return "", nil
}

func (d *DeezerClient) SearchTrack(ctx context.Context, artist, title string) (*Candidate, error) {
	query := fmt.Sprintf("artist:'%s' track:'%s'", artist, title)

	var resp deezerTrackSearch
	if err := d.get(ctx, "search track", "/search/track", url.Values{"q": {query}}, &resp); err != nil {
		return nil, err
	}
	if err := d.checkEnvelope("search track", resp.Error); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}

	track := resp.Data[0]
	return &Candidate{
		ID:         strconv.FormatInt(track.ID, 10),
		Title:      track.Title,
		Artist:     track.Artist.Name,
		URL:        track.Link,
		PreviewURL: track.Preview,
	}, nil
}

func (d *DeezerClient) SearchArtist(ctx context.Context, artist string) (*Candidate, error) {
	var resp deezerArtistSearch
	if err := d.get(ctx, "search artist", "/search/artist", url.Values{"q": {artist}}, &resp); err != nil {
		return nil, err
	}
	if err := d.checkEnvelope("search artist", resp.Error); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}

	found := resp.Data[0]
	return &Candidate{
		ID:    strconv.FormatInt(found.ID, 10),
		Title: found.Name,
		URL:   found.Link,
	}, nil
}

func (d *DeezerClient) albumTracks(ctx context.Context, albumID string) ([]deezerTrack, error) {
	var resp deezerAlbumDetail
	if err := d.get(ctx, "album", "/album/"+url.PathEscape(albumID), nil, &resp); err != nil {
		return nil, err
	}
	if err := d.checkEnvelope("album", resp.Error); err != nil {
		return nil, err
	}
	return resp.Tracks.Data, nil
}

func (d *DeezerClient) get(ctx context.Context, op, path string, params url.Values, dest interface{}) error {
	reqURL := d.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	return fetchJSON(ctx, d.client, d.throttle, apiRequest{provider: Deezer, op: op, url: reqURL}, dest)
}

// checkEnvelope turns a Deezer error envelope into a TransportError. "No data" is an empty result.
func (d *DeezerClient) checkEnvelope(op string, e *deezerError) error {
	if e == nil || e.Code == deezerNoDataCode {
		return nil
	}
	return &TransportError{
		Provider: Deezer,
		Op:       op,
		Cause:    fmt.Errorf("%s (code %d): %s", e.Type, e.Code, e.Message),
	}
}
