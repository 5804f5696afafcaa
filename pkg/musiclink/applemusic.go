package musiclink

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

const (
	// defaultAppleMusicBaseURL is the Apple Music API root.
	defaultAppleMusicBaseURL = "https://api.music.apple.com/v1"
	// DefaultAppleMusicStorefront is the catalog storefront searched when none is configured.
	DefaultAppleMusicStorefront = "us"
)

// AppleMusicOptions configures an AppleMusicClient.
type AppleMusicOptions struct {
	KeyID      string
	TeamID     string
	PrivateKey []byte // PEM-encoded .p8 key.
	Storefront string
	BaseURL    string
}

type appleSearchResponse struct {
	Results struct {
		Albums  *appleResourcePage `json:"albums"`
		Songs   *appleResourcePage `json:"songs"`
		Artists *appleResourcePage `json:"artists"`
	} `json:"results"`
}

type appleResourcePage struct {
	Data []appleResource `json:"data"`
}

type appleResource struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes appleAttributes `json:"attributes"`
}

type appleAttributes struct {
	Name        string         `json:"name"`
	ArtistName  string         `json:"artistName"`
	AlbumName   string         `json:"albumName"`
	ReleaseDate string         `json:"releaseDate"`
	URL         string         `json:"url"`
	Previews    []applePreview `json:"previews"`
}

type applePreview struct {
	URL string `json:"url"`
}

func (a appleAttributes) previewURL() string {
	for _, p := range a.Previews {
		if p.URL != "" {
			return p.URL
		}
	}
	return ""
}

// AppleMusicClient searches the Apple Music catalog with a self-signed developer token.
type AppleMusicClient struct {
	options  AppleMusicOptions
	client   *http.Client
	throttle Throttle
	signer   *DeveloperTokenSigner
	baseURL  string
}

// NewAppleMusicClient creates an Apple Music client. Call Authenticate before searching.
func NewAppleMusicClient(options AppleMusicOptions, throttle Throttle) *AppleMusicClient {
	if options.Storefront == "" {
		options.Storefront = DefaultAppleMusicStorefront
	}
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = defaultAppleMusicBaseURL
	}
	return &AppleMusicClient{
		options:  options,
		client:   newHTTPClient(),
		throttle: throttle,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

func (c *AppleMusicClient) Name() ProviderName { return AppleMusic }

// Authenticate signs a developer token and checks it against the storefront endpoint.
func (c *AppleMusicClient) Authenticate(ctx context.Context) error {
	if c.options.KeyID == "" || c.options.TeamID == "" || len(c.options.PrivateKey) == 0 {
		return &AuthError{Provider: AppleMusic, Cause: ErrMissingCredentials}
	}

	signer, err := NewDeveloperTokenSigner(c.options.KeyID, c.options.TeamID, c.options.PrivateKey)
	if err != nil {
		return &AuthError{Provider: AppleMusic, Cause: err}
	}
	c.signer = signer

	var storefront struct {
		Data []appleResource `json:"data"`
	}
	if err := c.get(ctx, "storefront", "/storefronts/"+url.PathEscape(c.options.Storefront), nil, &storefront); err != nil {
		c.signer = nil
		return &AuthError{Provider: AppleMusic, Cause: err}
	}
	return nil
}

func (c *AppleMusicClient) SearchAlbum(ctx context.Context, artist, album string) ([]Candidate, error) {
	resp, err := c.search(ctx, "search album", joinTerm(artist, album), "albums")
	if err != nil {
		return nil, err
	}
	if resp.Results.Albums == nil {
		return nil, nil
	}

	candidates := make([]Candidate, 0, len(resp.Results.Albums.Data))
	for _, r := range resp.Results.Albums.Data {
		candidates = append(candidates, Candidate{
			ID:          r.ID,
			Title:       r.Attributes.Name,
			Artist:      r.Attributes.ArtistName,
			ReleaseDate: r.Attributes.ReleaseDate,
			URL:         r.Attributes.URL,
		})
	}
	return candidates, nil
}

func (c *AppleMusicClient) ListAlbumTracks(ctx context.Context, albumID string) ([]string, error) {
	tracks, err := c.albumTracks(ctx, albumID)
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(tracks))
	for _, track := range tracks {
		titles = append(titles, track.Attributes.Name)
	}
	return titles, nil
}

func (c *AppleMusicClient) FindAlbumPreview(ctx context.Context, albumID string) (string, error) {
	tracks, err := c.albumTracks(ctx, albumID)
	if err != nil {
		return "", err
	}

	for _, track := range tracks {
		if preview := track.Attributes.previewURL(); preview != "" {
			return preview, nil
		}
	}
	return "", nil
}

func (c *AppleMusicClient) SearchTrack(ctx context.Context, artist, title string) (*Candidate, error) {
	resp, err := c.search(ctx, "search track", joinTerm(artist, title), "songs")
	if err != nil {
		return nil, err
	}
	if resp.Results.Songs == nil || len(resp.Results.Songs.Data) == 0 {
		return nil, nil
	}

	song := resp.Results.Songs.Data[0]
	return &Candidate{
		ID:          song.ID,
		Title:       song.Attributes.Name,
		Artist:      song.Attributes.ArtistName,
		ReleaseDate: song.Attributes.ReleaseDate,
		URL:         song.Attributes.URL,
		PreviewURL:  song.Attributes.previewURL(),
	}, nil
}

func (c *AppleMusicClient) SearchArtist(ctx context.Context, artist string) (*Candidate, error) {
	resp, err := c.search(ctx, "search artist", artist, "artists")
	if err != nil {
		return nil, err
	}
	if resp.Results.Artists == nil || len(resp.Results.Artists.Data) == 0 {
		return nil, nil
	}

	found := resp.Results.Artists.Data[0]
	return &Candidate{
		ID:    found.ID,
		Title: found.Attributes.Name,
		URL:   found.Attributes.URL,
	}, nil
}

func (c *AppleMusicClient) search(ctx context.Context, op, term, types string) (*appleSearchResponse, error) {
	params := url.Values{
		"term":  {term},
		"types": {types},
		"limit": {"10"},
	}

	var resp appleSearchResponse
	if err := c.get(ctx, op, c.catalogPath("/search"), params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *AppleMusicClient) albumTracks(ctx context.Context, albumID string) ([]appleResource, error) {
	var resp appleResourcePage
	path := c.catalogPath("/albums/" + url.PathEscape(albumID) + "/tracks")
	if err := c.get(ctx, "album tracks", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *AppleMusicClient) catalogPath(suffix string) string {
	return "/catalog/" + url.PathEscape(c.options.Storefront) + suffix
}

func (c *AppleMusicClient) get(ctx context.Context, op, path string, params url.Values, dest interface{}) error {
	if c.signer == nil {
		return &AuthError{Provider: AppleMusic, Cause: errors.New("not authenticated")}
	}

	token, err := c.signer.Token()
	if err != nil {
		return &AuthError{Provider: AppleMusic, Cause: err}
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	return fetchJSON(ctx, c.client, c.throttle, apiRequest{
		provider: AppleMusic,
		op:       op,
		url:      reqURL,
		header:   http.Header{"Authorization": {"Bearer " + token}},
	}, dest)
}

// joinTerm builds a free-text search term; the catalog search has no field qualifiers.
func joinTerm(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, " ")
}
