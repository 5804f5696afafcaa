package musiclink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultSpotifyMarket is the market used for album track listings, which controls preview availability.
const DefaultSpotifyMarket = "DE"

// SpotifyOptions configures a SpotifyClient.
type SpotifyOptions struct {
	ClientID     string
	ClientSecret string
	Market       string
	TokenURL     string // Defaults to the Spotify accounts service.
	APIBaseURL   string // Defaults to the public Web API; must end with "/".
}

// SpotifyClient searches the Spotify catalog using client-credentials auth.
type SpotifyClient struct {
	options    SpotifyOptions
	httpClient *http.Client
	throttle   Throttle
	api        *spotify.Client
}

// NewSpotifyClient creates an unauthenticated Spotify client. Call Authenticate before searching.
func NewSpotifyClient(options SpotifyOptions, throttle Throttle) *SpotifyClient {
	if options.Market == "" {
		options.Market = DefaultSpotifyMarket
	}
	if options.TokenURL == "" {
		options.TokenURL = spotifyauth.TokenURL
	}
	return &SpotifyClient{
		options:    options,
		httpClient: newHTTPClient(),
		throttle:   throttle,
	}
}

func (s *SpotifyClient) Name() ProviderName { return Spotify }

// Authenticate fetches an app token once; the returned client refreshes it when it expires.
func (s *SpotifyClient) Authenticate(ctx context.Context) error {
	if s.options.ClientID == "" || s.options.ClientSecret == "" {
		return &AuthError{Provider: Spotify, Cause: ErrMissingCredentials}
	}

	conf := &clientcredentials.Config{
		ClientID:     s.options.ClientID,
		ClientSecret: s.options.ClientSecret,
		TokenURL:     s.options.TokenURL,
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	token, err := conf.Token(ctx)
	_ = s.throttle.Pause(ctx)
	if err != nil {
		return &AuthError{Provider: Spotify, Cause: err}
	}

	httpClient := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, conf.TokenSource(ctx)))

	var opts []spotify.ClientOption
	if s.options.APIBaseURL != "" {
		opts = append(opts, spotify.WithBaseURL(s.options.APIBaseURL))
	}
	s.api = spotify.New(httpClient, opts...)

	return nil
}

func (s *SpotifyClient) SearchAlbum(ctx context.Context, artist, album string) ([]Candidate, error) {
	query := "album:" + album
	if artist != "" {
		query += " artist:" + artist
	}

	results, err := s.search(ctx, "search album", query, spotify.SearchTypeAlbum)
	if err != nil {
		return nil, err
	}
	if results.Albums == nil {
		return nil, nil
	}

	candidates := make([]Candidate, 0, len(results.Albums.Albums))
	for _, a := range results.Albums.Albums {
		candidates = append(candidates, Candidate{
			ID:          string(a.ID),
			Title:       a.Name,
			Artist:      firstArtistName(a.Artists),
			ReleaseDate: a.ReleaseDate,
			URL:         a.ExternalURLs["spotify"],
		})
	}
	return candidates, nil
}

func (s *SpotifyClient) ListAlbumTracks(ctx context.Context, albumID string) ([]string, error) {
	tracks, err := s.albumTracks(ctx, albumID)
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(tracks))
	for _, track := range tracks {
		titles = append(titles, track.Name)
	}
	return titles, nil
}

func (s *SpotifyClient) FindAlbumPreview(ctx context.Context, albumID string) (string, error) {
	tracks, err := s.albumTracks(ctx, albumID)
	if err != nil {
		return "", err
	}

	for _, track := range tracks {
		if track.PreviewURL != "" {
			return track.PreviewURL, nil
		}
	}
	return "", nil
}

func (s *SpotifyClient) SearchTrack(ctx context.Context, artist, title string) (*Candidate, error) {
	query := fmt.Sprintf("track:%s artist:%s", title, artist)

	results, err := s.search(ctx, "search track", query, spotify.SearchTypeTrack)
	if err != nil {
		return nil, err
	}
	if results.Tracks == nil || len(results.Tracks.Tracks) == 0 {
		return nil, nil
	}

	track := results.Tracks.Tracks[0]
	return &Candidate{
		ID:         string(track.ID),
		Title:      track.Name,
		Artist:     firstArtistName(track.Artists),
		URL:        track.ExternalURLs["spotify"],
		PreviewURL: track.PreviewURL,
	}, nil
}

func (s *SpotifyClient) SearchArtist(ctx context.Context, artist string) (*Candidate, error) {
	results, err := s.search(ctx, "search artist", "artist:"+artist, spotify.SearchTypeArtist)
	if err != nil {
		return nil, err
	}
	if results.Artists == nil || len(results.Artists.Artists) == 0 {
		return nil, nil
	}

	found := results.Artists.Artists[0]
	return &Candidate{
		ID:    string(found.ID),
		Title: found.Name,
		URL:   found.ExternalURLs["spotify"],
	}, nil
}

func (s *SpotifyClient) search(
	ctx context.Context,
	op string,
	query string,
	searchType spotify.SearchType,
) (*spotify.SearchResult, error) {
	if s.api == nil {
		return nil, &AuthError{Provider: Spotify, Cause: errors.New("not authenticated")}
	}

	results, err := s.api.Search(ctx, query, searchType, spotify.Limit(searchLimit))
	_ = s.throttle.Pause(ctx)
	if err != nil {
		return nil, s.wrapError(op, err)
	}
	return results, nil
}

func (s *SpotifyClient) albumTracks(ctx context.Context, albumID string) ([]spotify.SimpleTrack, error) {
	if s.api == nil {
		return nil, &AuthError{Provider: Spotify, Cause: errors.New("not authenticated")}
	}

	page, err := s.api.GetAlbumTracks(ctx, spotify.ID(albumID), spotify.Market(s.options.Market))
	_ = s.throttle.Pause(ctx)
	if err != nil {
		return nil, s.wrapError("album tracks", err)
	}
	return page.Tracks, nil
}

// wrapError maps library errors onto the provider error taxonomy. A 401 or 403
// from a catalog endpoint is a failed call, not a rejected credential; only the
// token endpoint can reject the client credentials.
func (s *SpotifyClient) wrapError(op string, err error) error {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return &TransportError{Provider: Spotify, Op: op, Status: apiErr.Status, Cause: err}
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return &AuthError{Provider: Spotify, Cause: err}
	}

	return &TransportError{Provider: Spotify, Op: op, Cause: err}
}

func firstArtistName(artists []spotify.SimpleArtist) string {
	if len(artists) == 0 {
		return ""
	}
	return strings.TrimSpace(artists[0].Name)
}
