// Package musiclink provides the catalog clients used to find store links and audio previews for music releases.
package musiclink

import (
	"context"
)

// ProviderName identifies an external music service.
type ProviderName string

const (
	Spotify     ProviderName = "spotify"
	Deezer      ProviderName = "deezer"
	AppleMusic  ProviderName = "applemusic"
	MusicBrainz ProviderName = "musicbrainz"
	Discogs     ProviderName = "discogs"
)

// Candidate is one search result returned by a provider.
type Candidate struct {
	ID          string // Provider-specific identifier.
	Title       string // Album, track or artist name as the provider spells it.
	Artist      string // Primary artist name (empty for artist results).
	ReleaseDate string // Release date as reported, when available.
	URL         string // Public page on the provider.
	PreviewURL  string // Audio preview, set for track results only.
}

// Client is the uniform contract every streaming catalog implements.
// Search methods return an empty result and a nil error when nothing matches;
// Authenticate reports rejected credentials as *AuthError; any later failure,
// a 401 or 403 included, is a *TransportError.
type Client interface {
	Name() ProviderName

	// Authenticate obtains the credential used by all later calls.
	Authenticate(ctx context.Context) error

	// SearchAlbum searches albums. An empty artist runs an album-only query.
	SearchAlbum(ctx context.Context, artist, album string) ([]Candidate, error)

	ListAlbumTracks(ctx context.Context, albumID string) ([]string, error)

	// FindAlbumPreview returns the first track preview of the album, or "".
	FindAlbumPreview(ctx context.Context, albumID string) (string, error)

	SearchTrack(ctx context.Context, artist, title string) (*Candidate, error)

	SearchArtist(ctx context.Context, artist string) (*Candidate, error)
}

// TrackSource is a read-only catalog that lists the track titles of a release.
type TrackSource interface {
	Name() ProviderName
	Tracks(ctx context.Context, artist, album string) ([]string, error)
}
