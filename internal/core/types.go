// Package core holds the configuration and the catalog record shared by the enrichment packages.
package core

import (
	"encoding/json"
	"fmt"

	"linkenricher/pkg/musiclink"
)

// Output keys written for every release, whether or not a link was found.
const (
	KeyArtist         = "artist"
	KeyAlbum          = "album"
	KeySpotifyLink    = "spotifyLink"
	KeyDeezerLink     = "deezerLink"
	KeyAppleMusicLink = "appleMusicLink"
	KeyPreviewURL     = "previewUrl"
)

// legacyKeys maps snake_case keys written by older catalog versions to their current names.
var legacyKeys = map[string]string{
	"spotify_link":     KeySpotifyLink,
	"deezer_link":      KeyDeezerLink,
	"apple_music_link": KeyAppleMusicLink,
	"preview_url":      KeyPreviewURL,
}

// Release is one catalog record. Keys other than the ones modelled here are kept verbatim.
type Release struct {
	Artist         string
	Album          string
	SpotifyLink    *string
	DeezerLink     *string
	AppleMusicLink *string
	PreviewURL     *string

	extra map[string]json.RawMessage
}

// SetLink stores the link found for a streaming provider. An empty url records absence.
func (r *Release) SetLink(provider musiclink.ProviderName, url string) {
	value := optional(url)
	switch provider {
	case musiclink.Spotify:
		r.SpotifyLink = value
	case musiclink.Deezer:
		r.DeezerLink = value
	case musiclink.AppleMusic:
		r.AppleMusicLink = value
	}
}

// SetPreview stores the preview URL. An empty url records absence.
func (r *Release) SetPreview(url string) {
	r.PreviewURL = optional(url)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *Release) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	for legacy, current := range legacyKeys {
		if raw, ok := fields[legacy]; ok {
			if _, exists := fields[current]; !exists {
				fields[current] = raw
			}
			delete(fields, legacy)
		}
	}

	targets := map[string]interface{}{
		KeyArtist:         &r.Artist,
		KeyAlbum:          &r.Album,
		KeySpotifyLink:    &r.SpotifyLink,
		KeyDeezerLink:     &r.DeezerLink,
		KeyAppleMusicLink: &r.AppleMusicLink,
		KeyPreviewURL:     &r.PreviewURL,
	}
	for key, target := range targets {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		delete(fields, key)
	}

	r.extra = fields
	return nil
}

// MarshalJSON always emits the four link keys, as null when absent, so the schema is stable.
func (r Release) MarshalJSON() ([]byte, error) {
	fields := make(map[string]interface{}, len(r.extra)+6)
	for key, raw := range r.extra {
		fields[key] = raw
	}

	fields[KeyArtist] = r.Artist
	fields[KeyAlbum] = r.Album
	fields[KeySpotifyLink] = r.SpotifyLink
	fields[KeyDeezerLink] = r.DeezerLink
	fields[KeyAppleMusicLink] = r.AppleMusicLink
	fields[KeyPreviewURL] = r.PreviewURL

	return json.Marshal(fields)
}
