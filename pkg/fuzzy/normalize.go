// Package fuzzy provides text normalization and fuzzy comparison of music titles and artist names.
package fuzzy

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	featBracketRegex = regexp.MustCompile(`(?i)\s*[\(\[]\s*(?:feat\.?|ft\.?|featuring)\s+[^\)\]]*[\)\]]`)
	featTailRegex    = regexp.MustCompile(`(?i)\s+(?:feat\.?|ft\.?|featuring)\s+.*$`)
	decorationRegex  = regexp.MustCompile(
		`(?i)\s*[\(\[][^\)\]]*\b(?:remix|remaster|remastered|deluxe|edition|version|live|mono|stereo|radio edit|explicit|clean|bonus)\b[^\)\]]*[\)\]]`)
	dashSuffixRegex = regexp.MustCompile(
		`(?i)\s+-\s+.*\b(?:remix|remaster|remastered|deluxe|edition|version|live|mono|stereo|radio edit)\b.*$`)
	punctRegex      = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

const (
	// ArtistSeparator joins multiple credited artists in a catalog record.
	ArtistSeparator = "&"
	// artistNoiseMarker starts trailing junk that some catalogs append to artist names.
	artistNoiseMarker = "?"
)

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeArtist folds an artist name for comparison.
func (n *Normalizer) NormalizeArtist(artist string) string {
	artist = n.basicNormalize(artist)

	artist = strings.ReplaceAll(artist, " and ", " ")
	artist = strings.TrimPrefix(artist, "the ")

	return artist
}

// NormalizeTitle folds a track or album title and drops featuring credits
// and edition decorations such as "(Remastered 2009)" or "- Radio Edit".
func (n *Normalizer) NormalizeTitle(title string) string {
	title = featBracketRegex.ReplaceAllString(title, "")
	title = featTailRegex.ReplaceAllString(title, "")
	title = decorationRegex.ReplaceAllString(title, "")
	title = dashSuffixRegex.ReplaceAllString(title, "")

	return n.basicNormalize(title)
}

func (n *Normalizer) basicNormalize(text string) string {
	text = norm.NFKD.String(text)

	var result strings.Builder
	for _, r := range text {
		if !unicode.IsMark(r) {
			result.WriteRune(r)
		}
	}
	text = result.String()

	text = punctRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")

	text = strings.ToLower(text)
	text = strings.TrimSpace(text)

	return text
}

// CleanArtist cuts an artist name at the first "?" and trims it.
func CleanArtist(artist string) string {
	if idx := strings.Index(artist, artistNoiseMarker); idx >= 0 {
		artist = artist[:idx]
	}
	return strings.TrimSpace(artist)
}

// SplitArtists splits a credit like "A & B" into its artists, preserving order.
// Each part is cleaned; empty parts are dropped.
func SplitArtists(artist string) []string {
	parts := strings.Split(artist, ArtistSeparator)
	artists := make([]string, 0, len(parts))
	for _, part := range parts {
		if cleaned := CleanArtist(part); cleaned != "" {
			artists = append(artists, cleaned)
		}
	}
	return artists
}
