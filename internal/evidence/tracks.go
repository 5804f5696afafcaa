// Package evidence gathers candidate track titles for a release from lookup catalogs and streaming providers.
package evidence

import (
	"strings"

	"linkenricher/internal/store"
	"linkenricher/pkg/fuzzy"
)

const (
	// tracksCapacity bounds the titles remembered for duplicate detection within one release.
	tracksCapacity = 512
	// tracksFalsePositiveRate is the bloom filter target for the duplicate check.
	tracksFalsePositiveRate = 0.001
)

// Tracks is the ordered track-title evidence for one release. It only grows.
// Blank titles are never stored and titles equal after normalization are kept once.
type Tracks struct {
	titles     []string
	seen       *store.DedupStore
	normalizer *fuzzy.Normalizer
}

func NewTracks() *Tracks {
	return &Tracks{
		seen:       store.NewDedupStore(tracksCapacity, tracksFalsePositiveRate),
		normalizer: fuzzy.NewNormalizer(),
	}
}

// Append adds titles in order and returns how many were new.
func (t *Tracks) Append(titles ...string) int {
	added := 0
	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}

		key := t.normalizer.NormalizeTitle(title)
		if key == "" {
			key = strings.ToLower(title)
		}
		if !t.seen.AddIfAbsent(key) {
			continue
		}

		t.titles = append(t.titles, title)
		added++
	}
	return added
}

// Titles returns a copy of the evidence in insertion order.
func (t *Tracks) Titles() []string {
	titles := make([]string, len(t.titles))
	copy(titles, t.titles)
	return titles
}

func (t *Tracks) Len() int {
	return len(t.titles)
}
