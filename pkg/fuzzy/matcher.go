package fuzzy

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

const (
	// DefaultThreshold is the token-sort score a candidate needs when no tier-specific threshold applies.
	DefaultThreshold = 85
	// maxScore is a perfect token-sort score.
	maxScore = 100
)

// Decision is the outcome of comparing a target string against a candidate.
type Decision struct {
	Accepted bool
	Score    int
}

// Matcher decides whether a remote title or artist name refers to the same thing as a local one.
type Matcher struct {
	normalizer *Normalizer
}

func NewMatcher() *Matcher {
	return &Matcher{normalizer: NewNormalizer()}
}

// Matches reports whether candidate is an acceptable match for target.
// A case-insensitive substring hit always matches, whatever the score.
func (m *Matcher) Matches(target, candidate string, threshold int) bool {
	return m.Decide(target, candidate, threshold).Accepted
}

// MatchesArtist compares artist names after folding leading articles and "and",
// so "The Beatles" matches "Beatles" and "Simon and Garfunkel" matches "Simon & Garfunkel".
func (m *Matcher) MatchesArtist(target, candidate string, threshold int) bool {
	return m.Matches(m.normalizer.NormalizeArtist(target), m.normalizer.NormalizeArtist(candidate), threshold)
}

// Decide scores target against candidate and applies threshold plus the substring override.
func (m *Matcher) Decide(target, candidate string, threshold int) Decision {
	score := m.TokenSortRatio(target, candidate)
	if score >= threshold {
		return Decision{Accepted: true, Score: score}
	}

	contained := strings.Contains(strings.ToLower(candidate), strings.ToLower(target))
	return Decision{Accepted: contained, Score: score}
}

// TokenSortRatio returns a 0-100 indel similarity of the sorted, normalized
// tokens; word order, case, accents and punctuation are ignored.
func (m *Matcher) TokenSortRatio(a, b string) int {
	sortedA := m.sortedTokens(a)
	sortedB := m.sortedTokens(b)

	if sortedA == sortedB {
		return maxScore
	}
	if sortedA == "" || sortedB == "" {
		return 0
	}

	// Indel ratio: 2*LCS / total length, so a transposition costs two edits, not one substitution pair.
	total := utf8.RuneCountInString(sortedA) + utf8.RuneCountInString(sortedB)
	lcs := edlib.LCS(sortedA, sortedB)

	return int(math.Round(float64(2*lcs*maxScore) / float64(total)))
}

func (m *Matcher) sortedTokens(s string) string {
	tokens := strings.Fields(m.normalizer.basicNormalize(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
