package fuzzy

import (
	"reflect"
	"testing"
)

// runStringTransformationTest is a helper to run tests for string transformation functions.
func runStringTransformationTest(t *testing.T, testName string,
	transformFunc func(string) string, testCases []struct {
		name     string
		input    string
		expected string
	}) {
	t.Helper()
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			result := transformFunc(tt.input)
			if result != tt.expected {
				t.Errorf("%s() = %q, want %q", testName, result, tt.expected)
			}
		})
	}
}

func TestNormalizer_NormalizeArtist(t *testing.T) {
	normalizer := NewNormalizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple artist name",
			input:    "Radiohead",
			expected: "radiohead",
		},
		{
			name:     "Leading article",
			input:    "The Beatles",
			expected: "beatles",
		},
		{
			name:     "Artist with and",
			input:    "Simon and Garfunkel",
			expected: "simon garfunkel",
		},
		{
			name:     "Artist with punctuation",
			input:    "P!nk",
			expected: "p nk",
		},
		{
			name:     "Artist with accents",
			input:    "Björk",
			expected: "bjork",
		},
	}

	runStringTransformationTest(t, "NormalizeArtist", normalizer.NormalizeArtist, tests)
}

func TestNormalizer_NormalizeTitle(t *testing.T) {
	normalizer := NewNormalizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple title",
			input:    "Hey Jude",
			expected: "hey jude",
		},
		{
			name:     "Title with featuring",
			input:    "Song Title (feat. Artist)",
			expected: "song title",
		},
		{
			name:     "Title with trailing featuring",
			input:    "Song Title feat. Artist",
			expected: "song title",
		},
		{
			name:     "Title with remix",
			input:    "Song Title (Remix)",
			expected: "song title",
		},
		{
			name:     "Title with remaster year",
			input:    "Song Title (Remastered 2009)",
			expected: "song title",
		},
		{
			name:     "Album edition",
			input:    "Abbey Road (Super Deluxe Edition)",
			expected: "abbey road",
		},
		{
			name:     "Title with dash version info",
			input:    "Song Title - Radio Edit",
			expected: "song title",
		},
		{
			name:     "Title starting with a decoration word",
			input:    "Live and Let Die",
			expected: "live and let die",
		},
		{
			name:     "Title with punctuation",
			input:    "Don't Stop Me Now!",
			expected: "don t stop me now",
		},
		{
			name:     "Everything at once",
			input:    "Hey Jude (Remastered 2009) [feat. Orchestra] - Radio Edit",
			expected: "hey jude",
		},
	}

	runStringTransformationTest(t, "NormalizeTitle", normalizer.NormalizeTitle, tests)
}

func TestNormalizer_basicNormalize(t *testing.T) {
	normalizer := NewNormalizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple text",
			input:    "Hello World",
			expected: "hello world",
		},
		{
			name:     "Text with punctuation",
			input:    "Hello, World!",
			expected: "hello world",
		},
		{
			name:     "Text with accents",
			input:    "Café",
			expected: "cafe",
		},
		{
			name:     "Text with leading/trailing spaces",
			input:    "  Hello World  ",
			expected: "hello world",
		},
		{
			name:     "Empty",
			input:    "",
			expected: "",
		},
	}

	runStringTransformationTest(t, "basicNormalize", normalizer.basicNormalize, tests)
}

func TestCleanArtist(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Plain", input: "Portishead", expected: "Portishead"},
		{name: "Question mark tail", input: "Massive Attack ? (UK)", expected: "Massive Attack"},
		{name: "Only noise", input: "?unknown", expected: ""},
		{name: "Padded", input: "  Air  ", expected: "Air"},
	}

	runStringTransformationTest(t, "CleanArtist", CleanArtist, tests)
}

func TestSplitArtists(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Single artist",
			input:    "Björk",
			expected: []string{"Björk"},
		},
		{
			name:     "Two artists keep order",
			input:    "Nick Cave & Kylie Minogue",
			expected: []string{"Nick Cave", "Kylie Minogue"},
		},
		{
			name:     "Empty parts dropped",
			input:    "A & & B &",
			expected: []string{"A", "B"},
		},
		{
			name:     "Empty input",
			input:    "",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SplitArtists(tt.input)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("SplitArtists() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func BenchmarkNormalizer_NormalizeTitle(b *testing.B) {
	normalizer := NewNormalizer()
	title := "Hey Jude (Remastered 2009) [feat. Orchestra] - Radio Edit"

	b.ResetTimer()
	for range b.N {
		normalizer.NormalizeTitle(title)
	}
}
