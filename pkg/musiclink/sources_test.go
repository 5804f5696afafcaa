package musiclink

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMusicBrainzSource_Tracks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recording/", r.URL.Path)
		assert.Equal(t, `artist:"Portishead" AND release:"Dummy"`, r.URL.Query().Get("query"))
		assert.Equal(t, "json", r.URL.Query().Get("fmt"))
		assert.Equal(t, "test-agent/1.0 (me@example.com)", r.Header.Get("User-Agent"))
		writeJSON(w, http.StatusOK, `{"count":2,"recordings":[{"id":"r1","title":"Wandering Star"},{"id":"r2","title":"Glory Box"}]}`)
	}))
	defer srv.Close()

	throttle := &countingThrottle{}
	source := NewMusicBrainzSourceWithBaseURL("test-agent/1.0 (me@example.com)", throttle, srv.URL)

	titles, err := source.Tracks(context.Background(), "Portishead", "Dummy")
	require.NoError(t, err)
	assert.Equal(t, []string{"Wandering Star", "Glory Box"}, titles)
	assert.Equal(t, 1, throttle.Calls())
	assert.Equal(t, MusicBrainz, source.Name())
}

func TestMusicBrainzSource_ServiceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, `{"error":"rate limited"}`)
	}))
	defer srv.Close()

	source := NewMusicBrainzSourceWithBaseURL("", NoDelay{}, srv.URL)
	titles, err := source.Tracks(context.Background(), "Portishead", "Dummy")
	assert.Nil(t, titles)
	assert.True(t, IsTransport(err))
}

func TestLuceneEscape(t *testing.T) {
	assert.Equal(t, `Say \"Hi\"`, luceneEscape(`Say "Hi"`))
	assert.Equal(t, `a\\b`, luceneEscape(`a\b`))
	assert.Equal(t, "plain", luceneEscape("plain"))
}

func TestDiscogsSource_Tracks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Discogs token=secret", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/database/search":
			assert.Equal(t, "Dummy", r.URL.Query().Get("q"))
			assert.Equal(t, "Portishead", r.URL.Query().Get("artist"))
			assert.Equal(t, "release", r.URL.Query().Get("type"))
			writeJSON(w, http.StatusOK, `{"results":[{"id":99,"title":"Portishead - Dummy"},{"id":100}]}`)
		case "/releases/99":
			writeJSON(w, http.StatusOK, `{"id":99,"tracklist":[
				{"position":"","title":"Side A","type_":"heading"},
				{"position":"A1","title":"Mysterons","type_":"track"},
				{"position":"A2","title":"Sour Times"}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	throttle := &countingThrottle{}
	source := NewDiscogsSourceWithBaseURL("secret", throttle, srv.URL)

	titles, err := source.Tracks(context.Background(), "Portishead", "Dummy")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mysterons", "Sour Times"}, titles)
	assert.Equal(t, 2, throttle.Calls())
}

func TestDiscogsSource_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"results":[]}`)
	}))
	defer srv.Close()

	throttle := &countingThrottle{}
	source := NewDiscogsSourceWithBaseURL("secret", throttle, srv.URL)

	titles, err := source.Tracks(context.Background(), "Nobody", "Nothing")
	require.NoError(t, err)
	assert.Empty(t, titles)
	assert.Equal(t, 1, throttle.Calls(), "no release lookup without a search hit")
}

func TestDiscogsSource_MissingToken(t *testing.T) {
	throttle := &countingThrottle{}
	source := NewDiscogsSource("", throttle)

	_, err := source.Tracks(context.Background(), "Portishead", "Dummy")
	assert.True(t, IsAuth(err))
	assert.Zero(t, throttle.Calls())
}
