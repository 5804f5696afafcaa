package musiclink

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubClient is a Client whose Authenticate result is fixed.
type stubClient struct {
	name      ProviderName
	authErr   error
	authCalls int
}

func (s *stubClient) Name() ProviderName { return s.name }

func (s *stubClient) Authenticate(_ context.Context) error {
	s.authCalls++
	return s.authErr
}

func (s *stubClient) SearchAlbum(context.Context, string, string) ([]Candidate, error) { return nil, nil }

func (s *stubClient) ListAlbumTracks(context.Context, string) ([]string, error) { return nil, nil }

func (s *stubClient) FindAlbumPreview(context.Context, string) (string, error) { return "", nil }

func (s *stubClient) SearchTrack(context.Context, string, string) (*Candidate, error) { return nil, nil }

func (s *stubClient) SearchArtist(context.Context, string) (*Candidate, error) { return nil, nil }

func TestManager_AuthenticateAllIsolatesFailures(t *testing.T) {
	spotify := &stubClient{name: Spotify}
	deezer := &stubClient{name: Deezer}
	apple := &stubClient{name: AppleMusic, authErr: &AuthError{Provider: AppleMusic, Cause: errors.New("bad key")}}

	manager := NewManager(zap.NewNop(), apple, deezer, spotify)
	manager.AuthenticateAll(context.Background())

	assert.False(t, manager.Enabled(AppleMusic))
	assert.True(t, manager.Enabled(Deezer))
	assert.True(t, manager.Enabled(Spotify))

	clients := manager.Clients()
	require.Len(t, clients, 2)
	assert.Equal(t, Deezer, clients[0].Name(), "registration order kept")
	assert.Equal(t, Spotify, clients[1].Name())

	for _, c := range []*stubClient{spotify, deezer, apple} {
		assert.Equal(t, 1, c.authCalls, "%s authenticated once", c.name)
	}
}

func TestManager_Client(t *testing.T) {
	manager := NewManager(zap.NewNop(), &stubClient{name: Spotify}, &stubClient{name: Deezer})

	client, ok := manager.Client(Deezer)
	require.True(t, ok)
	assert.Equal(t, Deezer, client.Name())

	_, ok = manager.Client(AppleMusic)
	assert.False(t, ok, "unregistered provider")

	manager.Disable(Deezer, errors.New("revoked"))
	_, ok = manager.Client(Deezer)
	assert.False(t, ok, "disabled provider")
}

func TestManager_DisableKeepsFirstCause(t *testing.T) {
	manager := NewManager(zap.NewNop(), &stubClient{name: Spotify})

	first := errors.New("first")
	manager.Disable(Spotify, first)
	manager.Disable(Spotify, errors.New("second"))

	assert.Equal(t, first, manager.disabled[Spotify])
	assert.Empty(t, manager.Clients())
}
