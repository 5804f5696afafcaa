package core

import (
	"errors"
	"fmt"
	"time"

	"linkenricher/pkg/musiclink"
)

const (
	// DefaultRateLimitDelay is the pause after every provider call.
	DefaultRateLimitDelay = 2 * time.Second
	// DefaultAlbumThreshold applies when the searched title is the album title itself.
	DefaultAlbumThreshold = 85
	// DefaultVariantThreshold applies when an edition suffix was appended to the searched title.
	DefaultVariantThreshold = 80
	// DefaultBroadThreshold applies to album-only searches, which return noisier results.
	DefaultBroadThreshold = 90
	// DefaultArtistThreshold applies to the artist name of album candidates.
	DefaultArtistThreshold = 85
	// DefaultEvidenceCacheSize is the number of releases whose track evidence is memoized per run.
	DefaultEvidenceCacheSize = 256
	// maxThreshold is the highest meaningful match threshold.
	maxThreshold = 100
)

// DefaultEditionSuffixes are appended, in order, to an album title when searching by variant.
var DefaultEditionSuffixes = []string{
	"Deluxe",
	"Deluxe Edition",
	"Remastered",
	"Remaster",
	"Anniversary Edition",
	"Expanded Edition",
	"Special Edition",
	"Bonus Track Version",
}

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Spotify     SpotifyConfig
	AppleMusic  AppleMusicConfig
	Discogs     DiscogsConfig
	MusicBrainz MusicBrainzConfig
	Pipeline    PipelineConfig
	RateLimit   RateLimitConfig
	Server      ServerConfig
	Log         LogConfig
	App         AppConfig
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	Market       string
}

type AppleMusicConfig struct {
	KeyID          string
	TeamID         string
	PrivateKeyPath string
	Storefront     string
}

type DiscogsConfig struct {
	Token string
}

type MusicBrainzConfig struct {
	UserAgent string
}

// PipelineConfig holds the match policy of the resolution ladder.
type PipelineConfig struct {
	AlbumThreshold   int
	VariantThreshold int
	BroadThreshold   int
	ArtistThreshold  int
	EditionSuffixes  []string
}

type RateLimitConfig struct {
	Delay time.Duration
	Mode  string // musiclink.ThrottleFixed or musiclink.ThrottleTokenBucket
}

// ServerConfig configures the optional metrics endpoint. An empty Addr disables it.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level string
}

type AppConfig struct {
	CheckpointEvery   int
	EvidenceCacheSize int
}

func DefaultConfig() *Config {
	suffixes := make([]string, len(DefaultEditionSuffixes))
	copy(suffixes, DefaultEditionSuffixes)

	return &Config{
		Spotify: SpotifyConfig{
			Market: "DE",
		},
		AppleMusic: AppleMusicConfig{
			Storefront: "us",
		},
		MusicBrainz: MusicBrainzConfig{
			UserAgent: "linkenricher/1.0 (https://github.com/linkenricher/linkenricher)",
		},
		Pipeline: PipelineConfig{
			AlbumThreshold:   DefaultAlbumThreshold,
			VariantThreshold: DefaultVariantThreshold,
			BroadThreshold:   DefaultBroadThreshold,
			ArtistThreshold:  DefaultArtistThreshold,
			EditionSuffixes:  suffixes,
		},
		RateLimit: RateLimitConfig{
			Delay: DefaultRateLimitDelay,
			Mode:  musiclink.ThrottleFixed,
		},
		Server: ServerConfig{
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		App: AppConfig{
			EvidenceCacheSize: DefaultEvidenceCacheSize,
		},
	}
}

// Validate checks values that would make a run misbehave rather than merely find fewer links.
func (c *Config) Validate() error {
	thresholds := map[string]int{
		"album threshold":   c.Pipeline.AlbumThreshold,
		"variant threshold": c.Pipeline.VariantThreshold,
		"broad threshold":   c.Pipeline.BroadThreshold,
		"artist threshold":  c.Pipeline.ArtistThreshold,
	}
	for name, value := range thresholds {
		if value < 0 || value > maxThreshold {
			return fmt.Errorf("%w: %s must be between 0 and %d, got %d", ErrInvalidConfig, name, maxThreshold, value)
		}
	}

	if c.RateLimit.Delay < 0 {
		return fmt.Errorf("%w: rate limit delay must not be negative, got %s", ErrInvalidConfig, c.RateLimit.Delay)
	}

	switch c.RateLimit.Mode {
	case musiclink.ThrottleFixed, musiclink.ThrottleTokenBucket:
	default:
		return fmt.Errorf("%w: unknown throttle mode %q", ErrInvalidConfig, c.RateLimit.Mode)
	}

	if c.App.CheckpointEvery < 0 {
		return fmt.Errorf("%w: checkpoint interval must not be negative, got %d", ErrInvalidConfig, c.App.CheckpointEvery)
	}

	return nil
}
