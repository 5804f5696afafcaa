package evidence

import (
	"context"
	"slices"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"linkenricher/internal/metrics"
	"linkenricher/pkg/fuzzy"
	"linkenricher/pkg/musiclink"
)

// DefaultCacheSize is used when NewCollector is given a non-positive size.
const DefaultCacheSize = 256

// Collector queries lookup catalogs for the track titles of a release.
// Results are memoized for the life of the collector, keyed by artist and album.
type Collector struct {
	sources  []musiclink.TrackSource
	cache    *lru.Cache[string, []string]
	disabled map[musiclink.ProviderName]bool
	mutex    sync.Mutex
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewCollector creates a collector querying sources in the given order.
func NewCollector(logger *zap.Logger, m *metrics.Metrics, cacheSize int, sources ...musiclink.TrackSource) *Collector {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, []string](cacheSize)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}

	return &Collector{
		sources:  sources,
		cache:    cache,
		disabled: make(map[musiclink.ProviderName]bool),
		logger:   logger,
		metrics:  m,
	}
}

// Collect returns the concatenated titles from every source, in source order.
// It never fails: a source that errors contributes nothing, and a source that
// rejects its credentials is not asked again.
func (c *Collector) Collect(ctx context.Context, artist, album string) []string {
	key := cacheKey(artist, album)
	if cached, ok := c.cache.Get(key); ok {
		return slices.Clone(cached)
	}

	cleanArtist := fuzzy.CleanArtist(artist)
	titles := make([]string, 0)
	complete := true

	for _, source := range c.sources {
		if ctx.Err() != nil {
			complete = false
			break
		}
		if !c.enabled(source.Name()) {
			continue
		}

		found, err := source.Tracks(ctx, cleanArtist, album)
		if err != nil {
			complete = complete && !musiclink.IsTransport(err)
			c.handleError(source.Name(), artist, album, err)
			continue
		}

		c.logger.Debug("Track evidence collected",
			zap.String("source", string(source.Name())),
			zap.String("artist", artist),
			zap.String("album", album),
			zap.Int("tracks", len(found)))
		titles = append(titles, found...)
	}

	if complete {
		c.cache.Add(key, titles)
	}
	return slices.Clone(titles)
}

func (c *Collector) handleError(name musiclink.ProviderName, artist, album string, err error) {
	if musiclink.IsAuth(err) {
		c.metrics.ProviderError(string(name), metrics.ErrorKindAuth)
		c.mutex.Lock()
		alreadyDisabled := c.disabled[name]
		c.disabled[name] = true
		c.mutex.Unlock()

		if !alreadyDisabled {
			c.logger.Error("Track source disabled for the rest of the run",
				zap.String("source", string(name)),
				zap.Error(err))
		}
		return
	}

	c.metrics.ProviderError(string(name), metrics.ErrorKindTransport)
	c.logger.Warn("Track source lookup failed",
		zap.String("source", string(name)),
		zap.String("artist", artist),
		zap.String("album", album),
		zap.Error(err))
}

func (c *Collector) enabled(name musiclink.ProviderName) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return !c.disabled[name]
}

func cacheKey(artist, album string) string {
	return strings.ToLower(strings.TrimSpace(artist)) + "\x00" + strings.ToLower(strings.TrimSpace(album))
}
