// Package enrich runs the link resolution over every release of a catalog file.
package enrich

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"linkenricher/internal/catalog"
	"linkenricher/internal/core"
	"linkenricher/internal/evidence"
	"linkenricher/internal/metrics"
	"linkenricher/internal/pipeline"
	"linkenricher/pkg/musiclink"
	"linkenricher/pkg/text"
)

// LinkOrder is the order in which store links are resolved. Track listings
// gathered by earlier providers widen the per-track search of later ones.
var LinkOrder = []musiclink.ProviderName{musiclink.Spotify, musiclink.Deezer, musiclink.AppleMusic}

var linkKeys = map[musiclink.ProviderName]string{
	musiclink.Spotify:    core.KeySpotifyLink,
	musiclink.Deezer:     core.KeyDeezerLink,
	musiclink.AppleMusic: core.KeyAppleMusicLink,
}

type Options struct {
	// CheckpointEvery writes the catalog after every N releases. Zero writes only at the end.
	CheckpointEvery int
	// OnReady, when set, is called once every provider has been authenticated
	// and before the first release is processed.
	OnReady func()
}

// Summary reports what a run did.
type Summary struct {
	Total     int
	Processed int
	// Found counts filled fields by output key.
	Found map[string]int
}

type Runner struct {
	manager   *musiclink.Manager
	collector *evidence.Collector
	resolver  *pipeline.Resolver
	options   Options
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewRunner(
	manager *musiclink.Manager,
	collector *evidence.Collector,
	resolver *pipeline.Resolver,
	options Options,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Runner {
	return &Runner{
		manager:   manager,
		collector: collector,
		resolver:  resolver,
		options:   options,
		logger:    logger,
		metrics:   m,
	}
}

// Run enriches the catalog at path in place. Releases are processed one at a
// time; no per-release failure aborts the run. Only catalog read/write errors
// are returned, plus the context error when the run was cancelled, in which
// case the releases processed so far have already been written.
func (r *Runner) Run(ctx context.Context, path string) (Summary, error) {
	releases, err := catalog.Load(path)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Total: len(releases), Found: make(map[string]int)}
	r.logger.Info("Starting enrichment", zap.String("path", path), zap.Int("releases", len(releases)))

	r.manager.AuthenticateAll(ctx)

	enabled := r.manager.Clients()
	names := make([]string, 0, len(enabled))
	for _, client := range enabled {
		names = append(names, string(client.Name()))
	}
	r.logger.Info("Providers authenticated", zap.Strings("enabled", names))
	if r.options.OnReady != nil {
		r.options.OnReady()
	}

	for i, release := range releases {
		if ctx.Err() != nil {
			break
		}

		if !r.enrichRelease(ctx, release, summary.Found) {
			break
		}
		summary.Processed++

		r.logger.Info("Release enriched",
			zap.Int("index", i+1),
			zap.Int("total", len(releases)),
			zap.String("artist", release.Artist),
			zap.String("album", release.Album))

		if r.options.CheckpointEvery > 0 && summary.Processed%r.options.CheckpointEvery == 0 &&
			summary.Processed < len(releases) {
			if err := catalog.Save(path, releases); err != nil {
				return summary, fmt.Errorf("checkpoint: %w", err)
			}
			r.logger.Debug("Checkpoint written", zap.Int("processed", summary.Processed))
		}
	}

	if err := catalog.Save(path, releases); err != nil {
		return summary, err
	}

	if err := ctx.Err(); err != nil {
		r.logger.Warn("Enrichment interrupted",
			zap.Int("processed", summary.Processed),
			zap.Int("total", summary.Total))
		return summary, err
	}

	r.logger.Info("Enrichment finished",
		zap.String("path", path),
		zap.Int("processed", summary.Processed),
		zap.Any("found", summary.Found))
	return summary, nil
}

// enrichRelease resolves every field of one release. Results are applied only
// when the context is still live; it reports whether they were.
func (r *Runner) enrichRelease(ctx context.Context, release *core.Release, found map[string]int) bool {
	start := time.Now()
	tracks := evidence.NewTracks()
	tracks.Append(r.collector.Collect(ctx, release.Artist, release.Album)...)

	links := make(map[musiclink.ProviderName]string, len(LinkOrder))
	attempted := make(map[musiclink.ProviderName]bool, len(LinkOrder))
	for _, name := range LinkOrder {
		client, ok := r.manager.Client(name)
		if !ok {
			continue
		}
		attempted[name] = true
		links[name] = r.storeLink(name, r.resolver.ResolveLink(ctx, client, release, tracks).URL)
	}

	preview := r.resolver.ResolvePreview(ctx, release, tracks)

	if ctx.Err() != nil {
		return false
	}

	for _, name := range LinkOrder {
		// A provider that was never tried keeps whatever an earlier run stored.
		if !attempted[name] {
			continue
		}
		release.SetLink(name, links[name])
		if links[name] != "" {
			found[linkKeys[name]]++
			r.metrics.LinkFound(linkKeys[name])
		}
	}

	previewURL := r.storePreview(preview)
	release.SetPreview(previewURL)
	if previewURL != "" {
		found[core.KeyPreviewURL]++
		r.metrics.LinkFound(core.KeyPreviewURL)
	}

	r.metrics.ReleaseDone(time.Since(start).Seconds(), tracks.Len())
	return true
}

// storePreview keeps the preview exactly as the provider returned it; CDN
// previews are signed, so any re-encoding of the query breaks them.
func (r *Runner) storePreview(preview pipeline.Outcome) string {
	if preview.URL == "" {
		return ""
	}
	if !text.IsHTTPLink(preview.URL) {
		r.logger.Warn("Discarding preview that is not an http(s) link",
			zap.String("provider", string(preview.Provider)),
			zap.String("url", preview.URL))
		return ""
	}
	return preview.URL
}

// storeLink cleans a resolved link and drops it when it is not hosted by the provider.
func (r *Runner) storeLink(name musiclink.ProviderName, url string) string {
	if url == "" {
		return ""
	}
	cleaned := text.CleanLink(url)
	if cleaned == "" || !text.BelongsTo(cleaned, name) {
		r.logger.Warn("Discarding link not served by its provider",
			zap.String("provider", string(name)),
			zap.String("url", url))
		return ""
	}
	return cleaned
}
