// Package pipeline resolves store links and audio previews for a release
// by walking a fallback ladder over one or more catalog providers.
package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"linkenricher/internal/core"
	"linkenricher/internal/evidence"
	"linkenricher/internal/metrics"
	"linkenricher/pkg/fuzzy"
	"linkenricher/pkg/musiclink"
)

// Tier is a stage of the fallback ladder.
type Tier int

const (
	TierNone Tier = iota
	TierAlbum
	TierBroad
	TierTrack
	TierArtist
)

func (t Tier) String() string {
	switch t {
	case TierAlbum:
		return "album"
	case TierBroad:
		return "broad"
	case TierTrack:
		return "track"
	case TierArtist:
		return "artist"
	default:
		return "none"
	}
}

// PreviewOrder is the provider priority for audio previews.
var PreviewOrder = []musiclink.ProviderName{musiclink.AppleMusic, musiclink.Deezer, musiclink.Spotify}

// Outcome is the result of one ladder run. An empty URL means nothing was found.
type Outcome struct {
	URL      string
	Tier     Tier
	Provider musiclink.ProviderName
}

func (o Outcome) Found() bool {
	return o.URL != ""
}

// errProviderStopped ends a ladder early for one provider.
var errProviderStopped = errors.New("provider stopped")

// albumVisitor turns an accepted album candidate into a result; "" keeps the ladder going.
type albumVisitor func(ctx context.Context, candidate musiclink.Candidate) (string, error)

// trackVisitor picks the result out of a track search hit; "" keeps the ladder going.
type trackVisitor func(candidate *musiclink.Candidate) string

type Resolver struct {
	manager *musiclink.Manager
	matcher *fuzzy.Matcher
	config  core.PipelineConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewResolver(manager *musiclink.Manager, config core.PipelineConfig, logger *zap.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{
		manager: manager,
		matcher: fuzzy.NewMatcher(),
		config:  config,
		logger:  logger,
		metrics: m,
	}
}

// ResolveLink finds the page of the release on client. Track listings of
// accepted albums are appended to tracks. A disabled provider yields TierNone.
func (r *Resolver) ResolveLink(ctx context.Context, client musiclink.Client, release *core.Release, tracks *evidence.Tracks) Outcome {
	name := client.Name()
	if !r.manager.Enabled(name) {
		return Outcome{Provider: name}
	}

	artists := fuzzy.SplitArtists(release.Artist)
	collectTracks := func(ctx context.Context, candidate musiclink.Candidate) (string, error) {
		titles, err := client.ListAlbumTracks(ctx, candidate.ID)
		if err := r.check(ctx, name, "list album tracks", err); err != nil {
			return "", err
		}
		tracks.Append(titles...)
		return candidate.URL, nil
	}

	outcome, err := r.albumTiers(ctx, client, artists, release.Album, collectTracks)
	if err == nil && !outcome.Found() {
		outcome, err = r.trackTier(ctx, client, artists, tracks, func(c *musiclink.Candidate) string { return c.URL })
	}
	if err == nil && !outcome.Found() {
		outcome, err = r.artistTier(ctx, client, artists)
	}

	outcome.Provider = name
	r.logOutcome("Link resolved", release, outcome, err)
	return outcome
}

// ResolvePreview walks PreviewOrder and returns the first preview found.
func (r *Resolver) ResolvePreview(ctx context.Context, release *core.Release, tracks *evidence.Tracks) Outcome {
	artists := fuzzy.SplitArtists(release.Artist)

	for _, name := range PreviewOrder {
		if ctx.Err() != nil {
			break
		}
		client, ok := r.manager.Client(name)
		if !ok {
			continue
		}

		albumPreview := func(ctx context.Context, candidate musiclink.Candidate) (string, error) {
			preview, err := client.FindAlbumPreview(ctx, candidate.ID)
			if err := r.check(ctx, name, "find album preview", err); err != nil {
				return "", err
			}
			return preview, nil
		}

		outcome, err := r.albumTiers(ctx, client, artists, release.Album, albumPreview)
		if err == nil && !outcome.Found() {
			outcome, err = r.trackTier(ctx, client, artists, tracks, func(c *musiclink.Candidate) string { return c.PreviewURL })
		}

		outcome.Provider = name
		r.logOutcome("Preview resolved", release, outcome, err)
		if outcome.Found() {
			return outcome
		}
	}

	return Outcome{}
}

func (r *Resolver) albumTiers(
	ctx context.Context, client musiclink.Client, artists []string, album string, visit albumVisitor,
) (Outcome, error) {
	url, err := r.variantTier(ctx, client, artists, album, visit)
	r.recordTier(client.Name(), TierAlbum, url)
	if url != "" {
		return Outcome{URL: url, Tier: TierAlbum}, nil
	}
	if err != nil {
		return Outcome{}, err
	}

	url, err = r.broadTier(ctx, client, artists, album, visit)
	r.recordTier(client.Name(), TierBroad, url)
	if url != "" {
		return Outcome{URL: url, Tier: TierBroad}, nil
	}
	return Outcome{}, err
}

func (r *Resolver) variantTier(
	ctx context.Context, client musiclink.Client, artists []string, album string, visit albumVisitor,
) (string, error) {
	for _, artist := range artists {
		for i, variant := range r.variants(album) {
			threshold := r.config.VariantThreshold
			if i == 0 {
				threshold = r.config.AlbumThreshold
			}

			candidates, err := client.SearchAlbum(ctx, artist, variant)
			if err := r.check(ctx, client.Name(), "search album", err); err != nil {
				return "", err
			}

			for _, candidate := range candidates {
				if !r.matcher.Matches(album, candidate.Title, threshold) ||
					!r.matcher.MatchesArtist(artist, candidate.Artist, r.config.ArtistThreshold) {
					continue
				}
				url, err := visit(ctx, candidate)
				if err != nil || url != "" {
					return url, err
				}
			}
		}
	}
	return "", nil
}

func (r *Resolver) broadTier(
	ctx context.Context, client musiclink.Client, artists []string, album string, visit albumVisitor,
) (string, error) {
	candidates, err := client.SearchAlbum(ctx, "", album)
	if err := r.check(ctx, client.Name(), "search album", err); err != nil {
		return "", err
	}

	for _, candidate := range candidates {
		if !r.matcher.Matches(album, candidate.Title, r.config.BroadThreshold) {
			continue
		}
		for _, artist := range artists {
			if !r.matcher.MatchesArtist(artist, candidate.Artist, r.config.ArtistThreshold) {
				continue
			}
			url, err := visit(ctx, candidate)
			if err != nil || url != "" {
				return url, err
			}
			break
		}
	}
	return "", nil
}

// trackTier iterates a snapshot of the evidence; hits are taken without a match check.
func (r *Resolver) trackTier(
	ctx context.Context, client musiclink.Client, artists []string, tracks *evidence.Tracks, pick trackVisitor,
) (Outcome, error) {
	for _, title := range tracks.Titles() {
		for _, artist := range artists {
			candidate, err := client.SearchTrack(ctx, artist, title)
			if err := r.check(ctx, client.Name(), "search track", err); err != nil {
				r.recordTier(client.Name(), TierTrack, "")
				return Outcome{}, err
			}
			if candidate == nil {
				continue
			}
			if url := pick(candidate); url != "" {
				r.recordTier(client.Name(), TierTrack, url)
				return Outcome{URL: url, Tier: TierTrack}, nil
			}
		}
	}
	r.recordTier(client.Name(), TierTrack, "")
	return Outcome{}, nil
}

func (r *Resolver) artistTier(ctx context.Context, client musiclink.Client, artists []string) (Outcome, error) {
	for _, artist := range artists {
		candidate, err := client.SearchArtist(ctx, artist)
		if err := r.check(ctx, client.Name(), "search artist", err); err != nil {
			r.recordTier(client.Name(), TierArtist, "")
			return Outcome{}, err
		}
		if candidate != nil && candidate.URL != "" {
			r.recordTier(client.Name(), TierArtist, candidate.URL)
			return Outcome{URL: candidate.URL, Tier: TierArtist}, nil
		}
	}
	r.recordTier(client.Name(), TierArtist, "")
	return Outcome{}, nil
}

// variants returns the album title followed by each edition suffix variant.
func (r *Resolver) variants(album string) []string {
	variants := make([]string, 0, len(r.config.EditionSuffixes)+1)
	variants = append(variants, album)
	for _, suffix := range r.config.EditionSuffixes {
		variants = append(variants, album+" "+suffix)
	}
	return variants
}

// check absorbs transport failures as "no result". It returns a non-nil error
// when the ladder must stop: the context ended or the provider rejected its
// credentials, in which case the provider is disabled for the rest of the run.
func (r *Resolver) check(ctx context.Context, name musiclink.ProviderName, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err == nil {
		return nil
	}

	var authErr *musiclink.AuthError
	if errors.As(err, &authErr) {
		r.metrics.ProviderError(string(name), metrics.ErrorKindAuth)
		r.manager.Disable(name, err)
		return errProviderStopped
	}

	r.metrics.ProviderError(string(name), metrics.ErrorKindTransport)
	r.logger.Warn("Provider call failed, treating as no result",
		zap.String("provider", string(name)),
		zap.String("op", op),
		zap.Error(err))
	return nil
}

func (r *Resolver) recordTier(name musiclink.ProviderName, tier Tier, url string) {
	outcome := metrics.OutcomeMiss
	if url != "" {
		outcome = metrics.OutcomeFound
	}
	r.metrics.Lookup(string(name), tier.String(), outcome)
}

func (r *Resolver) logOutcome(msg string, release *core.Release, outcome Outcome, err error) {
	fields := []zap.Field{
		zap.String("provider", string(outcome.Provider)),
		zap.String("artist", release.Artist),
		zap.String("album", release.Album),
		zap.String("tier", outcome.Tier.String()),
	}
	switch {
	case errors.Is(err, errProviderStopped):
		r.logger.Info(msg+": provider disabled mid-ladder", fields...)
	case err != nil:
		r.logger.Info(msg+": interrupted", append(fields, zap.Error(err))...)
	case outcome.Found():
		r.logger.Info(msg, append(fields, zap.String("url", outcome.URL))...)
	default:
		r.logger.Info(msg+": not found", fields...)
	}
}
