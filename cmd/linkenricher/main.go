// Package main provides the linkenricher CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"linkenricher/internal/core"
	"linkenricher/internal/enrich"
	"linkenricher/internal/evidence"
	httpserver "linkenricher/internal/http"
	"linkenricher/internal/metrics"
	"linkenricher/internal/pipeline"
	"linkenricher/pkg/musiclink"
)

const envPrefix = "LINKENRICHER"

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "linkenricher <catalog.json>",
	Short: "linkenricher - add streaming links and previews to a release catalog",
	Long: `linkenricher reads a JSON array of {artist, album} records, looks each release up on
Spotify, Deezer and Apple Music, and writes the store links and one audio preview back
into the same file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEnrich,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := core.DefaultConfig()
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&cfgFile, "config", "", "config file (default is .env)")
	flags.String("log-level", defaults.Log.Level, "log level (debug, info, warn, error)")
	flags.String("spotify-client-id", "", "Spotify client ID")
	flags.String("spotify-client-secret", "", "Spotify client secret")
	flags.String("spotify-market", defaults.Spotify.Market, "Spotify market used for track listings")
	flags.String("discogs-token", "", "Discogs personal access token (track evidence)")
	flags.String("musicbrainz-user-agent", defaults.MusicBrainz.UserAgent, "User-Agent sent to MusicBrainz")
	flags.String("apple-music-key-id", "", "Apple Music key identifier")
	flags.String("apple-music-team-id", "", "Apple developer team identifier")
	flags.String("apple-music-private-key-path", "", "Path to the Apple Music .p8 signing key")
	flags.String("apple-music-storefront", defaults.AppleMusic.Storefront, "Apple Music storefront")
	flags.Duration("rate-limit-delay", defaults.RateLimit.Delay, "Pause after every provider call")
	flags.String("throttle-mode", defaults.RateLimit.Mode, "Throttle strategy (fixed, token-bucket)")
	flags.Int("album-threshold", defaults.Pipeline.AlbumThreshold, "Match threshold for the album title")
	flags.Int("variant-threshold", defaults.Pipeline.VariantThreshold, "Match threshold for edition variants")
	flags.Int("broad-threshold", defaults.Pipeline.BroadThreshold, "Match threshold for album-only searches")
	flags.Int("artist-threshold", defaults.Pipeline.ArtistThreshold, "Match threshold for artist names")
	flags.StringSlice("edition-suffixes", defaults.Pipeline.EditionSuffixes, "Edition suffixes tried, in order")
	flags.Int("checkpoint-every", defaults.App.CheckpointEvery, "Write the catalog after every N releases (0 = only at the end)")
	flags.Int("evidence-cache-size", defaults.App.EvidenceCacheSize, "Releases whose track evidence is memoized")
	flags.String("metrics-addr", defaults.Server.Addr, "Serve /metrics and probes on this address (empty disables)")
	flags.Bool("generate-env-example", false, "Generate .env.example file from current configuration and exit")

	if err := viper.BindPFlags(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	configureSpotify(cfg)
	configureAppleMusic(cfg)
	configureLookups(cfg)
	configurePipeline(cfg)
	configureServer(cfg)
	configureApp(cfg)

	return cfg
}

func configureSpotify(cfg *core.Config) {
	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")
	if market := viper.GetString("spotify-market"); market != "" {
		cfg.Spotify.Market = market
	}
}

func configureAppleMusic(cfg *core.Config) {
	cfg.AppleMusic.KeyID = viper.GetString("apple-music-key-id")
	cfg.AppleMusic.TeamID = viper.GetString("apple-music-team-id")
	cfg.AppleMusic.PrivateKeyPath = viper.GetString("apple-music-private-key-path")
	if storefront := viper.GetString("apple-music-storefront"); storefront != "" {
		cfg.AppleMusic.Storefront = storefront
	}
}

func configureLookups(cfg *core.Config) {
	cfg.Discogs.Token = viper.GetString("discogs-token")
	if userAgent := viper.GetString("musicbrainz-user-agent"); userAgent != "" {
		cfg.MusicBrainz.UserAgent = userAgent
	}
}

func configurePipeline(cfg *core.Config) {
	cfg.Pipeline.AlbumThreshold = viper.GetInt("album-threshold")
	cfg.Pipeline.VariantThreshold = viper.GetInt("variant-threshold")
	cfg.Pipeline.BroadThreshold = viper.GetInt("broad-threshold")
	cfg.Pipeline.ArtistThreshold = viper.GetInt("artist-threshold")
	if suffixes := viper.GetStringSlice("edition-suffixes"); len(suffixes) > 0 {
		cfg.Pipeline.EditionSuffixes = suffixes
	}

	cfg.RateLimit.Delay = viper.GetDuration("rate-limit-delay")
	cfg.RateLimit.Mode = viper.GetString("throttle-mode")
}

func configureServer(cfg *core.Config) {
	cfg.Server.Addr = viper.GetString("metrics-addr")
	cfg.Log.Level = viper.GetString("log-level")
}

func configureApp(cfg *core.Config) {
	cfg.App.CheckpointEvery = viper.GetInt("checkpoint-every")
	cfg.App.EvidenceCacheSize = viper.GetInt("evidence-cache-size")
	if cfg.App.EvidenceCacheSize <= 0 {
		cfg.App.EvidenceCacheSize = core.DefaultEvidenceCacheSize
	}
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runEnrich(cmd *cobra.Command, args []string) error {
	if viper.GetBool("generate-env-example") {
		return generateEnvExample(cmd)
	}
	if len(args) != 1 {
		return errors.New("expected exactly one catalog path")
	}
	defer func() { _ = logger.Sync() }()

	if err := config.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting linkenricher",
		zap.String("catalog", args[0]),
		zap.Duration("rate_limit_delay", config.RateLimit.Delay),
		zap.String("throttle_mode", config.RateLimit.Mode),
		zap.String("metrics_addr", config.Server.Addr))

	svcs := initializeServices()
	return runServices(ctx, svcs, args[0])
}

type services struct {
	runner     *enrich.Runner
	httpServer *httpserver.Server
}

func initializeServices() *services {
	m := metrics.New()

	manager := musiclink.NewManager(logger.Named("providers"),
		musiclink.NewSpotifyClient(musiclink.SpotifyOptions{
			ClientID:     config.Spotify.ClientID,
			ClientSecret: config.Spotify.ClientSecret,
			Market:       config.Spotify.Market,
		}, newThrottle()),
		musiclink.NewDeezerClient(newThrottle()),
		musiclink.NewAppleMusicClient(musiclink.AppleMusicOptions{
			KeyID:      config.AppleMusic.KeyID,
			TeamID:     config.AppleMusic.TeamID,
			PrivateKey: readAppleMusicKey(config.AppleMusic.PrivateKeyPath),
			Storefront: config.AppleMusic.Storefront,
		}, newThrottle()),
	)

	collector := evidence.NewCollector(logger.Named("evidence"), m, config.App.EvidenceCacheSize, createTrackSources()...)
	resolver := pipeline.NewResolver(manager, config.Pipeline, logger.Named("pipeline"), m)
	svcs := &services{}
	options := enrich.Options{CheckpointEvery: config.App.CheckpointEvery}
	if config.Server.Addr != "" {
		svcs.httpServer = httpserver.NewServer(&config.Server, m, logger.Named("http"))
		options.OnReady = func() { svcs.httpServer.SetReady(true) }
	}
	svcs.runner = enrich.NewRunner(manager, collector, resolver, options, logger.Named("enrich"), m)
	return svcs
}

// newThrottle is called once per provider so each gets its own pacing.
func newThrottle() musiclink.Throttle {
	return musiclink.NewThrottle(config.RateLimit.Mode, config.RateLimit.Delay)
}

func createTrackSources() []musiclink.TrackSource {
	sources := []musiclink.TrackSource{
		musiclink.NewMusicBrainzSource(config.MusicBrainz.UserAgent, newThrottle()),
	}
	if config.Discogs.Token == "" {
		logger.Info("Discogs token not set, track evidence comes from MusicBrainz only")
		return sources
	}
	return append(sources, musiclink.NewDiscogsSource(config.Discogs.Token, newThrottle()))
}

// readAppleMusicKey returns nil when the key cannot be read; Apple Music then
// fails authentication and is skipped for the run.
func readAppleMusicKey(path string) []byte {
	if path == "" {
		return nil
	}
	key, err := os.ReadFile(path) //nolint:gosec // G304: operator supplied key path
	if err != nil {
		logger.Warn("Failed to read Apple Music private key", zap.String("path", path), zap.Error(err))
		return nil
	}
	return key
}

func runServices(ctx context.Context, svcs *services, path string) error {
	g, gCtx := errgroup.WithContext(ctx)
	runCtx, stopServer := context.WithCancel(gCtx)
	defer stopServer()

	if svcs.httpServer != nil {
		g.Go(func() error {
			return svcs.httpServer.Start(runCtx)
		})
	}

	var summary enrich.Summary
	g.Go(func() error {
		defer stopServer()

		var err error
		summary, err = svcs.runner.Run(gCtx, path)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("linkenricher stopped with error", zap.Error(err))
		return err
	}

	logger.Info("linkenricher finished",
		zap.Int("processed", summary.Processed),
		zap.Int("total", summary.Total))
	return nil
}
