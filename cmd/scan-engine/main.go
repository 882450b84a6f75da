package main

import (
	"context"
	"database/sql"
	"errors"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ausmo/scan-engine/db"
	"github.com/ausmo/scan-engine/internal/api"
	"github.com/ausmo/scan-engine/internal/clock"
	"github.com/ausmo/scan-engine/internal/config"
	"github.com/ausmo/scan-engine/internal/events"
	"github.com/ausmo/scan-engine/internal/feedback"
	"github.com/ausmo/scan-engine/internal/logging"
	"github.com/ausmo/scan-engine/internal/metrics"
	"github.com/ausmo/scan-engine/internal/model"
	"github.com/ausmo/scan-engine/internal/notifications"
	"github.com/ausmo/scan-engine/internal/scanner"
	"github.com/ausmo/scan-engine/internal/settings"
	"github.com/ausmo/scan-engine/internal/suggestions"
	"github.com/ausmo/scan-engine/internal/switchio"
	"github.com/ausmo/scan-engine/internal/tutorial"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.LogFile)

	log.Info().
		Str("db_file", cfg.DBFile).
		Int("api_port", cfg.APIPort).
		Msg("Starting scan engine")

	conn, err := db.Open(cfg.DBFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer conn.Close()

	if err := db.Seed(conn, cfg.ScanSettings()); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed database")
	}

	store := settings.NewStore(startupSettings(conn, cfg))

	var mc *metrics.Client
	if cfg.EnableDatadog {
		mc = metrics.Init(cfg.DDAgentAddr, cfg.DDNamespace, cfg.DDTags)
	}
	notifier := notifications.New(cfg.NtfyTopic)

	bus := events.NewBus()
	engine := scanner.New(store, bus, clock.New(),
		feedback.NewSpeaker(cfg.TTSCommand), feedback.NoopHaptics{})
	engine.Initialize()
	engine.SetRecorder(db.NewSelectionStore(conn))
	engine.SetNotifier(notifier)
	engine.SetMetrics(mc)

	server := api.NewServer(conn, engine,
		suggestions.NewService(suggestions.DefaultRules),
		tutorial.NewService(conn))
	server.SetMetrics(mc)

	poller := switchio.NewPoller(cfg.Switches, store, engine, switchio.NewPinctrlReader(), notifier)
	if poller.Configured() {
		if err := poller.Validate(); err != nil {
			log.Fatal().Err(err).Msg("Switch pin validation failed")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx, cfg.APIPort)
	})
	g.Go(func() error {
		return poller.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		engine.StopScanning()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("Scan engine exited with error")
	}
	log.Info().Msg("Scan engine stopped")
}

// startupSettings prefers the persisted active profile over the config
// file's scan defaults, so a reboot keeps the user's last setup.
func startupSettings(conn *sql.DB, cfg config.Config) model.ScanSettings {
	profile, err := db.GetActiveProfile(conn)
	if err != nil {
		log.Warn().Err(err).Msg("No active profile found, using config defaults")
		return cfg.ScanSettings()
	}
	log.Info().Str("profile", profile.Name).Msg("Loaded active profile")
	return profile.Settings
}
