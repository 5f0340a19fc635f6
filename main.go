package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/getlantern/systray"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/ibeckermayer/xextract/internal/app"
	"github.com/ibeckermayer/xextract/internal/browser"
	"github.com/ibeckermayer/xextract/internal/config"
	"github.com/ibeckermayer/xextract/internal/logger"
	"github.com/ibeckermayer/xextract/internal/natsbus"
	"github.com/ibeckermayer/xextract/internal/notifier"
	"github.com/ibeckermayer/xextract/internal/report"
	"github.com/ibeckermayer/xextract/internal/scraper"
	"github.com/ibeckermayer/xextract/internal/store"
	"github.com/ibeckermayer/xextract/internal/tray"
)

func main() {
	boot := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()

	// Load or create configuration
	cfg, created, err := config.LoadOrInit()
	if err != nil {
		boot.Warn().Err(err).Msg("Could not load config, using defaults")
		cfg = config.Default()
	} else if created {
		path, _ := config.ConfigPath()
		boot.Info().Str("path", path).Msg("Created default config")
	}
	if err := cfg.ApplyEnv(); err != nil {
		boot.Warn().Err(err).Msg("Ignoring .env")
	}
	if err := cfg.Validate(); err != nil {
		boot.Fatal().Err(err).Msg("Invalid config")
	}

	dbPath, err := cfg.StorePath()
	if err != nil {
		boot.Fatal().Err(err).Msg("Failed to resolve store path")
	}
	st, err := store.New(dbPath)
	if err != nil {
		boot.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	log, err := logger.New(cfg.Logging, logger.ErrorLogHook{Recorder: st})
	if err != nil {
		boot.Fatal().Err(err).Msg("Failed to create logger")
	}

	var nc *nats.Conn
	if cfg.Events.NATSURL != "" {
		if nc, err = natsbus.Connect(cfg.Events.NATSURL, "xextract-tray"); err != nil {
			log.Warn().Err(err).Msg("Events will only be logged")
		} else {
			defer nc.Close()
		}
	}

	cacheDir, err := config.CacheDir()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get cache dir")
	}
	snapshotDir, err := store.PostsCacheDir()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get snapshot dir")
	}

	sc := scraper.New(cfg.Extraction, cfg.Pacing, logger.Component(log, "scraper"))
	events := notifier.NewFromConfig(cfg.Events, nc, logger.Component(log, "notifier"))
	a := app.New(sc, st, events, browser.Factory(cfg.Extraction, log), log, app.WithSnapshotDir(snapshotDir))

	builder, err := report.New(10, time.Local)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create report builder")
	}

	t := tray.New(a, st, builder, filepath.Join(cacheDir, "exports"), cfg.Extraction.DefaultLimit, log)
	events.Add(t.Sender())

	log.Info().Msg("xextract starting")

	// Run systray (blocks until Quit)
	systray.Run(t.OnReady, t.OnExit)
}
