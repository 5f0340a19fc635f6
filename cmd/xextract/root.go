package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xextract/internal/config"
	"github.com/ibeckermayer/xextract/internal/logger"
	"github.com/ibeckermayer/xextract/internal/store"
)

var (
	// Global flags
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "xextract",
	Short: "Collect posts from your X feed and analyze when they were posted",
	Long: `xextract scrolls the X home feed in a real browser at a human pace,
collects the posts it sees and keeps them in a local database.

The collection can be exported to CSV or JSON and summarized by posting
hour and day of week.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is <user config dir>/xextract/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// env is what every command that touches the collection needs.
type env struct {
	cfg   *config.Config
	log   zerolog.Logger
	store *store.Store
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.log.Warn().Err(err).Msg("Failed to close store")
	}
}

// loadConfig applies the config file, .env and flag overrides in that order.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.LoadFrom(configFile)
	} else {
		cfg, _, err = config.LoadOrInit()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setup() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	dbPath, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}
	st, err := store.New(dbPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logging, logger.ErrorLogHook{Recorder: st})
	if err != nil {
		st.Close()
		return nil, err
	}
	log.Debug().Str("store", dbPath).Msg("Store opened")

	return &env{cfg: cfg, log: log, store: st}, nil
}

// outputDir resolves a directory flag, defaulting to a folder in the cache.
func outputDir(flag, sub string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	cacheDir, err := config.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, sub), nil
}
