package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xextract/internal/app"
	"github.com/ibeckermayer/xextract/internal/browser"
	"github.com/ibeckermayer/xextract/internal/export"
	"github.com/ibeckermayer/xextract/internal/logger"
	"github.com/ibeckermayer/xextract/internal/natsbus"
	"github.com/ibeckermayer/xextract/internal/notifier"
	"github.com/ibeckermayer/xextract/internal/scraper"
	"github.com/ibeckermayer/xextract/internal/store"
)

var (
	extractLimit int
	extractOut   string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run one extraction session in the foreground",
	Long: `Open the feed (or attach to an open X tab when remote_url is set),
collect posts until the limit is reached and store them.

Ctrl-C stops the session; everything collected so far is kept.`,
	Example: `  # Collect the default number of posts
  xextract extract

  # Collect 300 posts and also write CSV and JSON to ./out
  xextract extract --limit 300 --out ./out`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().IntVarP(&extractLimit, "limit", "n", 0, "number of posts to collect (default from config)")
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "also export the collection to this directory")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	var nc *nats.Conn
	if e.cfg.Events.NATSURL != "" {
		nc, err = natsbus.Connect(e.cfg.Events.NATSURL, "xextract-cli")
		if err != nil {
			e.log.Warn().Err(err).Msg("Events will only be logged")
		} else {
			defer nc.Close()
		}
	}

	snapshotDir, err := store.PostsCacheDir()
	if err != nil {
		return err
	}

	sc := scraper.New(e.cfg.Extraction, e.cfg.Pacing, logger.Component(e.log, "scraper"))
	events := notifier.NewFromConfig(e.cfg.Events, nc, logger.Component(e.log, "notifier"))
	a := app.New(sc, e.store, events, browser.Factory(e.cfg.Extraction, e.log), e.log, app.WithSnapshotDir(snapshotDir))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Handle(ctx, app.Command{Action: app.ActionStart, Limit: extractLimit}).Err(); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		a.Handle(context.Background(), app.Command{Action: app.ActionStop})
	}()

	out, err := a.Wait(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("%s: collected %d posts\n", out.State, len(out.Posts))

	if extractOut != "" && len(out.Posts) > 0 {
		paths, err := export.WriteFiles(extractOut, time.Now(), out.Posts)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s\nWrote %s\n", paths.CSV, paths.JSON)
	}

	if out.State == scraper.Errored {
		return out.Err
	}
	return nil
}
