// Package tray is the menu bar front end of the app.
package tray

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/getlantern/systray"
	"github.com/pkg/browser"
	"github.com/rs/zerolog"

	"github.com/ibeckermayer/xextract/internal/analytics"
	"github.com/ibeckermayer/xextract/internal/app"
	"github.com/ibeckermayer/xextract/internal/config"
	"github.com/ibeckermayer/xextract/internal/export"
	"github.com/ibeckermayer/xextract/internal/notifier/providers"
	"github.com/ibeckermayer/xextract/internal/report"
	"github.com/ibeckermayer/xextract/internal/types"
)

//go:embed icon.png
var iconBytes []byte

// PostSource provides the stored collection for export and reports
type PostSource interface {
	AllPosts() ([]types.Post, error)
}

// Tray wires menu items to app commands.
type Tray struct {
	app       *app.App
	posts     PostSource
	builder   *report.Builder
	outputDir string
	limit     int
	log       zerolog.Logger

	status *systray.MenuItem
	start  *systray.MenuItem
	stop   *systray.MenuItem
}

// New creates the tray. Exports and reports are written to outputDir.
func New(a *app.App, posts PostSource, builder *report.Builder, outputDir string, limit int, log zerolog.Logger) *Tray {
	return &Tray{
		app:       a,
		posts:     posts,
		builder:   builder,
		outputDir: outputDir,
		limit:     limit,
		log:       log.With().Str("component", "tray").Logger(),
	}
}

// Sender mirrors session events in the menu bar title.
func (t *Tray) Sender() providers.SenderFunc {
	return func(_ context.Context, ev types.Event) error {
		systray.SetTitle(Title(ev))
		if t.status != nil {
			t.status.SetTitle(StatusLabel(ev))
		}
		if ev.Kind != types.EventProgress {
			t.setExtracting(false)
		}
		return nil
	}
}

// Title is the short menu bar text for an event
func Title(ev types.Event) string {
	switch ev.Kind {
	case types.EventProgress:
		return fmt.Sprintf("%d/%d", ev.Current, ev.Total)
	case types.EventError:
		return "!"
	default:
		return ""
	}
}

// StatusLabel is the disabled status line at the top of the menu
func StatusLabel(ev types.Event) string {
	switch ev.Kind {
	case types.EventProgress:
		return fmt.Sprintf("● Extracting %d of %d", ev.Current, ev.Total)
	case types.EventError:
		return fmt.Sprintf("○ Failed after %d posts", len(ev.Posts))
	default:
		return fmt.Sprintf("○ %s: %d posts", ev.State, len(ev.Posts))
	}
}

// OnReady is the systray onReady callback that sets up the menu.
func (t *Tray) OnReady() {
	// Template icon for macOS menu bar styling
	systray.SetTemplateIcon(iconBytes, iconBytes)
	systray.SetTitle("")
	systray.SetTooltip("xextract - collect your X feed")

	t.status = systray.AddMenuItem("○ Idle", "Extraction status")
	t.status.Disable()

	systray.AddSeparator()

	t.start = systray.AddMenuItem("Start Extraction", fmt.Sprintf("Collect %d posts from the feed", t.limit))
	t.stop = systray.AddMenuItem("Stop Extraction", "Stop and keep what was collected")
	t.setExtracting(t.app.Extracting())

	systray.AddSeparator()

	mExport := systray.AddMenuItem("Export CSV", "Write stored posts to CSV and JSON")
	mReport := systray.AddMenuItem("Analytics Report", "Open posting time analytics")
	mEditConfig := systray.AddMenuItem("Edit Config", "Open config file in editor")

	systray.AddSeparator()

	mQuit := systray.AddMenuItem("Quit", "Exit xextract")

	go func() {
		for {
			select {
			case <-t.start.ClickedCh:
				resp := t.app.Handle(context.Background(), app.Command{Action: app.ActionStart, Limit: t.limit})
				if err := resp.Err(); err != nil {
					t.log.Warn().Err(err).Msg("Start failed")
					continue
				}
				t.setExtracting(true)
				t.status.SetTitle("● Extracting")

			case <-t.stop.ClickedCh:
				t.app.Handle(context.Background(), app.Command{Action: app.ActionStop})

			case <-mExport.ClickedCh:
				if err := t.exportPosts(); err != nil {
					t.log.Error().Err(err).Msg("Export failed")
				}

			case <-mReport.ClickedCh:
				if err := t.openReport(); err != nil {
					t.log.Error().Err(err).Msg("Report failed")
				}

			case <-mEditConfig.ClickedCh:
				path, err := config.ConfigPath()
				if err != nil {
					t.log.Error().Err(err).Msg("Failed to get config path")
					continue
				}
				if err := browser.OpenFile(path); err != nil {
					t.log.Error().Err(err).Msg("Failed to open config file")
				}

			case <-mQuit.ClickedCh:
				t.app.Handle(context.Background(), app.Command{Action: app.ActionStop})
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) setExtracting(on bool) {
	if t.start == nil || t.stop == nil {
		return
	}
	if on {
		t.start.Disable()
		t.stop.Enable()
	} else {
		t.start.Enable()
		t.stop.Disable()
	}
}

func (t *Tray) exportPosts() error {
	posts, err := t.posts.AllPosts()
	if err != nil {
		return err
	}
	paths, err := export.WriteFiles(t.outputDir, time.Now(), posts)
	if err != nil {
		return err
	}
	t.log.Info().Str("csv", paths.CSV).Int("posts", len(posts)).Msg("Exported posts")
	return browser.OpenFile(paths.CSV)
}

func (t *Tray) openReport() error {
	posts, err := t.posts.AllPosts()
	if err != nil {
		return err
	}
	r, err := t.builder.Build(posts, analytics.AllTime)
	if err != nil {
		return err
	}
	path, err := r.Save(t.outputDir)
	if err != nil {
		return err
	}
	t.log.Info().Str("path", path).Msg("Opening report")
	return browser.OpenFile(path)
}

// OnExit is the systray onExit callback.
func (t *Tray) OnExit() {
	t.log.Info().Msg("xextract shutting down")
}
