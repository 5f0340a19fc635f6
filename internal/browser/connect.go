package browser

import (
	"context"
	"fmt"
	"regexp"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/ibeckermayer/xextract/internal/config"
	"github.com/ibeckermayer/xextract/internal/scraper"
)

var feedURL = regexp.MustCompile(`^https://(x\.com|twitter\.com)/`)

// IsFeedURL reports whether url belongs to X.
func IsFeedURL(url string) bool {
	return feedURL.MatchString(url)
}

// Connect returns the feed page. With a remote debugging URL it attaches to
// the first open X tab of that browser; otherwise it launches Chrome and
// opens the configured feed.
func Connect(ctx context.Context, cfg config.ExtractionConfig, log zerolog.Logger) (*Page, error) {
	if cfg.RemoteURL != "" {
		return attach(ctx, cfg, log)
	}
	return launch(ctx, cfg, log)
}

func attach(ctx context.Context, cfg config.ExtractionConfig, log zerolog.Logger) (*Page, error) {
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, cfg.RemoteURL)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	cleanup := func() {
		browserCancel()
		allocCancel()
	}

	if err := chromedp.Run(browserCtx); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.RemoteURL, err)
	}

	targets, err := chromedp.Targets(browserCtx)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to list tabs: %w", err)
	}

	for _, t := range targets {
		if t.Type != "page" || !IsFeedURL(t.URL) {
			continue
		}
		tabCtx, tabCancel := chromedp.NewContext(browserCtx, chromedp.WithTargetID(t.TargetID))
		if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
			tabCancel()
			cleanup()
			return nil, fmt.Errorf("failed to attach to tab %s: %w", t.URL, err)
		}
		log.Info().Str("url", t.URL).Msg("Attached to open X tab")
		return newPage(tabCtx, func() {
			tabCancel()
			cleanup()
		}), nil
	}

	cleanup()
	return nil, fmt.Errorf("no open X tab found at %s", cfg.RemoteURL)
}

func launch(ctx context.Context, cfg config.ExtractionConfig, log zerolog.Logger) (*Page, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, Options(cfg)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	cleanup := func() {
		tabCancel()
		allocCancel()
	}

	log.Info().Str("url", cfg.FeedURL).Bool("headless", cfg.Headless).Msg("Launching browser")
	if err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(cfg.FeedURL),
		chromedp.WaitVisible(scraper.FeedContainer, chromedp.ByQuery),
	); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to load feed: %w", err)
	}

	return newPage(tabCtx, cleanup), nil
}

// BotTest opens bot.sannysoft.com with the stealth options so the browser
// fingerprint can be audited. It returns once the page is loaded; the
// returned func closes the browser.
func BotTest(ctx context.Context, cfg config.ExtractionConfig) (func(), error) {
	cfg.Headless = false
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, Options(cfg)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	cleanup := func() {
		tabCancel()
		allocCancel()
	}

	if err := chromedp.Run(tabCtx,
		chromedp.Navigate("https://bot.sannysoft.com"),
		chromedp.WaitVisible("body", chromedp.ByQuery),
	); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}
	return cleanup, nil
}

// Factory opens one page per extraction session. The page outlives the
// context it was requested with; only the returned release func closes it.
func Factory(cfg config.ExtractionConfig, log zerolog.Logger) func(ctx context.Context) (scraper.Page, func(), error) {
	return func(ctx context.Context) (scraper.Page, func(), error) {
		page, err := Connect(context.WithoutCancel(ctx), cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return page, page.Close, nil
	}
}
