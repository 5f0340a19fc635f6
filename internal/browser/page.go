package browser

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/ibeckermayer/xextract/internal/scraper"
)

// visiblePostsJS returns the outerHTML of every rendered post container that
// is not hidden and has layout.
const visiblePostsJS = `(function(sel) {
	return Array.from(document.querySelectorAll(sel))
		.filter(el => !el.hidden && el.offsetParent !== null)
		.map(el => el.outerHTML);
})(%q)`

// Page is a chromedp tab showing the feed.
type Page struct {
	tab      context.Context
	close    func()
	selector string

	// last throttling status seen on the feed API, cleared when reported
	throttled atomic.Int64
}

func newPage(tab context.Context, close func()) *Page {
	p := &Page{tab: tab, close: close, selector: scraper.PostArticle}
	chromedp.ListenTarget(tab, func(ev any) {
		if e, ok := ev.(*network.EventResponseReceived); ok {
			p.observe(e.Response.URL, e.Response.Status)
		}
	})
	return p
}

// observe remembers throttling answers from X's internal API.
func (p *Page) observe(url string, status int64) {
	if (status == 429 || status == 403) && strings.Contains(url, "/i/api/") {
		p.throttled.Store(status)
	}
}

// run executes actions in the tab, aborting when ctx is done.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// VisiblePosts returns the rendered posts in DOM order as parsed nodes.
func (p *Page) VisiblePosts(ctx context.Context) ([]*goquery.Selection, error) {
	if status := p.throttled.Swap(0); status != 0 {
		return nil, fmt.Errorf("%w: feed API answered %d", scraper.ErrRateLimited, status)
	}

	var fragments []string
	if err := p.run(ctx, chromedp.Evaluate(fmt.Sprintf(visiblePostsJS, p.selector), &fragments)); err != nil {
		return nil, fmt.Errorf("failed to query visible posts: %w", err)
	}

	nodes := make([]*goquery.Selection, 0, len(fragments))
	for _, html := range fragments {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return nil, fmt.Errorf("failed to parse post node: %w", err)
		}
		if node := doc.Find(p.selector).First(); node.Length() > 0 {
			nodes = append(nodes, node)
		}
	}
	return nodes, nil
}

// ScrollY returns the vertical scroll offset
func (p *Page) ScrollY(ctx context.Context) (float64, error) {
	var y float64
	if err := p.run(ctx, chromedp.Evaluate(`window.scrollY`, &y)); err != nil {
		return 0, fmt.Errorf("failed to read scroll offset: %w", err)
	}
	return y, nil
}

// ViewportHeight returns the window's inner height
func (p *Page) ViewportHeight(ctx context.Context) (float64, error) {
	var h float64
	if err := p.run(ctx, chromedp.Evaluate(`window.innerHeight`, &h)); err != nil {
		return 0, fmt.Errorf("failed to read viewport height: %w", err)
	}
	return h, nil
}

// ScrollTo jumps to vertical offset y
func (p *Page) ScrollTo(ctx context.Context, y float64) error {
	if err := p.run(ctx, chromedp.Evaluate(fmt.Sprintf(`window.scrollTo(0, %f)`, y), nil)); err != nil {
		return fmt.Errorf("failed to scroll: %w", err)
	}
	return nil
}

// Close releases the tab and, for launched browsers, the browser process.
func (p *Page) Close() {
	if p.close != nil {
		p.close()
	}
}

var _ scraper.Page = (*Page)(nil)
