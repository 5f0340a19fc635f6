package scraper

import (
	"errors"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/ibeckermayer/xextract/internal/types"
)

// MaxAssembleRetries is how many scan passes a node may come back empty
// before the assembler stops reporting it as a retry.
const MaxAssembleRetries = 2

// Assembler turns one post node into a Post using the field extractors.
type Assembler struct {
	log zerolog.Logger
	now func() time.Time
}

// NewAssembler creates an assembler that stamps relative times against now.
func NewAssembler(log zerolog.Logger, now func() time.Time) *Assembler {
	if now == nil {
		now = time.Now
	}
	return &Assembler{log: log, now: now}
}

// Assemble extracts all fields from node. It reports false when neither text
// nor author could be resolved; retry is how many earlier passes already came
// back empty for the same node. Assemble never panics.
func (a *Assembler) Assemble(node *goquery.Selection, retry int) (post types.Post, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Msg("Error assembling post")
			post, ok = types.Post{}, false
		}
	}()

	text := ExtractText(node)
	author := ExtractAuthor(node)
	timestamp := ExtractTimestamp(node, a.now())
	media := ExtractMediaURLs(node)
	engagement := ExtractEngagement(node)

	a.warnOn("text", text.Err)
	a.warnOn("author", author.Err)
	a.warnOn("timestamp", timestamp.Err)
	a.warnOn("media", media.Err)
	a.warnOn("engagement", engagement.Err)

	if text.Value == "" && author.Value == types.UnknownAuthor {
		if retry < MaxAssembleRetries {
			a.log.Warn().Int("retry", retry+1).Msg("Post extraction incomplete, will retry on next pass")
		} else {
			a.log.Warn().Int("retries", retry).Msg("Post extraction incomplete, giving up on node")
		}
		return types.Post{}, false
	}

	return types.Post{
		Text:       text.Value,
		Author:     author.Value,
		Timestamp:  timestamp.Value,
		MediaURLs:  media.Value,
		Engagement: engagement.Value,
	}, true
}

// warnOn logs genuine extractor failures. Missing regions are routine on a
// feed (ads, tombstones) and only show up at debug level.
func (a *Assembler) warnOn(field string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrFieldMissing):
		a.log.Debug().Str("field", field).Err(err).Msg("Field defaulted")
	default:
		a.log.Warn().Str("field", field).Err(err).Msg("Error extracting field")
	}
}

// nodeKey identifies a node across scan passes by its status permalink.
// Nodes without one share the empty key and are never retried individually.
func nodeKey(node *goquery.Selection) string {
	href, _ := node.Find(StatusLink).First().Attr("href")
	return href
}
