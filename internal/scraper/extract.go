package scraper

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ibeckermayer/xextract/internal/types"
)

// Field is the outcome of one extractor. Value always holds something usable:
// when Err is set it is the field default.
type Field[T any] struct {
	Value T
	Err   error
}

// Defaulted reports whether the extractor fell back to the default value.
func (f Field[T]) Defaulted() bool { return f.Err != nil }

// isoMillis matches the JavaScript toISOString layout used by the feed.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	handlePath     = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	handleText     = regexp.MustCompile(`@([a-zA-Z0-9_]+)`)
	relativeHours  = regexp.MustCompile(`(\d+)h`)
	relativeMins   = regexp.MustCompile(`(\d+)m`)
	imageQuality   = regexp.MustCompile(`([?&])name=\w+`)
	labelCount     = regexp.MustCompile(`(?i)(\d[\d,.]*[KMB]?)`)
	metricToken    = regexp.MustCompile(`(?i)([\d.]+)([KMB]?)`)
	metricSuffixes = map[string]int{"": 1, "K": 1_000, "M": 1_000_000, "B": 1_000_000_000}
)

// extract runs fn and converts a panic inside it into a defaulted Field.
func extract[T any](name string, def T, fn func() (T, error)) (f Field[T]) {
	defer func() {
		if r := recover(); r != nil {
			f = Field[T]{Value: def, Err: fmt.Errorf("%s extractor panicked: %v", name, r)}
		}
	}()

	v, err := fn()
	if err != nil {
		return Field[T]{Value: def, Err: err}
	}
	return Field[T]{Value: v}
}

// ExtractText returns the post body with whitespace runs collapsed.
func ExtractText(node *goquery.Selection) Field[string] {
	return extract("text", "", func() (string, error) {
		textEl := node.Find(PostText).First()
		if textEl.Length() == 0 {
			return "", ErrFieldMissing
		}
		return whitespaceRun.ReplaceAllString(strings.TrimSpace(textEl.Text()), " "), nil
	})
}

// ExtractAuthor returns "@handle", trying the profile link before the
// display-name block.
func ExtractAuthor(node *goquery.Selection) Field[string] {
	return extract("author", types.UnknownAuthor, func() (string, error) {
		if href, ok := node.Find(AuthorLink).First().Attr("href"); ok {
			segments := strings.Split(href, "/")
			if len(segments) > 1 && handlePath.MatchString(segments[1]) {
				return "@" + segments[1], nil
			}
		}

		nameLink := node.Find(AuthorName).First().Find("a").First()
		if nameLink.Length() > 0 {
			if m := handleText.FindString(nameLink.Text()); m != "" {
				return m, nil
			}
		}

		return "", ErrFieldMissing
	})
}

// ExtractTimestamp prefers the machine readable datetime attribute, then a
// relative label such as "3h" or "5m" measured back from now. Any other
// case yields now.
func ExtractTimestamp(node *goquery.Selection, now time.Time) Field[string] {
	fallback := now.UTC().Format(isoMillis)
	return extract("timestamp", fallback, func() (string, error) {
		timeEl := node.Find(PostTimestamp).First()
		if timeEl.Length() == 0 {
			return "", ErrFieldMissing
		}
		if dt, ok := timeEl.Attr("datetime"); ok && dt != "" {
			if _, err := time.Parse(time.RFC3339Nano, dt); err == nil {
				return dt, nil
			}
		}

		label := timeEl.Text()
		if m := relativeHours.FindStringSubmatch(label); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return "", err
			}
			return now.Add(-time.Duration(n) * time.Hour).UTC().Format(isoMillis), nil
		}
		if m := relativeMins.FindStringSubmatch(label); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return "", err
			}
			return now.Add(-time.Duration(n) * time.Minute).UTC().Format(isoMillis), nil
		}
		return "", fmt.Errorf("%w: unrecognised time label %q", ErrFieldMissing, label)
	})
}

// ExtractMediaURLs collects content image and video sources in DOM order,
// upgrading images to the large rendition and dropping duplicates.
func ExtractMediaURLs(node *goquery.Selection) Field[[]string] {
	return extract("media", []string{}, func() ([]string, error) {
		urls := []string{}
		add := func(raw string) {
			abs := absoluteURL(raw)
			if abs != "" && !slices.Contains(urls, abs) {
				urls = append(urls, abs)
			}
		}

		node.Find(ContentImage).Each(func(_ int, img *goquery.Selection) {
			src, _ := img.Attr("src")
			if src == "" || isDecorativeImage(src) {
				return
			}
			add(imageQuality.ReplaceAllString(src, "${1}name=large"))
		})

		node.Find(ContentVideo).Each(func(_ int, video *goquery.Selection) {
			src, _ := video.Attr("src")
			if src == "" {
				src, _ = video.Attr("data-src")
			}
			if src != "" {
				add(src)
			}
		})

		return urls, nil
	})
}

func isDecorativeImage(src string) bool {
	for _, marker := range excludedImageMarkers {
		if strings.Contains(src, marker) {
			return true
		}
	}
	return false
}

// absoluteURL resolves scheme-less sources against the site origin.
func absoluteURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return u.String()
	}
	base, _ := url.Parse(siteOrigin)
	return base.ResolveReference(u).String()
}

// ExtractEngagement reads the four public counters. Each counter that cannot
// be found stays zero.
func ExtractEngagement(node *goquery.Selection) Field[types.Engagement] {
	return extract("engagement", types.Engagement{}, func() (types.Engagement, error) {
		return types.Engagement{
			Likes:    metric(node, LikeCount),
			Retweets: metric(node, RetweetCount),
			Replies:  metric(node, ReplyCount),
			Views:    metric(node, ViewCount),
		}, nil
	})
}

func metric(node *goquery.Selection, selector string) int {
	el := node.Find(selector).First()
	if el.Length() == 0 {
		return 0
	}
	if label, ok := el.Attr("aria-label"); ok {
		if m := labelCount.FindString(label); m != "" {
			return ParseMetric(m)
		}
	}
	return ParseMetric(el.Text())
}

// ParseMetric converts abbreviated counts like "1.2K", "5.7M" or "1,234" to
// integers, truncating fractions. Anything unparseable is 0 and counts too
// large for an int saturate at math.MaxInt.
func ParseMetric(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}

	m := metricToken.FindStringSubmatch(s)
	if m == nil {
		return 0
	}

	// Digits are scaled as text so "1.2K" is exactly 1200, not 1199.
	whole, frac, _ := strings.Cut(m[1], ".")
	if strings.Contains(frac, ".") || (whole == "" && frac == "") {
		return 0
	}
	scale := metricSuffixes[strings.ToUpper(m[2])]

	n := 0
	if whole != "" {
		w, err := strconv.Atoi(whole)
		if errors.Is(err, strconv.ErrRange) {
			return math.MaxInt
		}
		if err != nil {
			return 0
		}
		// Counts saturate instead of wrapping negative
		if w > math.MaxInt/scale {
			return math.MaxInt
		}
		n = w * scale
	}
	for _, d := range frac {
		scale /= 10
		if scale == 0 {
			break
		}
		add := int(d-'0') * scale
		if n > math.MaxInt-add {
			return math.MaxInt
		}
		n += add
	}
	return n
}
