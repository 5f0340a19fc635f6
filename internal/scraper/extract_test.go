package scraper

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xextract/internal/types"
)

// parseNode returns the first post article in html.
func parseNode(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	node := doc.Find(PostArticle).First()
	require.Equal(t, 1, node.Length(), "fixture must contain a post article")
	return node
}

const fullPost = `
<article data-testid="tweet">
  <a href="/alice" role="link"><img src="https://pbs.twimg.com/profile_images/1/a_normal.jpg"></a>
  <div data-testid="User-Name"><a href="/alice">Alice <span>@alice</span></a></div>
  <a href="/alice/status/123"><time datetime="2024-03-05T14:30:00.000Z">Mar 5</time></a>
  <div data-testid="tweetText">  Hello
     world,   again </div>
  <img src="https://pbs.twimg.com/media/abc?format=jpg&amp;name=small">
  <img src="https://pbs.twimg.com/media/abc?format=jpg&amp;name=small">
  <img src="https://pbs.twimg.com/emoji/v2/72x72/1f600.png">
  <video src="https://video.twimg.com/ext/v.mp4"></video>
  <video data-src="/amplify/v2.mp4"></video>
  <div data-testid="reply"></div>
  <div data-testid="retweet"><span>3M</span></div>
  <div data-testid="like" aria-label="1,234 Likes. Like"><span>1.2K</span></div>
  <a href="/alice/status/123/analytics" aria-label="5.7K views. View post analytics"></a>
</article>`

func TestExtractText(t *testing.T) {
	f := ExtractText(parseNode(t, fullPost))
	assert.NoError(t, f.Err)
	assert.Equal(t, "Hello world, again", f.Value)

	f = ExtractText(parseNode(t, `<article data-testid="tweet"></article>`))
	assert.ErrorIs(t, f.Err, ErrFieldMissing)
	assert.True(t, f.Defaulted())
	assert.Equal(t, "", f.Value)
}

func TestExtractAuthor(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "profile link",
			html: fullPost,
			want: "@alice",
		},
		{
			name: "invalid path falls back to name block",
			html: `<article data-testid="tweet">
				<a href="/search?q=go" role="link"></a>
				<div data-testid="User-Name"><a href="/bob">Bob @bob_99</a></div>
			</article>`,
			want: "@bob_99",
		},
		{
			name: "nothing resolvable",
			html: `<article data-testid="tweet"><div data-testid="User-Name">Carol</div></article>`,
			want: types.UnknownAuthor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ExtractAuthor(parseNode(t, tt.html))
			assert.Equal(t, tt.want, f.Value)
			assert.Equal(t, tt.want == types.UnknownAuthor, f.Defaulted())
		})
	}
}

func TestExtractTimestamp(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		html      string
		want      string
		defaulted bool
	}{
		{
			name: "datetime attribute",
			html: fullPost,
			want: "2024-03-05T14:30:00.000Z",
		},
		{
			name: "relative hours",
			html: `<article data-testid="tweet"><time>3h</time></article>`,
			want: "2024-06-01T09:00:00.000Z",
		},
		{
			name: "relative minutes",
			html: `<article data-testid="tweet"><time>5m</time></article>`,
			want: "2024-06-01T11:55:00.000Z",
		},
		{
			name: "malformed datetime falls back to label",
			html: `<article data-testid="tweet"><time datetime="last tuesday">2h</time></article>`,
			want: "2024-06-01T10:00:00.000Z",
		},
		{
			name:      "malformed datetime without label",
			html:      `<article data-testid="tweet"><time datetime="soon"></time></article>`,
			want:      "2024-06-01T12:00:00.000Z",
			defaulted: true,
		},
		{
			name:      "unknown label",
			html:      `<article data-testid="tweet"><time>Yesterday</time></article>`,
			want:      "2024-06-01T12:00:00.000Z",
			defaulted: true,
		},
		{
			name:      "no time element",
			html:      `<article data-testid="tweet"></article>`,
			want:      "2024-06-01T12:00:00.000Z",
			defaulted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ExtractTimestamp(parseNode(t, tt.html), now)
			assert.Equal(t, tt.want, f.Value)
			assert.Equal(t, tt.defaulted, f.Defaulted())
		})
	}
}

func TestExtractMediaURLs(t *testing.T) {
	f := ExtractMediaURLs(parseNode(t, fullPost))
	require.NoError(t, f.Err)
	assert.Equal(t, []string{
		"https://pbs.twimg.com/media/abc?format=jpg&name=large",
		"https://video.twimg.com/ext/v.mp4",
		"https://x.com/amplify/v2.mp4",
	}, f.Value)

	for _, u := range f.Value {
		assert.NotContains(t, u, "profile_images")
		assert.NotContains(t, u, "emoji")
	}
}

func TestExtractMediaURLsEmpty(t *testing.T) {
	f := ExtractMediaURLs(parseNode(t, `<article data-testid="tweet"></article>`))
	assert.NoError(t, f.Err)
	assert.NotNil(t, f.Value)
	assert.Empty(t, f.Value)
}

func TestExtractEngagement(t *testing.T) {
	f := ExtractEngagement(parseNode(t, fullPost))
	require.NoError(t, f.Err)
	assert.Equal(t, types.Engagement{
		Likes:    1234,
		Retweets: 3_000_000,
		Replies:  0,
		Views:    5700,
	}, f.Value)
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1.2K", 1200},
		{"3M", 3_000_000},
		{"5.7M", 5_700_000},
		{"2.5B", 2_500_000_000},
		{"1,234", 1234},
		{"12.345K", 12345},
		{"1.2345K", 1234},
		{"42", 42},
		{"1.2k", 1200},
		{"", 0},
		{"   ", 0},
		{"n/a", 0},
		{"-5", 5},
		{"10000000000B", math.MaxInt},
		{"9999999999999999K", math.MaxInt},
		{"99999999999999999999", math.MaxInt},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseMetric(tt.in)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
		})
	}
}

func TestExtractEngagementSaturates(t *testing.T) {
	f := ExtractEngagement(parseNode(t, `<article data-testid="tweet">
		<div data-testid="like" aria-label="10000000000B Likes"></div>
	</article>`))
	require.NoError(t, f.Err)
	assert.Equal(t, math.MaxInt, f.Value.Likes)
}

func TestExtractRecoversPanics(t *testing.T) {
	f := extract("boom", "fallback", func() (string, error) {
		panic("kaboom")
	})
	assert.Equal(t, "fallback", f.Value)
	require.Error(t, f.Err)
	assert.Contains(t, f.Err.Error(), "kaboom")
}
