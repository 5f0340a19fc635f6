package scraper

// X.com DOM selectors
// These are isolated here because X changes their DOM frequently
// Update these when scraping breaks

const (
	// Feed selectors
	FeedContainer = `[data-testid="primaryColumn"]`
	PostArticle   = `article[data-testid="tweet"]`

	// Post content selectors
	PostText      = `[data-testid="tweetText"]`
	AuthorLink    = `a[href^="/"][role="link"]`
	AuthorName    = `[data-testid="User-Name"]`
	PostTimestamp = `time`
	StatusLink    = `a[href*="/status/"]`
	ContentImage  = `img[src*="pbs.twimg.com"]`
	ContentVideo  = `video`

	// Engagement selectors
	ReplyCount   = `[data-testid="reply"]`
	RetweetCount = `[data-testid="retweet"]`
	LikeCount    = `[data-testid="like"]`
	ViewCount    = `a[href$="/analytics"]`
)

// Substrings that mark decorative images on the media CDN
var excludedImageMarkers = []string{"profile_images", "emoji"}

// Origin used to resolve relative attribute values
const siteOrigin = "https://x.com"
