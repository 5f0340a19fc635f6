package types

// Engagement holds the public counters shown under a post
type Engagement struct {
	Likes    int `json:"likes"`
	Retweets int `json:"retweets"`
	Replies  int `json:"replies"`
	Views    int `json:"views"`
}

// Post represents one post extracted from the feed DOM.
// Timestamp is an ISO-8601 string; MediaURLs is never nil once assembled.
type Post struct {
	Text       string     `json:"text"`
	Author     string     `json:"author"`
	Timestamp  string     `json:"timestamp"`
	MediaURLs  []string   `json:"mediaUrls"`
	Engagement Engagement `json:"engagement"`
}

// UnknownAuthor is used when no handle could be resolved for a post
const UnknownAuthor = "unknown"
