package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xextract/internal/types"
)

var samplePosts = []types.Post{
	{
		Text:       `Quote "this", please`,
		Author:     "@alice",
		Timestamp:  "2024-06-01T10:00:00.000Z",
		MediaURLs:  []string{"https://pbs.twimg.com/media/a?name=large", "https://video.twimg.com/v.mp4"},
		Engagement: types.Engagement{Likes: 1200, Retweets: 3, Replies: 4, Views: 5700},
	},
	{
		Text:      "multi\nline",
		Author:    "@bob",
		Timestamp: "2024-06-01T11:00:00.000Z",
		MediaURLs: []string{},
	},
}

func TestFilename(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 30, 45, 0, time.UTC)
	assert.Equal(t, "x-posts-2024-06-01T12-30.csv", Filename(at, ".csv"))

	shifted := at.In(time.FixedZone("EST", -5*60*60))
	assert.Equal(t, "x-posts-2024-06-01T12-30.json", Filename(shifted, ".json"))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, samplePosts))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{
		`Quote "this", please`, "@alice", "2024-06-01T10:00:00.000Z",
		"https://pbs.twimg.com/media/a?name=large, https://video.twimg.com/v.mp4",
		"1200", "3", "4", "5700",
	}, rows[1])
	assert.Equal(t, "multi\nline", rows[2][0])
	assert.Equal(t, "", rows[2][3])
	assert.Equal(t, "0", rows[2][7])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "text,author,timestamp,media_urls,likes,retweets,replies,views\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.JSONEq(t, `[]`, buf.String())

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, samplePosts[:1]))
	var decoded []types.Post
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, samplePosts[:1], decoded)
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	at := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)

	paths, err := WriteFiles(dir, at, samplePosts)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "x-posts-2024-06-01T12-30.csv"), paths.CSV)
	assert.Equal(t, filepath.Join(dir, "x-posts-2024-06-01T12-30.json"), paths.JSON)

	data, err := os.ReadFile(paths.CSV)
	require.NoError(t, err)
	assert.Contains(t, string(data), "@alice")

	data, err = os.ReadFile(paths.JSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mediaUrls"`)
}
