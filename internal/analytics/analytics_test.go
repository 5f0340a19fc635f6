package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xextract/internal/types"
)

var samplePosts = []types.Post{
	{Text: "Morning post", Timestamp: "2025-11-15T09:30:00.000Z"},
	{Text: "Another morning post", Timestamp: "2025-11-15T09:45:00.000Z"},
	{Text: "Afternoon post", Timestamp: "2025-11-15T14:20:00.000Z"},
	{Text: "Previous day post", Timestamp: "2025-11-14T09:30:00.000Z"},
}

func sum(buckets []Bucket) (count int, pct float64) {
	for _, b := range buckets {
		count += b.Count
		pct += b.Percentage
	}
	return count, pct
}

func TestByHour(t *testing.T) {
	buckets := ByHourIn(samplePosts, time.UTC)
	require.Len(t, buckets, 24)

	assert.Equal(t, 3, buckets[9].Count)
	assert.Equal(t, 75.0, buckets[9].Percentage)
	assert.Equal(t, 1, buckets[14].Count)
	assert.Equal(t, "9 AM", buckets[9].Label)
	assert.Equal(t, "2 PM", buckets[14].Label)

	_, pct := sum(buckets)
	assert.InDelta(t, 100, pct, 0.5)
}

func TestByHourEmpty(t *testing.T) {
	buckets := ByHourIn(nil, time.UTC)
	require.Len(t, buckets, 24)

	count, pct := sum(buckets)
	assert.Zero(t, count)
	assert.Zero(t, pct)
}

func TestByHourSkipsInvalidTimestamps(t *testing.T) {
	posts := []types.Post{
		{Timestamp: "invalid"},
		{Timestamp: ""},
		{Timestamp: "2025-11-15T09:30:00.000Z"},
	}
	buckets := ByHourIn(posts, time.UTC)

	count, pct := sum(buckets)
	assert.Equal(t, 1, count)
	assert.InDelta(t, 100, pct, 0.5)
}

func TestByHourPercentagesSumToHundred(t *testing.T) {
	var posts []types.Post
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		posts = append(posts, types.Post{Timestamp: base.Add(time.Duration(i*5) * time.Hour).Format(time.RFC3339)})
	}

	_, pct := sum(ByHourIn(posts, time.UTC))
	assert.InDelta(t, 100, pct, 0.5)
}

func TestByHourUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	buckets := ByHourIn(samplePosts[:1], tokyo)
	assert.Equal(t, 1, buckets[18].Count)
}

func TestByDayOfWeek(t *testing.T) {
	buckets := ByDayOfWeekIn(samplePosts, time.UTC)
	require.Len(t, buckets, 7)

	assert.Equal(t, "Sunday", buckets[0].Label)
	assert.Equal(t, "Saturday", buckets[6].Label)
	// 2025-11-15 is a Saturday
	assert.Equal(t, 3, buckets[6].Count)
	assert.Equal(t, 1, buckets[5].Count)

	empty := ByDayOfWeekIn(nil, time.UTC)
	count, pct := sum(empty)
	assert.Zero(t, count)
	assert.Zero(t, pct)
}

func TestFindPeakTimes(t *testing.T) {
	peaks := FindPeakTimesIn(samplePosts, time.UTC)
	assert.Equal(t, 9, peaks.Hour.Key)
	assert.Equal(t, 3, peaks.Hour.Count)
	assert.Equal(t, 6, peaks.Day.Key)
	assert.Equal(t, "Saturday", peaks.Day.Label)
}

func TestFindPeakTimesTieGoesToFirst(t *testing.T) {
	posts := []types.Post{
		{Timestamp: "2025-11-15T14:00:00Z"},
		{Timestamp: "2025-11-15T03:00:00Z"},
	}
	peaks := FindPeakTimesIn(posts, time.UTC)
	assert.Equal(t, 3, peaks.Hour.Key)

	none := FindPeakTimesIn(nil, time.UTC)
	assert.Equal(t, 0, none.Hour.Key)
	assert.Equal(t, 0, none.Day.Key)
}

func TestHeatmap(t *testing.T) {
	cells := Heatmap(samplePosts, time.UTC)
	require.Len(t, cells, 168)

	assert.Equal(t, Cell{Hour: 9, Day: 6, Count: 2}, cells[9*7+6])
	assert.Equal(t, Cell{Hour: 9, Day: 5, Count: 1}, cells[9*7+5])
	assert.Equal(t, Cell{Hour: 14, Day: 6, Count: 1}, cells[14*7+6])
}

func TestHourLabel(t *testing.T) {
	assert.Equal(t, "12 AM", HourLabel(0))
	assert.Equal(t, "11 AM", HourLabel(11))
	assert.Equal(t, "12 PM", HourLabel(12))
	assert.Equal(t, "11 PM", HourLabel(23))
}
