package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/ibeckermayer/xextract/internal/types"
)

// Bucket is one histogram slot. Key is the hour (0-23) or weekday (0 is Sunday).
type Bucket struct {
	Key        int     `json:"key"`
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Peaks holds the busiest hour and weekday
type Peaks struct {
	Hour Bucket `json:"peakHour"`
	Day  Bucket `json:"peakDay"`
}

// Cell is one hour/weekday slot of the heatmap
type Cell struct {
	Hour  int `json:"hour"`
	Day   int `json:"day"`
	Count int `json:"count"`
}

// ParseTimestamp parses a post timestamp. ok is false for empty or invalid input.
func ParseTimestamp(ts string) (time.Time, bool) {
	if ts == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ByHour buckets posts by local hour of day. Posts without a parseable
// timestamp are not counted, and percentages are shares of the counted posts
// rather than of len(posts).
func ByHour(posts []types.Post) []Bucket {
	return ByHourIn(posts, time.Local)
}

// ByHourIn buckets posts by hour of day in loc, with the same divisor as ByHour.
func ByHourIn(posts []types.Post, loc *time.Location) []Bucket {
	counts := make([]int, 24)
	valid := tally(posts, loc, func(t time.Time) { counts[t.Hour()]++ })

	buckets := make([]Bucket, 24)
	for h := range buckets {
		buckets[h] = Bucket{Key: h, Label: HourLabel(h), Count: counts[h], Percentage: percentage(counts[h], valid)}
	}
	return buckets
}

// ByDayOfWeek buckets posts by local weekday, Sunday first. Percentages use
// the same divisor as ByHour.
func ByDayOfWeek(posts []types.Post) []Bucket {
	return ByDayOfWeekIn(posts, time.Local)
}

// ByDayOfWeekIn buckets posts by weekday in loc.
func ByDayOfWeekIn(posts []types.Post, loc *time.Location) []Bucket {
	counts := make([]int, 7)
	valid := tally(posts, loc, func(t time.Time) { counts[t.Weekday()]++ })

	buckets := make([]Bucket, 7)
	for d := range buckets {
		buckets[d] = Bucket{Key: d, Label: time.Weekday(d).String(), Count: counts[d], Percentage: percentage(counts[d], valid)}
	}
	return buckets
}

// FindPeakTimes returns the fullest hour and weekday. Ties go to the earliest slot.
func FindPeakTimes(posts []types.Post) Peaks {
	return FindPeakTimesIn(posts, time.Local)
}

// FindPeakTimesIn is FindPeakTimes in loc.
func FindPeakTimesIn(posts []types.Post, loc *time.Location) Peaks {
	return Peaks{
		Hour: peak(ByHourIn(posts, loc)),
		Day:  peak(ByDayOfWeekIn(posts, loc)),
	}
}

// Heatmap counts posts per hour and weekday. Cell index is hour*7 + day.
func Heatmap(posts []types.Post, loc *time.Location) []Cell {
	cells := make([]Cell, 24*7)
	for i := range cells {
		cells[i] = Cell{Hour: i / 7, Day: i % 7}
	}
	tally(posts, loc, func(t time.Time) {
		cells[t.Hour()*7+int(t.Weekday())].Count++
	})
	return cells
}

// HourLabel renders an hour on a 12-hour clock, e.g. "12 AM" or "3 PM".
func HourLabel(hour int) string {
	switch {
	case hour == 0:
		return "12 AM"
	case hour < 12:
		return fmt.Sprintf("%d AM", hour)
	case hour == 12:
		return "12 PM"
	default:
		return fmt.Sprintf("%d PM", hour-12)
	}
}

// tally calls fn for every parseable timestamp and returns how many there were.
func tally(posts []types.Post, loc *time.Location, fn func(time.Time)) int {
	if loc == nil {
		loc = time.Local
	}
	n := 0
	for _, p := range posts {
		t, ok := ParseTimestamp(p.Timestamp)
		if !ok {
			continue
		}
		fn(t.In(loc))
		n++
	}
	return n
}

// percentage is rounded to one decimal. An empty input divides by one.
func percentage(count, total int) float64 {
	if total == 0 {
		total = 1
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

func peak(buckets []Bucket) Bucket {
	best := buckets[0]
	for _, b := range buckets[1:] {
		if b.Count > best.Count {
			best = b
		}
	}
	return best
}
