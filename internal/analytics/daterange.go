package analytics

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ibeckermayer/xextract/internal/types"
)

// DateRange selects how far back a report looks. The zero value is a zero-day
// window, which only keeps posts stamped now or later.
type DateRange struct {
	Days int
	All  bool
}

// AllTime keeps every post
var AllTime = DateRange{All: true}

// LastDays keeps posts from the last n days
func LastDays(n int) DateRange { return DateRange{Days: n} }

// ParseDateRange accepts "all", an empty string (also all) or a day count.
func ParseDateRange(s string) (DateRange, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "all" {
		return AllTime, nil
	}
	n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
	if err != nil || n < 0 {
		return DateRange{}, fmt.Errorf("invalid date range %q: want \"all\" or a number of days", s)
	}
	return LastDays(n), nil
}

func (r DateRange) String() string {
	if r.All {
		return "all"
	}
	return strconv.Itoa(r.Days)
}

// FilterByDateRange keeps posts inside r measured back from now.
func FilterByDateRange(posts []types.Post, r DateRange) []types.Post {
	return FilterByDateRangeAt(posts, r, time.Now())
}

// FilterByDateRangeAt keeps posts with a timestamp at or after now minus
// r.Days. Posts whose timestamp cannot be parsed are dropped. AllTime returns
// posts unchanged.
func FilterByDateRangeAt(posts []types.Post, r DateRange, now time.Time) []types.Post {
	if r.All {
		return posts
	}
	cutoff := now.Add(-time.Duration(r.Days) * 24 * time.Hour)

	kept := make([]types.Post, 0, len(posts))
	for _, p := range posts {
		t, ok := ParseTimestamp(p.Timestamp)
		if ok && !t.Before(cutoff) {
			kept = append(kept, p)
		}
	}
	return kept
}
