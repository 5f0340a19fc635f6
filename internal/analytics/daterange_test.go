package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xextract/internal/types"
)

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		in      string
		want    DateRange
		wantErr bool
	}{
		{in: "all", want: AllTime},
		{in: "ALL", want: AllTime},
		{in: "", want: AllTime},
		{in: "7", want: LastDays(7)},
		{in: "30d", want: LastDays(30)},
		{in: "0", want: LastDays(0)},
		{in: "-1", wantErr: true},
		{in: "week", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDateRange(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterByDateRange(t *testing.T) {
	now := time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)
	posts := []types.Post{
		{Text: "future", Timestamp: "2025-11-15T13:00:00.000Z"},
		{Text: "now", Timestamp: "2025-11-15T12:00:00.000Z"},
		{Text: "hours ago", Timestamp: "2025-11-15T02:00:00.000Z"},
		{Text: "days ago", Timestamp: "2025-11-10T12:00:00.000Z"},
		{Text: "missing"},
		{Text: "broken", Timestamp: "yesterday"},
	}

	texts := func(ps []types.Post) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.Text)
		}
		return out
	}

	assert.Equal(t, posts, FilterByDateRangeAt(posts, AllTime, now))
	assert.Equal(t, []string{"future", "now"}, texts(FilterByDateRangeAt(posts, LastDays(0), now)))
	assert.Equal(t, []string{"future", "now", "hours ago"}, texts(FilterByDateRangeAt(posts, LastDays(1), now)))
	assert.Equal(t, []string{"future", "now", "hours ago", "days ago"}, texts(FilterByDateRangeAt(posts, LastDays(7), now)))
}

func TestDateRangeString(t *testing.T) {
	assert.Equal(t, "all", AllTime.String())
	assert.Equal(t, "7", LastDays(7).String())
}
