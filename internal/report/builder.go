// Package report renders posting-time analytics as HTML and plain text.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/ibeckermayer/xextract/internal/analytics"
	"github.com/ibeckermayer/xextract/internal/types"
)

// Builder creates analytics reports from post collections
type Builder struct {
	topPosts int
	loc      *time.Location
	now      func() time.Time
	template *template.Template
}

// New creates a new report builder. Times are bucketed in loc.
func New(topPosts int, loc *time.Location) (*Builder, error) {
	tmpl, err := template.New("report").Parse(defaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}

	return &Builder{
		topPosts: topPosts,
		loc:      loc,
		now:      time.Now,
		template: tmpl,
	}, nil
}

// Report is a rendered analytics report
type Report struct {
	Title     string
	HTMLBody  string
	PlainBody string
	Posts     int
	CreatedAt time.Time
}

// ReportData is the template data structure
type ReportData struct {
	Title  string
	Date   string
	Range  string
	Total  int
	Peaks  analytics.Peaks
	Hourly []Row
	Daily  []Row
	Top    []PostData

	// Busiest is the fullest hour and weekday slot
	Busiest     analytics.Cell
	BusiestSlot string
}

// Row is one histogram line with a bar scaled to the fullest bucket
type Row struct {
	analytics.Bucket
	Bar int
}

// PostData represents a post in the report template
type PostData struct {
	Author    string
	Text      string
	Timestamp string
	Likes     int
	Retweets  int
	Replies   int
	Views     int
}

// Build filters posts to r and renders the report.
func (b *Builder) Build(posts []types.Post, r analytics.DateRange) (*Report, error) {
	now := b.now()
	filtered := analytics.FilterByDateRangeAt(posts, r, now)

	data := ReportData{
		Title:  "X Posting Times",
		Date:   now.In(b.loc).Format("Monday, January 2"),
		Range:  rangeLabel(r),
		Total:  len(filtered),
		Peaks:  analytics.FindPeakTimesIn(filtered, b.loc),
		Hourly: rows(analytics.ByHourIn(filtered, b.loc)),
		Daily:  rows(analytics.ByDayOfWeekIn(filtered, b.loc)),
		Top:    b.top(filtered),
	}
	data.Busiest = busiest(analytics.Heatmap(filtered, b.loc))
	data.BusiestSlot = fmt.Sprintf("%s %s", time.Weekday(data.Busiest.Day), analytics.HourLabel(data.Busiest.Hour))

	var htmlBuf bytes.Buffer
	if err := b.template.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}

	return &Report{
		Title:     fmt.Sprintf("%s - %s", data.Title, data.Range),
		HTMLBody:  htmlBuf.String(),
		PlainBody: buildPlainText(data),
		Posts:     data.Total,
		CreatedAt: now,
	}, nil
}

// top returns the most liked posts, keeping collection order on ties.
func (b *Builder) top(posts []types.Post) []PostData {
	sorted := make([]types.Post, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Engagement.Likes > sorted[j].Engagement.Likes
	})
	if len(sorted) > b.topPosts {
		sorted = sorted[:b.topPosts]
	}

	out := make([]PostData, len(sorted))
	for i, p := range sorted {
		out[i] = PostData{
			Author:    p.Author,
			Text:      truncate(p.Text, 280),
			Timestamp: p.Timestamp,
			Likes:     p.Engagement.Likes,
			Retweets:  p.Engagement.Retweets,
			Replies:   p.Engagement.Replies,
			Views:     p.Engagement.Views,
		}
	}
	return out
}

func rows(buckets []analytics.Bucket) []Row {
	maxCount := 0
	for _, b := range buckets {
		maxCount = max(maxCount, b.Count)
	}
	out := make([]Row, len(buckets))
	for i, b := range buckets {
		out[i] = Row{Bucket: b}
		if maxCount > 0 {
			out[i].Bar = b.Count * 100 / maxCount
		}
	}
	return out
}

// busiest returns the first cell with the highest count.
func busiest(cells []analytics.Cell) analytics.Cell {
	var best analytics.Cell
	for i, c := range cells {
		if i == 0 || c.Count > best.Count {
			best = c
		}
	}
	return best
}

func rangeLabel(r analytics.DateRange) string {
	switch {
	case r.All:
		return "All Time"
	case r.Days == 1:
		return "Last Day"
	default:
		return fmt.Sprintf("Last %d Days", r.Days)
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func buildPlainText(data ReportData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n%s · %s · %d posts\n\n", data.Title, data.Date, data.Range, data.Total)

	fmt.Fprintf(&buf, "Peak hour: %s (%d posts, %.1f%%)\n", data.Peaks.Hour.Label, data.Peaks.Hour.Count, data.Peaks.Hour.Percentage)
	fmt.Fprintf(&buf, "Peak day:  %s (%d posts, %.1f%%)\n", data.Peaks.Day.Label, data.Peaks.Day.Count, data.Peaks.Day.Percentage)
	fmt.Fprintf(&buf, "Busiest slot: %s (%d posts)\n\n", data.BusiestSlot, data.Busiest.Count)

	buf.WriteString("By hour\n")
	for _, r := range data.Hourly {
		fmt.Fprintf(&buf, "  %-5s %4d %5.1f%% %s\n", r.Label, r.Count, r.Percentage, strings.Repeat("#", r.Bar/5))
	}
	buf.WriteString("\nBy day\n")
	for _, r := range data.Daily {
		fmt.Fprintf(&buf, "  %-9s %4d %5.1f%% %s\n", r.Label, r.Count, r.Percentage, strings.Repeat("#", r.Bar/5))
	}

	if len(data.Top) > 0 {
		buf.WriteString("\nMost liked\n")
		for i, p := range data.Top {
			fmt.Fprintf(&buf, "%d. %s: %s\n", i+1, p.Author, p.Text)
			fmt.Fprintf(&buf, "   %d likes · %d retweets · %d replies · %d views\n", p.Likes, p.Retweets, p.Replies, p.Views)
		}
	}

	return buf.String()
}

const defaultTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 720px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        .container { background: white; border-radius: 8px; padding: 20px; }
        h1 { color: #1da1f2; margin-bottom: 5px; }
        h2 { color: #333; font-size: 16px; margin-top: 24px; }
        .date { color: #666; margin-bottom: 20px; }
        .peaks { display: flex; gap: 12px; }
        .peak { flex: 1; background: #e8f5fd; border-radius: 8px; padding: 10px; }
        .peak-label { color: #666; font-size: 12px; }
        .peak-value { font-weight: bold; color: #1da1f2; }
        table { width: 100%; border-collapse: collapse; font-size: 13px; }
        td { padding: 2px 6px; }
        .bar { background: #1da1f2; height: 10px; border-radius: 2px; }
        .post { border-bottom: 1px solid #eee; padding: 12px 0; }
        .post:last-child { border-bottom: none; }
        .author { font-weight: bold; color: #333; }
        .content { margin: 6px 0; line-height: 1.4; }
        .metrics { color: #666; font-size: 13px; }
        .footer { margin-top: 20px; padding-top: 15px; border-top: 1px solid #eee; color: #999; font-size: 12px; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <div class="date">{{.Date}} · {{.Range}} · {{.Total}} posts</div>

        <div class="peaks">
            <div class="peak">
                <div class="peak-label">Peak Hour</div>
                <div class="peak-value">{{.Peaks.Hour.Label}} ({{.Peaks.Hour.Count}} posts, {{printf "%.1f" .Peaks.Hour.Percentage}}%)</div>
            </div>
            <div class="peak">
                <div class="peak-label">Peak Day</div>
                <div class="peak-value">{{.Peaks.Day.Label}} ({{.Peaks.Day.Count}} posts, {{printf "%.1f" .Peaks.Day.Percentage}}%)</div>
            </div>
        </div>
        <div class="date">Busiest slot: {{.BusiestSlot}} ({{.Busiest.Count}} posts)</div>

        <h2>By hour</h2>
        <table>
        {{range .Hourly}}
            <tr><td>{{.Label}}</td><td>{{.Count}}</td><td>{{printf "%.1f" .Percentage}}%</td><td width="60%"><div class="bar" style="width: {{.Bar}}%"></div></td></tr>
        {{end}}
        </table>

        <h2>By day</h2>
        <table>
        {{range .Daily}}
            <tr><td>{{.Label}}</td><td>{{.Count}}</td><td>{{printf "%.1f" .Percentage}}%</td><td width="60%"><div class="bar" style="width: {{.Bar}}%"></div></td></tr>
        {{end}}
        </table>

        {{if .Top}}
        <h2>Most liked</h2>
        {{range .Top}}
        <div class="post">
            <div class="author">{{.Author}}</div>
            <div class="content">{{.Text}}</div>
            <div class="metrics">{{.Likes}} likes · {{.Retweets}} retweets · {{.Replies}} replies · {{.Views}} views</div>
        </div>
        {{end}}
        {{end}}

        <div class="footer">
            Generated by xextract
        </div>
    </div>
</body>
</html>`
