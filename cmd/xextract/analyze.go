package main

import (
	"fmt"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xextract/internal/analytics"
	"github.com/ibeckermayer/xextract/internal/report"
	"github.com/ibeckermayer/xextract/internal/store"
	"github.com/ibeckermayer/xextract/internal/types"
)

var (
	analyzeRange    string
	analyzeHTML     bool
	analyzeTimezone string
	analyzeTop      int
	analyzeSnapshot bool
	analyzeOut      string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarize posting times of the stored collection",
	Example: `  # Peak hour and day across everything collected
  xextract analyze

  # Last 7 days in New York time, opened as an HTML report
  xextract analyze --range 7 --tz America/New_York --html`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		r, err := analytics.ParseDateRange(analyzeRange)
		if err != nil {
			return err
		}
		loc, err := time.LoadLocation(analyzeTimezone)
		if err != nil {
			return fmt.Errorf("invalid timezone %s: %w", analyzeTimezone, err)
		}

		posts, err := loadPosts(analyzeSnapshot)
		if err != nil {
			return err
		}

		builder, err := report.New(analyzeTop, loc)
		if err != nil {
			return err
		}
		rep, err := builder.Build(posts, r)
		if err != nil {
			return err
		}

		if !analyzeHTML {
			fmt.Print(rep.PlainBody)
			return nil
		}

		dir, err := outputDir(analyzeOut, "reports")
		if err != nil {
			return err
		}
		path, err := rep.Save(dir)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return browser.OpenFile(path)
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeRange, "range", "r", "all", `date range: "all" or a number of days`)
	analyzeCmd.Flags().BoolVar(&analyzeHTML, "html", false, "write an HTML report and open it")
	analyzeCmd.Flags().StringVar(&analyzeTimezone, "tz", "Local", "timezone to bucket hours and days in")
	analyzeCmd.Flags().IntVar(&analyzeTop, "top", 5, "number of most liked posts to list")
	analyzeCmd.Flags().BoolVar(&analyzeSnapshot, "snapshot", false, "read the latest JSON snapshot instead of the database")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "report directory (default <cache dir>/reports)")
	rootCmd.AddCommand(analyzeCmd)
}

// loadPosts reads the collection from the database, or from the newest
// snapshot when fromSnapshot is set.
func loadPosts(fromSnapshot bool) ([]types.Post, error) {
	if fromSnapshot {
		posts, path, err := store.LoadLatestPosts()
		if err != nil {
			return nil, err
		}
		fmt.Printf("Using snapshot %s\n", path)
		return posts, nil
	}

	e, err := setup()
	if err != nil {
		return nil, err
	}
	defer e.Close()
	return e.store.AllPosts()
}
