// Package export writes post collections as CSV or JSON files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ibeckermayer/xextract/internal/types"
)

// Header is the CSV column order
var Header = []string{"text", "author", "timestamp", "media_urls", "likes", "retweets", "replies", "views"}

// mediaSeparator joins media URLs inside one CSV cell
const mediaSeparator = ", "

// Filename returns the export name for at, e.g. x-posts-2024-06-01T12-30.csv.
func Filename(at time.Time, ext string) string {
	return "x-posts-" + at.UTC().Format("2006-01-02T15-04") + ext
}

// Record converts a post to a CSV row
func Record(p types.Post) []string {
	return []string{
		p.Text,
		p.Author,
		p.Timestamp,
		strings.Join(p.MediaURLs, mediaSeparator),
		strconv.Itoa(p.Engagement.Likes),
		strconv.Itoa(p.Engagement.Retweets),
		strconv.Itoa(p.Engagement.Replies),
		strconv.Itoa(p.Engagement.Views),
	}
}

// WriteCSV writes a header row and one row per post.
func WriteCSV(w io.Writer, posts []types.Post) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range posts {
		if err := cw.Write(Record(p)); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// WriteJSON writes posts as an indented JSON array.
func WriteJSON(w io.Writer, posts []types.Post) error {
	if posts == nil {
		posts = []types.Post{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(posts); err != nil {
		return fmt.Errorf("encode json records: %w", err)
	}
	return nil
}

// SaveCSV writes posts to a new CSV file in dir and returns its path.
func SaveCSV(dir string, at time.Time, posts []types.Post) (string, error) {
	return save(dir, Filename(at, ".csv"), posts, WriteCSV)
}

// SaveJSON writes posts to a new JSON file in dir and returns its path.
func SaveJSON(dir string, at time.Time, posts []types.Post) (string, error) {
	return save(dir, Filename(at, ".json"), posts, WriteJSON)
}

// Paths lists the files written by WriteFiles
type Paths struct {
	CSV  string
	JSON string
}

// WriteFiles writes the CSV and JSON exports side by side.
func WriteFiles(dir string, at time.Time, posts []types.Post) (Paths, error) {
	var paths Paths
	var g errgroup.Group

	g.Go(func() error {
		p, err := SaveCSV(dir, at, posts)
		paths.CSV = p
		return err
	})
	g.Go(func() error {
		p, err := SaveJSON(dir, at, posts)
		paths.JSON = p
		return err
	})

	if err := g.Wait(); err != nil {
		return Paths{}, err
	}
	return paths, nil
}

func save(dir, name string, posts []types.Post, write func(io.Writer, []types.Post) error) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}

	if err := write(f, posts); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}
	return path, nil
}
