package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const filePrefix = "report-"

// Save writes the HTML body to dir and returns the file path.
func (r *Report) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}
	path := filepath.Join(dir, filePrefix+r.CreatedAt.UTC().Format("2006-01-02T15-04-05")+".html")
	if err := os.WriteFile(path, []byte(r.HTMLBody), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// Latest returns the path to the most recent report in dir.
func Latest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read report dir: %w", err)
	}

	var latest string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".html") {
			continue
		}
		// Names embed a sortable timestamp
		if name > latest {
			latest = name
		}
	}

	if latest == "" {
		return "", fmt.Errorf("no reports found in %s", dir)
	}
	return filepath.Join(dir, latest), nil
}
