package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ibeckermayer/xextract/internal/config"
	"github.com/ibeckermayer/xextract/internal/types"
)

// snapshotLayout names snapshot files; it sorts chronologically.
const snapshotLayout = "2006-01-02T15-04-05"

// PostsCacheDir returns the path to the posts snapshot directory.
// On macOS this is ~/Library/Caches/xextract/posts/
func PostsCacheDir() (string, error) {
	cacheDir, err := config.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "posts"), nil
}

// SaveSnapshot writes data as indented JSON to a timestamped file in dir.
// Returns the path to the saved file.
func SaveSnapshot[T any](dir string, at time.Time, data T) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, at.Format(snapshotLayout)+".json")

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot loads JSON data from a specific file path.
func LoadSnapshot[T any](path string) (T, error) {
	var data T

	jsonData, err := os.ReadFile(path)
	if err != nil {
		return data, fmt.Errorf("failed to read snapshot: %w", err)
	}

	if err := json.Unmarshal(jsonData, &data); err != nil {
		return data, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return data, nil
}

// LatestSnapshotFile returns the newest .json file in dir.
func LatestSnapshotFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no snapshots in %s", dir)
		}
		return "", err
	}

	// os.ReadDir sorts by name, which is chronological for our timestamps
	latest := ""
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			latest = entry.Name()
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no snapshots in %s", dir)
	}

	return filepath.Join(dir, latest), nil
}

// LatestPostsFile returns the newest posts snapshot in the cache.
func LatestPostsFile() (string, error) {
	dir, err := PostsCacheDir()
	if err != nil {
		return "", err
	}
	return LatestSnapshotFile(dir)
}

// LoadLatestPosts loads the newest posts snapshot and says where it came from.
func LoadLatestPosts() ([]types.Post, string, error) {
	path, err := LatestPostsFile()
	if err != nil {
		return nil, "", err
	}
	posts, err := LoadSnapshot[[]types.Post](path)
	if err != nil {
		return nil, "", err
	}
	return posts, path, nil
}
