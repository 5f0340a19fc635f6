package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ibeckermayer/xextract/internal/scraper"
	"github.com/ibeckermayer/xextract/internal/types"
)

// Store handles all database operations
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new Store with SQLite backend
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	// Tray, scheduler and the error-log hook share one writer
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS posts (
		fingerprint TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		author TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		media_urls TEXT NOT NULL,
		likes INTEGER NOT NULL DEFAULT 0,
		retweets INTEGER NOT NULL DEFAULT 0,
		replies INTEGER NOT NULL DEFAULT 0,
		views INTEGER NOT NULL DEFAULT 0,
		session_id INTEGER,
		first_seen TEXT NOT NULL,
		last_seen TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		ended_at TEXT NOT NULL,
		target INTEGER NOT NULL,
		collected INTEGER NOT NULL,
		state TEXT NOT NULL,
		error TEXT
	);

	CREATE TABLE IF NOT EXISTS flags (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS error_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at TEXT NOT NULL,
		message TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_posts_timestamp ON posts(timestamp);
	CREATE INDEX IF NOT EXISTS idx_posts_first_seen ON posts(first_seen);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SavePosts upserts a collection. Known posts keep their text and first
// sighting but take the latest engagement counts.
func (s *Store) SavePosts(sessionID int64, posts []types.Post) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO posts (fingerprint, text, author, timestamp, media_urls,
			likes, retweets, replies, views, session_id, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			likes = excluded.likes,
			retweets = excluded.retweets,
			replies = excluded.replies,
			views = excluded.views,
			session_id = excluded.session_id,
			last_seen = excluded.last_seen
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := s.now().UTC().Format(time.RFC3339Nano)
	for _, p := range posts {
		media, err := json.Marshal(nonNil(p.MediaURLs))
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(scraper.Fingerprint(p), p.Text, p.Author, p.Timestamp, string(media),
			p.Engagement.Likes, p.Engagement.Retweets, p.Engagement.Replies, p.Engagement.Views,
			sessionID, now, now); err != nil {
			return fmt.Errorf("failed to save post: %w", err)
		}
	}

	return tx.Commit()
}

// AllPosts returns every stored post in the order it was first seen.
func (s *Store) AllPosts() ([]types.Post, error) {
	rows, err := s.db.Query(`
		SELECT text, author, timestamp, media_urls, likes, retweets, replies, views
		FROM posts
		ORDER BY first_seen, rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPosts(rows)
}

// PostCount returns the number of stored posts
func (s *Store) PostCount() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&n)
	return n, err
}

func scanPosts(rows *sql.Rows) ([]types.Post, error) {
	posts := []types.Post{}
	for rows.Next() {
		var p types.Post
		var mediaJSON string

		err := rows.Scan(
			&p.Text, &p.Author, &p.Timestamp, &mediaJSON,
			&p.Engagement.Likes, &p.Engagement.Retweets, &p.Engagement.Replies, &p.Engagement.Views,
		)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(mediaJSON), &p.MediaURLs); err != nil {
			return nil, fmt.Errorf("failed to decode media urls: %w", err)
		}
		p.MediaURLs = nonNil(p.MediaURLs)
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func nonNil(urls []string) []string {
	if urls == nil {
		return []string{}
	}
	return urls
}
