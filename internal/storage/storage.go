// Package storage persists reply history and activity records in a local
// SQLite database. Reply history is what keeps repeat runs from posting to
// the same thread twice.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yourusername/forum-autosign/internal/logger"
)

var db *sql.DB

// InitDB opens (creating if needed) the database at the given path
func InitDB(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	var err error
	db, err = sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := createTables(); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info("database initialized", "path", path)
	return nil
}

func createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS replies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		thread_url TEXT NOT NULL UNIQUE,
		title TEXT,
		content TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS activities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action_type TEXT NOT NULL,
		detail TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveReply records a posted reply. Re-recording the same thread is a no-op.
func SaveReply(threadURL, title, content string) error {
	_, err := db.Exec(
		`INSERT INTO replies (thread_url, title, content) VALUES (?, ?, ?)
		 ON CONFLICT(thread_url) DO NOTHING`,
		threadURL, title, content,
	)
	return err
}

// HasReplied reports whether a reply was ever recorded for the thread
func HasReplied(threadURL string) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM replies WHERE thread_url = ?`, threadURL).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RepliesToday counts replies recorded since UTC midnight. Timestamps are
// compared as text because CURRENT_TIMESTAMP stores them that way.
func RepliesToday() (int, error) {
	midnight := time.Now().UTC().Truncate(24 * time.Hour).Format("2006-01-02 15:04:05")
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM replies WHERE created_at >= ?`, midnight).Scan(&count)
	return count, err
}

// RecordActivity logs a run-level action for later inspection
func RecordActivity(actionType, detail string) error {
	_, err := db.Exec(
		`INSERT INTO activities (action_type, detail) VALUES (?, ?)`,
		actionType, detail,
	)
	return err
}

// Stats returns total reply and activity counts
func Stats() (replies int, activities int, err error) {
	if err = db.QueryRow(`SELECT COUNT(*) FROM replies`).Scan(&replies); err != nil {
		return 0, 0, err
	}
	if err = db.QueryRow(`SELECT COUNT(*) FROM activities`).Scan(&activities); err != nil {
		return 0, 0, err
	}
	return replies, activities, nil
}

// Close closes the database connection
func Close() error {
	if db != nil {
		return db.Close()
	}
	return nil
}

// ReplyHistory adapts the package to the orchestrator's history interface
type ReplyHistory struct{}

// History returns the reply history backed by this database
func History() ReplyHistory { return ReplyHistory{} }

func (ReplyHistory) HasReplied(threadURL string) (bool, error) {
	return HasReplied(threadURL)
}

func (ReplyHistory) SaveReply(threadURL, title, content string) error {
	return SaveReply(threadURL, title, content)
}
