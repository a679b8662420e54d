package store

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

// DB is the console's document store: conversations, their messages and the
// appointment records used to enrich them.
type DB struct {
	*sql.DB
	path string
}

// Open connects to the SQLite file at path. Writers take the lock up front
// (IMMEDIATE) so concurrent appends to one conversation queue on busy_timeout
// rather than fail on a lock upgrade.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping store %s: %w", path, err)
	}
	return &DB{DB: db, path: path}, nil
}

// Path is the file the store was opened from.
func (db *DB) Path() string {
	return db.path
}

func dsn(path string) string {
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_busy_timeout", "5000")
	q.Set("_foreign_keys", "on")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}
