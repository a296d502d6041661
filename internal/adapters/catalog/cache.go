package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"go.trai.ch/zerr"

	"go.trai.ch/grove/internal/core/ports"
)

const schemaV1 = `
CREATE TABLE IF NOT EXISTS resolutions (
	attr_path       TEXT NOT NULL,
	version         TEXT NOT NULL DEFAULT '',
	platform        TEXT NOT NULL,
	input_rev       TEXT NOT NULL,
	candidates_json TEXT NOT NULL,
	created_at      INTEGER NOT NULL,
	PRIMARY KEY (attr_path, version, platform, input_rev)
);
`

// CacheKey identifies one resolution result. The input revision is part of
// the key, so answers for a pinned snapshot can be reused indefinitely.
type CacheKey struct {
	AttrPath string
	Version  string
	Platform string
	InputRev string
}

// Cache is the SQLite-backed resolution cache.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (and migrates) the resolution cache at path.
func OpenCache(path string) (*Cache, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open resolution cache")
	}
	// SQLite allows a single writer; keep one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaV1); err != nil {
		_ = db.Close()
		return nil, zerr.Wrap(err, "failed to migrate resolution cache")
	}
	return &Cache{db: db}, nil
}

// Get returns the cached candidates for key, if present.
func (c *Cache) Get(ctx context.Context, key CacheKey) ([]ports.Candidate, bool, error) {
	var payload string
	err := c.db.QueryRowContext(ctx,
		`SELECT candidates_json FROM resolutions WHERE attr_path = ? AND version = ? AND platform = ? AND input_rev = ?`,
		key.AttrPath, key.Version, key.Platform, key.InputRev,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, zerr.Wrap(err, "failed to query resolution cache")
	}

	var candidates []ports.Candidate
	if err := json.Unmarshal([]byte(payload), &candidates); err != nil {
		return nil, false, zerr.Wrap(err, "failed to decode cached resolution")
	}
	return candidates, true, nil
}

// Put stores the candidates for key, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, key CacheKey, candidates []ports.Candidate) error {
	payload, err := json.Marshal(candidates)
	if err != nil {
		return zerr.Wrap(err, "failed to encode resolution")
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO resolutions (attr_path, version, platform, input_rev, candidates_json, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		key.AttrPath, key.Version, key.Platform, key.InputRev, string(payload), time.Now().Unix(),
	)
	if err != nil {
		return zerr.Wrap(err, "failed to write resolution cache")
	}
	return nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
