// Package cache persists parsed registries in SQLite, keyed by the content
// hash of the source file. The cache only ever holds parsed records, never
// computed aggregates.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/matsen/pubfrac/internal/registry"
)

// insertBatch bounds the rows per INSERT statement to stay well below
// SQLite's bound-parameter limit.
const insertBatch = 500

var recordColumns = []string{
	"cache_key", "seq", "title", "year", "divisions_raw", "hse_list_tag",
	"strict", "non_strict", "fractional_score", "portal_score",
	"portal_type", "scopus_type", "line",
}

// Cache is a registry cache backed by a SQLite database.
type Cache struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ registry.Cache = (*Cache)(nil)

// Entry describes one cached registry.
type Entry struct {
	Key         string    `json:"key"`
	ContentHash string    `json:"content_hash"`
	Source      string    `json:"source"`
	Encoding    string    `json:"encoding"`
	Fallback    bool      `json:"fallback"`
	Records     int       `json:"records"`
	CachedAt    time.Time `json:"cached_at"`
}

// Info summarizes the cache database.
type Info struct {
	Path    string  `json:"path"`
	Size    int64   `json:"size"`
	Entries []Entry `json:"entries"`
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Cache{db: db, path: path, now: time.Now}, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS sources (
			cache_key TEXT PRIMARY KEY,
			content_hash TEXT NOT NULL,
			source TEXT,
			encoding TEXT NOT NULL,
			fallback INTEGER NOT NULL,
			has_non_strict INTEGER NOT NULL,
			has_portal_score INTEGER NOT NULL,
			record_count INTEGER NOT NULL,
			cached_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS records (
			cache_key TEXT NOT NULL,
			seq INTEGER NOT NULL,
			title TEXT NOT NULL,
			year INTEGER NOT NULL,
			divisions_raw TEXT NOT NULL,
			hse_list_tag TEXT NOT NULL,
			strict INTEGER NOT NULL,
			non_strict INTEGER NOT NULL,
			fractional_score REAL NOT NULL,
			portal_score REAL NOT NULL,
			portal_type TEXT NOT NULL,
			scopus_type TEXT NOT NULL,
			line INTEGER NOT NULL,
			PRIMARY KEY (cache_key, seq)
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Get returns the cached registry for key, or nil if it is not cached.
func (c *Cache) Get(ctx context.Context, key string) (*registry.Registry, error) {
	var (
		reg            registry.Registry
		fallback       int
		nonStrict      int
		portalScore    int
		expectedRecord int
	)
	err := sq.Select("content_hash", "source", "encoding", "fallback",
		"has_non_strict", "has_portal_score", "record_count").
		From("sources").
		Where(sq.Eq{"cache_key": key}).
		RunWith(c.db).
		QueryRowContext(ctx).
		Scan(&reg.Hash, &reg.Source, &reg.Encoding, &fallback, &nonStrict, &portalScore, &expectedRecord)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}
	reg.Fallback = fallback != 0
	reg.Columns = registry.Columns{NonStrict: nonStrict != 0, PortalScore: portalScore != 0}

	rows, err := sq.Select(recordColumns[2:]...).
		From("records").
		Where(sq.Eq{"cache_key": key}).
		OrderBy("seq").
		RunWith(c.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading cached records: %w", err)
	}
	defer rows.Close()

	reg.Records = make([]registry.Record, 0, expectedRecord)
	for rows.Next() {
		var (
			r               registry.Record
			strict, nstrict int
		)
		if err := rows.Scan(&r.Title, &r.Year, &r.DivisionsRaw, &r.HSEListTag,
			&strict, &nstrict, &r.FractionalScore, &r.PortalScore,
			&r.PortalType, &r.ScopusType, &r.Line); err != nil {
			return nil, fmt.Errorf("scanning cached record: %w", err)
		}
		r.Review = registry.ReviewClass{Strict: strict != 0, NonStrict: nstrict != 0}
		reg.Records = append(reg.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading cached records: %w", err)
	}

	// A partially written entry is treated as a miss.
	if len(reg.Records) != expectedRecord {
		return nil, nil
	}
	return &reg, nil
}

// Put stores reg under key, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, key string, reg *registry.Registry) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning cache transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteKey(ctx, tx, key); err != nil {
		return err
	}

	_, err = sq.Insert("sources").
		Columns("cache_key", "content_hash", "source", "encoding", "fallback",
			"has_non_strict", "has_portal_score", "record_count", "cached_at").
		Values(key, reg.Hash, reg.Source, reg.Encoding, boolInt(reg.Fallback),
			boolInt(reg.Columns.NonStrict), boolInt(reg.Columns.PortalScore),
			len(reg.Records), c.now().UTC().Format(time.RFC3339)).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}

	for start := 0; start < len(reg.Records); start += insertBatch {
		end := start + insertBatch
		if end > len(reg.Records) {
			end = len(reg.Records)
		}
		ins := sq.Insert("records").Columns(recordColumns...)
		for i, r := range reg.Records[start:end] {
			ins = ins.Values(key, start+i, r.Title, r.Year, r.DivisionsRaw, r.HSEListTag,
				boolInt(r.Review.Strict), boolInt(r.Review.NonStrict),
				r.FractionalScore, r.PortalScore, r.PortalType, r.ScopusType, r.Line)
		}
		if _, err := ins.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("storing cached records: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cache entry: %w", err)
	}
	return nil
}

// Info lists cached registries, most recent first.
func (c *Cache) Info(ctx context.Context) (*Info, error) {
	info := &Info{Path: c.path}
	if stat, err := os.Stat(c.path); err == nil {
		info.Size = stat.Size()
	}

	rows, err := sq.Select("cache_key", "content_hash", "source", "encoding",
		"fallback", "record_count", "cached_at").
		From("sources").
		OrderBy("cached_at DESC", "cache_key").
		RunWith(c.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing cache entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e        Entry
			fallback int
			cachedAt string
		)
		if err := rows.Scan(&e.Key, &e.ContentHash, &e.Source, &e.Encoding,
			&fallback, &e.Records, &cachedAt); err != nil {
			return nil, fmt.Errorf("scanning cache entry: %w", err)
		}
		e.Fallback = fallback != 0
		e.CachedAt, _ = time.Parse(time.RFC3339, cachedAt)
		info.Entries = append(info.Entries, e)
	}
	return info, rows.Err()
}

// Clear removes every cached registry and returns how many were removed.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	var n int
	if err := sq.Select("COUNT(*)").From("sources").RunWith(c.db).QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	if _, err := sq.Delete("records").RunWith(c.db).ExecContext(ctx); err != nil {
		return 0, fmt.Errorf("clearing cached records: %w", err)
	}
	if _, err := sq.Delete("sources").RunWith(c.db).ExecContext(ctx); err != nil {
		return 0, fmt.Errorf("clearing cache entries: %w", err)
	}
	return n, nil
}

func deleteKey(ctx context.Context, runner sq.BaseRunner, key string) error {
	if _, err := sq.Delete("records").Where(sq.Eq{"cache_key": key}).RunWith(runner).ExecContext(ctx); err != nil {
		return fmt.Errorf("removing stale records: %w", err)
	}
	if _, err := sq.Delete("sources").Where(sq.Eq{"cache_key": key}).RunWith(runner).ExecContext(ctx); err != nil {
		return fmt.Errorf("removing stale entry: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
