package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Cache persists parsed registries across processes. Get returns (nil, nil)
// when the key is absent.
type Cache interface {
	Get(ctx context.Context, key string) (*Registry, error)
	Put(ctx context.Context, key string, reg *Registry) error
}

// MemoStats counts how a Memo satisfied its loads.
type MemoStats struct {
	MemoHits  int `json:"memo_hits"`
	CacheHits int `json:"cache_hits"`
	Reads     int `json:"reads"`
	Parses    int `json:"parses"`
}

type fileIdentity struct {
	path    string
	size    int64
	modTime int64 // unix nanoseconds
}

// Memo memoizes the load-and-clean step per source file identity
// (absolute path, size, modification time). Registries it returns are
// shared between callers and must not be modified.
type Memo struct {
	opts   Options
	cache  Cache
	logger *zap.Logger

	mu      sync.Mutex
	entries map[fileIdentity]*Registry
	stats   MemoStats
}

// NewMemo creates a Memo. cache and logger may be nil.
func NewMemo(opts Options, cache Cache, logger *zap.Logger) *Memo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memo{
		opts:    opts,
		cache:   cache,
		logger:  logger,
		entries: make(map[fileIdentity]*Registry),
	}
}

// Load returns the parsed registry for path, reading and parsing the file
// only when its identity has not been seen before.
func (m *Memo) Load(ctx context.Context, path string) (*Registry, error) {
	id, err := statIdentity(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if reg, ok := m.entries[id]; ok {
		m.stats.MemoHits++
		return reg, nil
	}

	data, err := ReadFile(id.path)
	if err != nil {
		return nil, err
	}
	m.stats.Reads++
	key := m.cacheKey(data)

	if m.cache != nil {
		reg, err := m.cache.Get(ctx, key)
		if err != nil {
			m.logger.Warn("registry cache lookup failed", zap.String("path", id.path), zap.Error(err))
		} else if reg != nil {
			m.stats.CacheHits++
			reg.Source = id.path
			m.entries[id] = reg
			m.logger.Debug("registry served from cache",
				zap.String("path", id.path), zap.Int("records", len(reg.Records)))
			return reg, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reg, dec, err := Load(data, m.opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id.path, err)
	}
	m.stats.Parses++
	reg.Source = id.path
	if dec.Warning != nil {
		m.logger.Warn("registry decoded with replacement",
			zap.String("path", id.path), zap.Strings("tried", dec.Warning.Tried))
	}
	m.logger.Debug("registry parsed",
		zap.String("path", id.path),
		zap.String("encoding", reg.Encoding),
		zap.Int("records", len(reg.Records)))

	if m.cache != nil {
		if err := m.cache.Put(ctx, key, reg); err != nil {
			m.logger.Warn("registry cache store failed", zap.String("path", id.path), zap.Error(err))
		}
	}

	m.entries[id] = reg
	return reg, nil
}

// Stats returns a snapshot of load counters.
func (m *Memo) Stats() MemoStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// cacheKey combines the content hash with the options that shape parsing,
// so a change of column names or encodings never reuses a stale parse.
func (m *Memo) cacheKey(data []byte) string {
	c := m.opts.Columns.WithDefaults()
	opts := strings.Join([]string{
		c.Title, c.Year, c.Divisions, c.HSEList, c.Strict, c.NonStrict,
		c.Score, c.PortalScore, c.PortalType, c.ScopusType,
		strings.Join(m.opts.Encodings, ","),
	}, "\x1f")
	return HashBytes(data) + "-" + HashBytes([]byte(opts))[:12]
}

func statIdentity(path string) (fileIdentity, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fileIdentity{}, fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fileIdentity{}, fmt.Errorf("reading registry: %w", err)
	}
	if info.IsDir() {
		return fileIdentity{}, fmt.Errorf("reading registry: %s is a directory", abs)
	}
	return fileIdentity{path: abs, size: info.Size(), modTime: info.ModTime().UnixNano()}, nil
}
