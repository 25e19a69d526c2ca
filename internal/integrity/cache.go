package integrity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"slatelink/internal/logging"
)

type cacheEntry struct {
	size    int64
	modTime time.Time
	digest  string
}

// Cache computes and caches SHA-256 digests keyed by {path, size, mtime}.
// A cache hit never re-reads the file. Concurrent requests for the same path
// coalesce onto one in-flight computation instead of recomputing.
type Cache struct {
	logger *slog.Logger
	open   func(string) (io.ReadCloser, error)

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

// Option customizes a Cache.
type Option func(*Cache)

// WithOpener replaces the file opener, letting tests count reads.
func WithOpener(open func(string) (io.ReadCloser, error)) Option {
	return func(c *Cache) { c.open = open }
}

// NewCache creates an empty digest cache. A nil logger is replaced with a
// nop logger.
func NewCache(logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		logger:  logging.NewComponentLogger(logger, "integrity"),
		entries: make(map[string]cacheEntry),
		open: func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SHA256 returns the digest of the file at path, from cache when size and
// mtime are unchanged. Cancelling the context abandons the wait but lets the
// in-flight computation finish and populate the cache, which is not
// observably different from normal operation.
func (c *Cache) SHA256(ctx context.Context, path string) (string, error) {
	snap, err := Stat(path)
	if err != nil {
		return "", err
	}
	if digest, ok := c.lookup(snap); ok {
		c.logger.Debug("digest cache hit", logging.String("path", path))
		return digest, nil
	}

	ch := c.group.DoChan(path, func() (any, error) {
		return c.compute(snap)
	})
	select {
	case result := <-ch:
		if result.Err != nil {
			return "", result.Err
		}
		return result.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Records captures completed records for every path, computing digests as
// needed.
func (c *Cache) Records(ctx context.Context, paths ...string) ([]Record, error) {
	records := make([]Record, 0, len(paths))
	for _, path := range paths {
		snap, err := Stat(path)
		if err != nil {
			return nil, err
		}
		digest, err := c.SHA256(ctx, path)
		if err != nil {
			return nil, err
		}
		records = append(records, Record{Snapshot: snap, SHA256: digest})
	}
	return records, nil
}

func (c *Cache) lookup(snap Snapshot) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[snap.Path]
	if !ok || entry.size != snap.Size || !entry.modTime.Equal(snap.ModTime) {
		return "", false
	}
	return entry.digest, true
}

func (c *Cache) compute(snap Snapshot) (string, error) {
	// Another waiter may have stored the entry while we queued.
	if digest, ok := c.lookup(snap); ok {
		return digest, nil
	}

	file, err := c.open(snap.Path)
	if err != nil {
		return "", fmt.Errorf("open for hashing: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hash %s: %w", snap.Path, err)
	}
	digest := hex.EncodeToString(hasher.Sum(nil))

	c.mu.Lock()
	c.entries[snap.Path] = cacheEntry{size: snap.Size, modTime: snap.ModTime, digest: digest}
	c.mu.Unlock()

	c.logger.Debug("digest computed",
		logging.String("path", snap.Path),
		logging.Int("bytes", int(snap.Size)))
	return digest, nil
}
