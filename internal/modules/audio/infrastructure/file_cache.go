package infrastructure

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kcbot/kcbot/internal/modules/audio/application/ports"
	"github.com/kcbot/kcbot/internal/modules/audio/domain"
)

// DefaultCacheMaxBytes is the default size bound of the audio cache (8 GiB).
const DefaultCacheMaxBytes int64 = 8 << 30

// Suffixes yt-dlp uses for downloads that are still in progress.
var partialSuffixes = []string{".part", ".ytdl", ".temp"}

var _ ports.ContentCache = (*FileCache)(nil)

// FileCache is a flat directory of downloaded audio files, evicted least
// recently used first. A file's modification time is its last use.
type FileCache struct {
	root     string
	maxBytes int64
	metrics  ports.CacheMetrics
	logger   *slog.Logger
	now      func() time.Time

	// Serializes evictions. Lookups only touch single files.
	evictMu sync.Mutex
}

// NewFileCache creates a cache rooted at root, creating the directory if needed.
func NewFileCache(
	root string,
	maxBytes int64,
	metrics ports.CacheMetrics,
	logger *slog.Logger,
) (*FileCache, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache root: %w", err)
	}
	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache root: %w", err)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultCacheMaxBytes
	}
	if metrics == nil {
		metrics = noopCacheMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &FileCache{
		root:     absRoot,
		maxBytes: maxBytes,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Dir returns the cache root.
func (c *FileCache) Dir() string {
	return c.root
}

// Lookup finds the completed file tagged with id and refreshes its recency.
func (c *FileCache) Lookup(id domain.ItemID) (string, bool) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		c.logger.Warn("failed to read cache directory", "dir", c.root, "error", err)
		c.metrics.CacheMiss()
		return "", false
	}

	tag := id.Tag()
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || isPartial(name) || !strings.Contains(name, tag) {
			continue
		}

		path := filepath.Join(c.root, name)
		now := c.now()
		if err := os.Chtimes(path, now, now); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				// Evicted between listing and touch.
				continue
			}
			c.logger.Warn("failed to touch cached file", "path", path, "error", err)
		}

		c.metrics.CacheHit()
		return path, true
	}

	c.metrics.CacheMiss()
	return "", false
}

type cachedFile struct {
	path    string
	size    int64
	modTime time.Time
}

// EvictToBound removes the least recently used files until the total size of
// completed files is at most the bound.
func (c *FileCache) EvictToBound() error {
	c.evictMu.Lock()
	defer c.evictMu.Unlock()

	files, total, err := c.list()
	if err != nil {
		return err
	}
	if total <= c.maxBytes {
		return nil
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})

	var evicted int
	var freed int64
	for _, f := range files {
		if total <= c.maxBytes {
			break
		}
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", f.path, err)
		}
		total -= f.size
		freed += f.size
		evicted++
		c.metrics.Evicted(f.size)
	}

	c.logger.Info("evicted cached audio",
		"files", evicted,
		"bytes_freed", freed,
		"bytes_remaining", total,
	)
	return nil
}

func (c *FileCache) list() ([]cachedFile, int64, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	files := make([]cachedFile, 0, len(entries))
	var total int64
	for _, entry := range entries {
		if !entry.Type().IsRegular() || isPartial(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, 0, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}

		files = append(files, cachedFile{
			path:    filepath.Join(c.root, entry.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
		total += info.Size()
	}
	return files, total, nil
}

func isPartial(name string) bool {
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

type noopCacheMetrics struct{}

func (noopCacheMetrics) CacheHit()     {}
func (noopCacheMetrics) CacheMiss()    {}
func (noopCacheMetrics) Evicted(int64) {}
