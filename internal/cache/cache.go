// Package cache implements a content-addressed, TTL-bound file cache for
// parsed URL records. Keys are derived from the URL so entries are safe to
// place directly on the filesystem, and writes go through a temp-file
// rename so concurrent readers never observe a partial entry.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Entry is the persisted wrapper around a cached payload.
type Entry struct {
	ETag      string          `json:"etag"`
	FetchedAt int64           `json:"fetched_at"`
	TTL       int             `json:"ttl"`
	Payload   json.RawMessage `json:"payload"`
}

// Config captures the parameters for the file cache.
type Config struct {
	// Dir is the root directory where entries are stored.
	Dir string `mapstructure:"dir"`
	// MaxBytes bounds the total on-disk size; 0 disables eviction.
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// Store is a file-backed cache keyed by the SHA-256 of the URL.
type Store struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

// New creates the cache directory if needed and returns a Store.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Store{dir: cfg.Dir, maxBytes: cfg.MaxBytes, now: time.Now}, nil
}

// Key returns the hex SHA-256 digest used as the entry filename for url.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

func (s *Store) path(url string) string {
	return filepath.Join(s.dir, Key(url)+".json")
}

// Get returns the entry for url, or ok=false when the entry is missing,
// unreadable, malformed, or older than its TTL. It never returns an error:
// a broken cache degrades to a miss.
func (s *Store) Get(url string) (Entry, bool) {
	data, err := os.ReadFile(s.path(url))
	if err != nil {
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false
	}
	if e.TTL > 0 && s.now().Unix()-e.FetchedAt > int64(e.TTL) {
		// Soft expiry; the stale file stays until budget eviction removes it.
		return Entry{}, false
	}
	return e, true
}

// Set persists payload under url with the given etag and TTL. The entry is
// written to a temporary file and atomically renamed into place.
func (s *Store) Set(url, etag string, payload json.RawMessage, ttl int) error {
	e := Entry{
		ETag:      etag,
		FetchedAt: s.now().Unix(),
		TTL:       ttl,
		Payload:   payload,
	}
	blob, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	final := s.path(url)
	tmp, err := os.CreateTemp(s.dir, ".entry-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp entry: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp entry: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename cache entry: %w", err)
	}
	return nil
}

// SizeBytes sums the on-disk size of all entries.
func (s *Store) SizeBytes() int64 {
	var total int64
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		if info, err := de.Info(); err == nil {
			total += info.Size()
		}
	}
	return total
}

// EnforceBudget evicts entries oldest-mtime-first until the cache fits the
// configured byte budget. Best effort: removal errors are skipped.
func (s *Store) EnforceBudget() {
	if s.maxBytes <= 0 {
		return
	}
	total := s.SizeBytes()
	if total <= s.maxBytes {
		return
	}
	type candidate struct {
		path  string
		size  int64
		mtime time.Time
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	var victims []candidate
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		victims = append(victims, candidate{
			path:  filepath.Join(s.dir, de.Name()),
			size:  info.Size(),
			mtime: info.ModTime(),
		})
	}
	sort.Slice(victims, func(i, j int) bool { return victims[i].mtime.Before(victims[j].mtime) })
	for _, v := range victims {
		if total <= s.maxBytes {
			return
		}
		if err := os.Remove(v.path); err == nil {
			total -= v.size
		}
	}
}
