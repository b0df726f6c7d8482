// Package cache persists per-city snapshots in a single JSON file that
// maps city name to a timestamped entry, mirroring a browser's single
// localStorage key. Reads fail open: a missing or corrupt file is an
// empty cache, never an error.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/citypulse/citypulse/internal/city"
)

// DefaultTTL is the snapshot validity window.
const DefaultTTL = 5 * time.Minute

// Entry pairs a snapshot with the epoch-millisecond time it was written.
type Entry struct {
	Timestamp int64         `json:"timestamp"`
	Data      city.Snapshot `json:"data"`
}

// Store is a file-backed snapshot cache with lazy TTL invalidation:
// Get never deletes an expired entry, a later Set overwrites it.
type Store struct {
	mu   sync.Mutex
	path string
	ttl  time.Duration

	now func() time.Time
}

// NewStore creates a Store writing to path. A ttl of 0 falls back to
// DefaultTTL.
func NewStore(path string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		path: path,
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get returns the cached snapshot for cityName if an entry exists and
// is younger than the TTL. Expired and missing entries both report
// false; the stale entry itself is left in place.
func (s *Store) Get(cityName string) (city.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	entry, ok := entries[cityName]
	if !ok {
		return city.Snapshot{}, false
	}
	if s.now().UnixMilli()-entry.Timestamp >= s.ttl.Milliseconds() {
		return city.Snapshot{}, false
	}
	return entry.Data, true
}

// Set writes or overwrites the entry for cityName with the current
// timestamp, leaving other cities' entries untouched.
func (s *Store) Set(cityName string, snap city.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	entries[cityName] = Entry{
		Timestamp: s.now().UnixMilli(),
		Data:      snap,
	}
	return s.write(entries)
}

// load reads the full city map from disk, treating any failure as an
// empty cache.
func (s *Store) load() map[string]Entry {
	entries := make(map[string]Entry)

	data, err := os.ReadFile(s.path)
	if err != nil {
		return entries
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return make(map[string]Entry)
	}
	return entries
}

// write persists the full map atomically via a temp file and rename.
func (s *Store) write(entries map[string]Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "cache-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
