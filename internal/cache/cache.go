package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one cached value with its expiry.
type Entry[T any] struct {
	Value     T         `json:"value"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry is past its expiry at now.
func (e Entry[T]) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

type file[T any] struct {
	Entries map[string]Entry[T] `json:"entries"`
}

// Store is a JSON file of TTL entries keyed by string.
// It is safe for concurrent use within one process; Save merges with
// whatever other processes wrote in the meantime.
type Store[T any] struct {
	mu      sync.Mutex
	path    string
	ttl     time.Duration
	now     func() time.Time
	entries map[string]Entry[T]
	deleted map[string]bool
	dirty   bool
}

// Open loads the store at path. A missing or corrupted file starts empty.
// ttl is the lifetime used by Set.
func Open[T any](path string, ttl time.Duration) (*Store[T], error) {
	s := &Store[T]{
		path:    path,
		ttl:     ttl,
		now:     time.Now,
		deleted: make(map[string]bool),
	}
	entries, err := readEntries[T](path)
	if err != nil {
		return nil, err
	}
	s.entries = entries
	return s, nil
}

func readEntries[T any](path string) (map[string]Entry[T], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]Entry[T]), nil
		}
		return nil, fmt.Errorf("failed to read cache %s: %w", path, err)
	}

	var f file[T]
	if err := json.Unmarshal(data, &f); err != nil {
		// Corrupted - start fresh
		return make(map[string]Entry[T]), nil
	}
	if f.Entries == nil {
		f.Entries = make(map[string]Entry[T])
	}
	return f.Entries, nil
}

// Path returns the backing file path.
func (s *Store[T]) Path() string {
	return s.path
}

// Get returns the value for key if present and not expired.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.Expired(s.now()) {
		var zero T
		return zero, false
	}
	return e.Value, true
}

// Set stores value under key with the store's default TTL.
func (s *Store[T]) Set(key string, value T) {
	s.SetTTL(key, value, s.ttl)
}

// SetTTL stores value under key, expiring after ttl.
func (s *Store[T]) SetTTL(key string, value T, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.entries[key] = Entry[T]{Value: value, StoredAt: now, ExpiresAt: now.Add(ttl)}
	delete(s.deleted, key)
	s.dirty = true
}

// Delete removes key.
func (s *Store[T]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	s.deleted[key] = true
	s.dirty = true
}

// Prune drops expired entries and returns how many were removed.
func (s *Store[T]) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pruneLocked(s.now())
}

func (s *Store[T]) pruneLocked(now time.Time) int {
	n := 0
	for k, e := range s.entries {
		if e.Expired(now) {
			delete(s.entries, k)
			n++
		}
	}
	if n > 0 {
		s.dirty = true
	}
	return n
}

// Len returns the number of stored entries, expired ones included.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Save writes the store to disk atomically under a file lock.
// Entries written by other processes since Open are kept unless this
// store overwrote or deleted them. Saving an unchanged store is a no-op.
func (s *Store[T]) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	lock := NewFileLock(s.path + ".lock")
	if err := lock.Lock(ctx); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	onDisk, err := readEntries[T](s.path)
	if err != nil {
		return err
	}
	for k := range s.deleted {
		delete(onDisk, k)
	}
	merged := onDisk
	maps.Copy(merged, s.entries)
	s.entries = merged
	s.pruneLocked(s.now())

	data, err := json.MarshalIndent(file[T]{Entries: s.entries}, "", "  ")
	if err != nil {
		return err
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}

	s.deleted = make(map[string]bool)
	s.dirty = false
	return nil
}

// Dir returns the per-user cache directory, ~/.cache/wtsweep on Linux.
func Dir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate cache directory: %w", err)
	}
	return filepath.Join(base, "wtsweep"), nil
}

// StatusPath returns the status cache file for the repository whose
// shared git directory is commonDir.
func StatusPath(commonDir string) string {
	return filepath.Join(commonDir, "wtsweep", "status.json")
}

// PRPath returns the user-wide pull request cache file.
func PRPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prs.json"), nil
}
