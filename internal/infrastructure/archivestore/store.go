// Package archivestore keeps finished batch archives in a temp directory
// until they are downloaded once.
package archivestore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/google/uuid"
)

type entry struct {
	path    string
	created time.Time
}

// Store is a read-once archive store backed by temp files
type Store struct {
	dir     string
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]entry
}

// New creates a store writing into dir. Archives older than ttl are removed by Sweep.
func New(dir string, ttl time.Duration) (*Store, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &Store{
		dir:     dir,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}, nil
}

// Put writes data to a new temp file and returns its reference
func (s *Store) Put(ctx context.Context, data []byte) (string, error) {
	id := uuid.NewString()
	path := filepath.Join(s.dir, "eanproc-"+id+".zip")

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write archive: %w", err)
	}

	s.mu.Lock()
	s.entries[id] = entry{path: path, created: s.now()}
	s.mu.Unlock()

	return id, nil
}

// Take claims the archive and returns a reader that deletes the backing file
// on Close. A second Take for the same id returns ErrArchiveNotFound.
func (s *Store) Take(ctx context.Context, id string) (io.ReadCloser, int64, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, 0, domain.ErrArchiveNotFound
	}

	s.mu.Lock()
	e, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()

	if !ok {
		return nil, 0, domain.ErrArchiveNotFound
	}

	f, err := os.Open(e.path)
	if err != nil {
		os.Remove(e.path)
		return nil, 0, domain.ErrArchiveNotFound
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		os.Remove(e.path)
		return nil, 0, fmt.Errorf("stat archive: %w", err)
	}

	return &removingFile{File: f}, info.Size(), nil
}

// Len returns the number of archives waiting to be taken
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes archives older than the TTL and returns how many were removed
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []string
	for id, e := range s.entries {
		if e.created.Before(cutoff) {
			expired = append(expired, e.path)
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()

	for _, path := range expired {
		os.Remove(path)
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Info("expired archives removed", "component", "archivestore", "count", n)
			}
		}
	}
}

type removingFile struct {
	*os.File
}

func (f *removingFile) Close() error {
	err := f.File.Close()
	if rmErr := os.Remove(f.Name()); rmErr != nil && err == nil && !os.IsNotExist(rmErr) {
		err = rmErr
	}
	return err
}
