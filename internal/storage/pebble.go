package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"syscall"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

type PebbleStore struct {
	db *pebble.DB
}

// OpenPebble opens (or creates) a Pebble database under dir.
func OpenPebble(dir string) (*PebbleStore, error) {
	return openPebble(dir, nil)
}

// OpenPebbleMem opens a Pebble database backed by an in-memory filesystem.
func OpenPebbleMem() (*PebbleStore, error) {
	return openPebble("", vfs.NewMem())
}

func openPebble(dir string, fsys vfs.FS) (*PebbleStore, error) {
	opts := &pebble.Options{}
	if fsys != nil {
		opts.FS = fsys
	}

	db, err := pebble.Open(dir, opts)
	if err != nil {
		if lockHeld(err) {
			return nil, fmt.Errorf("open pebble %q: %w (%v)", dir, ErrStateLocked, err)
		}
		return nil, fmt.Errorf("open pebble %q: %w", dir, err)
	}

	slog.Debug("pebble state store opened", "dir", dir)
	return &PebbleStore{db: db}, nil
}

// lockHeld reports whether err comes from the directory lock rather than the
// filesystem. The lock is an fcntl lock across processes and a map within one.
func lockHeld(err error) bool {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return false
	}
	return errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EACCES) ||
		strings.Contains(err.Error(), "lock held by")
}

func (s *PebbleStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if s.db == nil {
		return nil, false, ErrClosed
	}

	value, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("pebble get %q: %w", key, err)
	}
	defer closer.Close()

	return cloneBytes(value), true, nil
}

func (s *PebbleStore) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	if s.db == nil {
		return ErrClosed
	}

	if err := s.db.Set([]byte(key), value, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set %q: %w", key, err)
	}
	return nil
}

func (s *PebbleStore) Delete(_ context.Context, key string) error {
	if s.db == nil {
		return ErrClosed
	}

	if err := s.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("pebble delete %q: %w", key, err)
	}
	return nil
}

func (s *PebbleStore) List(_ context.Context, prefix string) (map[string][]byte, error) {
	if s.db == nil {
		return nil, ErrClosed
	}

	iter, err := s.db.NewIter(prefixOptions(prefix))
	if err != nil {
		return nil, fmt.Errorf("pebble iter %q: %w", prefix, err)
	}
	defer iter.Close()

	out := map[string][]byte{}
	for iter.First(); iter.Valid(); iter.Next() {
		out[string(iter.Key())] = cloneBytes(iter.Value())
	}

	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("pebble iter %q: %w", prefix, err)
	}
	return out, nil
}

func (s *PebbleStore) DeletePrefix(_ context.Context, prefix string) error {
	if s.db == nil {
		return ErrClosed
	}

	opts := prefixOptions(prefix)
	if opts.UpperBound == nil {
		// Every key sorts below a run of 0xff bytes longer than any key we write.
		opts.UpperBound = []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	}
	if err := s.db.DeleteRange(opts.LowerBound, opts.UpperBound, pebble.Sync); err != nil {
		return fmt.Errorf("pebble delete prefix %q: %w", prefix, err)
	}
	return nil
}

func (s *PebbleStore) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	s.db = nil
	return nil
}

func prefixOptions(prefix string) *pebble.IterOptions {
	lower := []byte(prefix)
	return &pebble.IterOptions{LowerBound: lower, UpperBound: prefixEnd(lower)}
}

// prefixEnd returns the smallest key greater than every key with the prefix,
// or nil when no such key exists.
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
