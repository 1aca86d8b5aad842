package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/cockroachdb/pebble"
	"go.uber.org/multierr"
)

var pebblePrefix = []byte("sheet/")

// PebbleStore keeps snapshots as values in a pebble database, keyed by
// "sheet/<name>"
type PebbleStore struct {
	db *pebble.DB
}

// OpenPebbleStore opens or creates the database in dir. opts may be nil.
func OpenPebbleStore(dir string, opts *pebble.Options) (*PebbleStore, error) {
	if opts == nil {
		opts = &pebble.Options{}
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble database %s: %w", dir, err)
	}
	return &PebbleStore{db: db}, nil
}

func pebbleKey(name string) []byte {
	return append(slices.Clone(pebblePrefix), name...)
}

func (s *PebbleStore) Reader(ctx context.Context, name string) (io.ReadCloser, error) {
	value, closer, err := s.db.Get(pebbleKey(name))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("key %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("pebble get: %w", err)
	}
	defer closer.Close()

	// copy bytes before closer is called
	data := make([]byte, len(value))
	copy(data, value)
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *PebbleStore) Writer(ctx context.Context, name string) (io.WriteCloser, error) {
	return &pebbleWriter{db: s.db, key: pebbleKey(name)}, nil
}

func (s *PebbleStore) Delete(ctx context.Context, name string) error {
	if err := s.db.Delete(pebbleKey(name), pebble.Sync); err != nil {
		return fmt.Errorf("pebble delete: %w", err)
	}
	return nil
}

func (s *PebbleStore) List(ctx context.Context) ([]string, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: pebblePrefix,
		UpperBound: prefixEnd(pebblePrefix),
	})
	if err != nil {
		return nil, fmt.Errorf("pebble iterator: %w", err)
	}

	names := []string{}
	for iter.First(); iter.Valid(); iter.Next() {
		names = append(names, string(iter.Key()[len(pebblePrefix):]))
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("pebble iterator: %w", err)
	}
	return names, nil
}

// Close flushes and closes the database. the database is closed even when
// the flush fails.
func (s *PebbleStore) Close() error {
	return multierr.Append(s.db.Flush(), s.db.Close())
}

// prefixEnd returns the smallest key greater than every key starting with
// prefix
func prefixEnd(prefix []byte) []byte {
	end := slices.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// pebbleWriter buffers a snapshot and sets it in one write on Close
type pebbleWriter struct {
	db     *pebble.DB
	key    []byte
	buf    bytes.Buffer
	closed bool
}

func (w *pebbleWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.New("write to closed snapshot writer")
	}
	return w.buf.Write(p)
}

func (w *pebbleWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.db.Set(w.key, w.buf.Bytes(), pebble.Sync); err != nil {
		return fmt.Errorf("pebble set: %w", err)
	}
	return nil
}

var _ Store = (*PebbleStore)(nil)
