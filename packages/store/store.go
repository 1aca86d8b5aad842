// Package store persists spreadsheet snapshots by name. a Store only moves
// bytes; Save and Open turn them into spreadsheets.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"

	"github.com/vogtb/sheetcalc/packages/spreadsheet"
)

// ErrNotFound is returned by Reader when no snapshot has the given name
var ErrNotFound = errors.New("snapshot not found")

// Store is a named collection of snapshots
type Store interface {
	// Reader opens the named snapshot for reading
	Reader(ctx context.Context, name string) (io.ReadCloser, error)

	// Writer creates or replaces the named snapshot. data is committed when
	// the writer is closed.
	Writer(ctx context.Context, name string) (io.WriteCloser, error)

	// Delete removes the named snapshot. deleting a missing snapshot is not
	// an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all snapshots, sorted
	List(ctx context.Context) ([]string, error)

	Close() error
}

// Save writes sheet to st under name. every failure is a spreadsheet
// read/write error. the changed flag is cleared only once the store has
// committed the snapshot.
func Save(ctx context.Context, st Store, name string, sheet *spreadsheet.Spreadsheet) error {
	w, err := st.Writer(ctx, name)
	if err != nil {
		return spreadsheet.NewReadWriteError(fmt.Sprintf("could not create spreadsheet %s", name), err)
	}

	err = sheet.Encode(w)
	if closeErr := w.Close(); closeErr != nil {
		err = multierr.Append(err, spreadsheet.NewReadWriteError(fmt.Sprintf("could not write spreadsheet %s", name), closeErr))
	}
	if err != nil {
		return err
	}

	sheet.MarkSaved()
	return nil
}

// Open loads the sheet saved under name. opts configure the sheet as for
// spreadsheet.New, and its version must match the saved one.
func Open(ctx context.Context, st Store, name string, opts ...spreadsheet.Option) (*spreadsheet.Spreadsheet, error) {
	r, err := st.Reader(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil, spreadsheet.NewReadWriteError(fmt.Sprintf("spreadsheet %s does not exist", name), err)
	}
	if err != nil {
		return nil, spreadsheet.NewReadWriteError(fmt.Sprintf("could not open spreadsheet %s", name), err)
	}
	defer r.Close()

	return spreadsheet.Load(r, opts...)
}
