package spreadsheet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Snapshot is the persisted form of a spreadsheet: its version and the
// contents of every non-blank cell as strings, in cell order
type Snapshot struct {
	Version string         `json:"version"`
	Cells   []SnapshotCell `json:"cells"`
}

// SnapshotCell is one (name, contents) pair of a Snapshot
type SnapshotCell struct {
	Name     string `json:"name"`
	Contents string `json:"contents"`
}

// Snapshot returns the current state of the sheet without touching the
// changed flag
func (s *Spreadsheet) Snapshot() Snapshot {
	snapshot := Snapshot{
		Version: s.version,
		Cells:   make([]SnapshotCell, 0, s.storage.cells.Len()),
	}

	for name := range s.storage.cells.Names() {
		cell, _ := s.storage.cells.Get(name)
		snapshot.Cells = append(snapshot.Cells, SnapshotCell{Name: name, Contents: cell.String()})
	}

	return snapshot
}

// Save writes the sheet to w as JSON and clears the changed flag. partial
// writes are not undone.
func (s *Spreadsheet) Save(w io.Writer) error {
	if err := s.Encode(w); err != nil {
		return err
	}
	s.MarkSaved()
	return nil
}

// Encode writes the sheet to w as JSON without touching the changed flag.
// callers that commit the bytes later call MarkSaved once they are stored.
func (s *Spreadsheet) Encode(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.Snapshot()); err != nil {
		return NewReadWriteError("could not write spreadsheet", err)
	}
	return nil
}

// MarkSaved clears the changed flag
func (s *Spreadsheet) MarkSaved() {
	s.changed = false
	s.log.Info("saved spreadsheet", "version", s.version, "cells", s.storage.cells.Len())
}

// Load reads a sheet written by Save. the options configure the new sheet
// as for New; its version must equal the version in the snapshot. cells are
// replayed through SetContentsOfCell, so names and formulas are validated
// again and values are recomputed.
func Load(r io.Reader, opts ...Option) (*Spreadsheet, error) {
	s := New(opts...)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, NewReadWriteError("could not read spreadsheet", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, NewReadWriteError("spreadsheet file is blank", io.ErrUnexpectedEOF)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, NewReadWriteError("spreadsheet file is not a valid snapshot", err)
	}

	if err := s.Restore(snapshot); err != nil {
		return nil, err
	}

	s.log.Info("loaded spreadsheet", "version", s.version, "cells", s.storage.cells.Len())
	return s, nil
}

// Restore replays a snapshot into an empty sheet and clears the changed
// flag. any failure is a read/write error.
func (s *Spreadsheet) Restore(snapshot Snapshot) error {
	if s.storage.cells.Len() != 0 {
		return NewReadWriteError("cannot restore into a non-empty spreadsheet", nil)
	}
	if snapshot.Version != s.version {
		return NewReadWriteError(fmt.Sprintf("version mismatch: expected %q, found %q", s.version, snapshot.Version), nil)
	}

	for _, cell := range snapshot.Cells {
		if _, err := s.SetContentsOfCell(cell.Name, cell.Contents); err != nil {
			return NewReadWriteError(fmt.Sprintf("could not restore cell %s", cell.Name), err)
		}
	}

	s.changed = false
	return nil
}

// IsReadWriteError reports whether err is a snapshot read/write failure
func IsReadWriteError(err error) bool {
	return errors.Is(err, ErrReadWrite)
}
