package spreadsheet

import (
	"iter"
	"slices"
)

// CellTable manages the live (non-blank) cells. names are kept in the order
// the cells were first created; updating a cell does not move it.
type CellTable struct {
	cells map[string]*Cell // name -> cell
	names []string         // creation order
}

// NewCellTable creates a new, empty cell table
func NewCellTable() *CellTable {
	return &CellTable{
		cells: make(map[string]*Cell),
		names: make([]string, 0),
	}
}

// Get returns the cell with the given name
func (ct *CellTable) Get(name string) (*Cell, bool) {
	cell, exists := ct.cells[name]
	return cell, exists
}

// GetOrCreate returns the named cell, creating a blank one when it does not
// exist. created reports whether the cell is new.
func (ct *CellTable) GetOrCreate(name string) (cell *Cell, created bool) {
	if cell, exists := ct.cells[name]; exists {
		return cell, false
	}

	cell = newCell()
	ct.cells[name] = cell
	ct.names = append(ct.names, name)
	return cell, true
}

// Remove deletes the named cell. returns false if it did not exist.
func (ct *CellTable) Remove(name string) bool {
	if _, exists := ct.cells[name]; !exists {
		return false
	}

	delete(ct.cells, name)
	if i := slices.Index(ct.names, name); i >= 0 {
		ct.names = slices.Delete(ct.names, i, i+1)
	}
	return true
}

// Names returns the names of all live cells in creation order. the sequence
// works on a copy, so cells may be changed while iterating.
func (ct *CellTable) Names() iter.Seq[string] {
	return slices.Values(slices.Clone(ct.names))
}

// Len returns the number of live cells
func (ct *CellTable) Len() int {
	return len(ct.cells)
}
