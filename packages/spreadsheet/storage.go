package spreadsheet

import "github.com/vogtb/sheetcalc/packages/depgraph"

// Storage holds the tables that make up a sheet's state
type Storage struct {
	cells           *CellTable
	formulas        *FormulaTable
	dependencyGraph *depgraph.DependencyGraph // (a, b): b's formula references a
}

// NewStorage creates empty tables
func NewStorage() *Storage {
	return &Storage{
		cells:           NewCellTable(),
		formulas:        NewFormulaTable(),
		dependencyGraph: depgraph.New(),
	}
}
