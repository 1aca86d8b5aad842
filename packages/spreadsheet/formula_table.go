package spreadsheet

import (
	"slices"

	"github.com/vogtb/sheetcalc/packages/formula"
)

// FormulaTable stores formulas centrally, so cells holding the same formula
// share one parsed instance, and tracks which cells use each formula
type FormulaTable struct {
	formulas          map[formula.Key]*formula.Formula    // key -> shared formula
	cellsUsingFormula map[formula.Key]map[string]struct{} // key -> cells using it
	formulaAtCell     map[string]formula.Key              // cell -> key (reverse index)
}

// NewFormulaTable creates a new formula table
func NewFormulaTable() *FormulaTable {
	return &FormulaTable{
		formulas:          make(map[formula.Key]*formula.Formula),
		cellsUsingFormula: make(map[formula.Key]map[string]struct{}),
		formulaAtCell:     make(map[string]formula.Key),
	}
}

// InternFormula records that cell holds f, replacing whatever formula it
// held before. returns the shared instance equal to f.
func (ft *FormulaTable) InternFormula(f *formula.Formula, cell string) *formula.Formula {
	key := f.Key()

	if oldKey, exists := ft.formulaAtCell[cell]; exists && oldKey != key {
		ft.ReleaseCell(cell)
	}

	shared, exists := ft.formulas[key]
	if !exists {
		shared = f
		ft.formulas[key] = f
	}

	if ft.cellsUsingFormula[key] == nil {
		ft.cellsUsingFormula[key] = make(map[string]struct{})
	}
	ft.cellsUsingFormula[key][cell] = struct{}{}
	ft.formulaAtCell[cell] = key

	return shared
}

// ReleaseCell forgets the formula held by cell. the formula itself is
// dropped once no cell uses it.
func (ft *FormulaTable) ReleaseCell(cell string) {
	key, exists := ft.formulaAtCell[cell]
	if !exists {
		return
	}
	delete(ft.formulaAtCell, cell)

	cells := ft.cellsUsingFormula[key]
	delete(cells, cell)
	if len(cells) == 0 {
		delete(ft.cellsUsingFormula, key)
		delete(ft.formulas, key)
	}
}

// CellsUsing returns the cells holding a formula equal to f, sorted
func (ft *FormulaTable) CellsUsing(f *formula.Formula) []string {
	cells := make([]string, 0, len(ft.cellsUsingFormula[f.Key()]))
	for cell := range ft.cellsUsingFormula[f.Key()] {
		cells = append(cells, cell)
	}
	slices.Sort(cells)
	return cells
}

// Len returns the number of distinct formulas in use
func (ft *FormulaTable) Len() int {
	return len(ft.formulas)
}
