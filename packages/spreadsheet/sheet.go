// Package spreadsheet keeps a set of named cells holding numbers, text or
// formulas, and recalculates every affected cell when one of them changes.
//
//	sheet := spreadsheet.New()
//	sheet.SetContentsOfCell("A1", "5")
//	sheet.SetContentsOfCell("B1", "=A1*2")
//	value, _ := sheet.GetCellValue("B1") // Number(10)
package spreadsheet

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"github.com/vogtb/sheetcalc/packages/formula"
)

// DefaultVersion is the version of sheets created without WithVersion
const DefaultVersion = "default"

// Spreadsheet combines the cell table, the dependency graph and formula
// evaluation into a single API. it is not safe for concurrent use.
type Spreadsheet struct {
	storage          *Storage
	calculationStack *CalculationStack

	isValid   func(string) bool
	normalize func(string) string
	version   string
	changed   bool

	log logr.Logger
}

// Option configures a Spreadsheet
type Option func(*Spreadsheet)

// WithValidator sets an extra check that cell names must pass after
// normalization. formulas referencing names it rejects are format errors.
func WithValidator(isValid func(string) bool) Option {
	return func(s *Spreadsheet) {
		if isValid != nil {
			s.isValid = isValid
		}
	}
}

// WithNormalizer sets the function every cell name and formula variable is
// passed through, e.g. strings.ToUpper
func WithNormalizer(normalize func(string) string) Option {
	return func(s *Spreadsheet) {
		if normalize != nil {
			s.normalize = normalize
		}
	}
}

// WithVersion sets the version written to snapshots and required on Load
func WithVersion(version string) Option {
	return func(s *Spreadsheet) {
		s.version = version
	}
}

// WithLogr sets the logger
func WithLogr(log logr.Logger) Option {
	return func(s *Spreadsheet) {
		s.log = log
	}
}

// New creates an empty spreadsheet. without options every well-formed name
// is valid, names are used as written and the version is DefaultVersion.
func New(opts ...Option) *Spreadsheet {
	s := &Spreadsheet{
		storage:          NewStorage(),
		calculationStack: NewCalculationStack(),
		isValid:          func(string) bool { return true },
		normalize:        func(name string) string { return name },
		version:          DefaultVersion,
		log:              logr.Discard(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Version returns the version written to snapshots
func (s *Spreadsheet) Version() string {
	return s.version
}

// Changed reports whether the sheet was modified since it was created,
// loaded or last saved
func (s *Spreadsheet) Changed() bool {
	return s.changed
}

// Len returns the number of non-blank cells
func (s *Spreadsheet) Len() int {
	return s.storage.cells.Len()
}

// NamesOfAllNonemptyCells returns the names of all non-blank cells, in the
// order they were created
func (s *Spreadsheet) NamesOfAllNonemptyCells() iter.Seq[string] {
	return s.storage.cells.Names()
}

// GetCellContents returns the contents of the named cell, Text("") if it is
// blank
func (s *Spreadsheet) GetCellContents(name string) (Contents, error) {
	name, err := s.processName(name)
	if err != nil {
		return nil, err
	}

	if cell, exists := s.storage.cells.Get(name); exists {
		return cell.Contents(), nil
	}
	return Text(""), nil
}

// GetCellValue returns the value of the named cell, Text("") if it is blank
func (s *Spreadsheet) GetCellValue(name string) (Value, error) {
	name, err := s.processName(name)
	if err != nil {
		return nil, err
	}

	if cell, exists := s.storage.cells.Get(name); exists {
		return cell.Value(), nil
	}
	return Text(""), nil
}

// SetContentsOfCell sets the contents of the named cell from text: a number,
// a formula when it starts with '=', otherwise plain text. the empty string
// makes the cell blank. returns the changed cell followed by every cell that
// was recalculated, each after the cells it depends on.
//
// a formula with bad syntax returns a *formula.FormatError and a formula
// that would make a cell depend on itself returns ErrCircularDependency; in
// both cases the sheet is left exactly as it was.
func (s *Spreadsheet) SetContentsOfCell(name, text string) ([]string, error) {
	name, err := s.processName(name)
	if err != nil {
		return nil, err
	}

	if number, ok := parseNumber(text); ok {
		return s.setValue(name, Number(number))
	}

	if strings.HasPrefix(text, "=") {
		f, err := formula.New(text[1:], formula.WithNormalizer(s.normalize), formula.WithValidator(s.isValid))
		if err != nil {
			return nil, err
		}
		return s.setFormula(name, f)
	}

	return s.setValue(name, Text(text))
}

// Evaluate computes a formula against the current cell values without
// storing it anywhere. text may start with '='. the result is a Number or an
// ErrorValue; syntax errors are returned as a *formula.FormatError.
func (s *Spreadsheet) Evaluate(text string) (Value, error) {
	f, err := formula.New(strings.TrimPrefix(text, "="), formula.WithNormalizer(s.normalize), formula.WithValidator(s.isValid))
	if err != nil {
		return nil, err
	}

	result := f.Evaluate(s.lookup)
	if result.IsError() {
		return ErrorValue{Reason: result.Err.Reason}, nil
	}
	return Number(result.Value), nil
}

// setValue sets number or text contents. such a cell depends on nothing, so
// no cycle can pass through it.
func (s *Spreadsheet) setValue(name string, contents Contents) ([]string, error) {
	s.changed = true

	cell, _ := s.storage.cells.GetOrCreate(name)
	cell.setContents(contents)
	s.storage.formulas.ReleaseCell(name)
	s.storage.dependencyGraph.ReplaceDependees(name, nil)

	order, err := s.cellsToRecalculate(name)
	if err != nil {
		return nil, err
	}
	s.recalculate(order)

	if cell.isBlank() {
		s.storage.cells.Remove(name)
		s.log.V(1).Info("removed blank cell", "cell", name)
	}

	return order, nil
}

// setFormula sets formula contents. the previous contents, dependees and
// changed flag are restored if the formula closes a cycle.
func (s *Spreadsheet) setFormula(name string, f *formula.Formula) ([]string, error) {
	wasChanged := s.changed
	oldDependees := s.storage.dependencyGraph.Dependees(name)

	cell, _ := s.storage.cells.GetOrCreate(name)
	oldContents := cell.Contents()

	s.changed = true
	f = s.storage.formulas.InternFormula(f, name)
	cell.setContents(FormulaContents{Formula: f})
	s.storage.dependencyGraph.ReplaceDependees(name, f.Variables())

	order, err := s.cellsToRecalculate(name)
	if err != nil {
		cell.setContents(oldContents)
		if old, ok := oldContents.(FormulaContents); ok {
			s.storage.formulas.InternFormula(old.Formula, name)
		} else {
			s.storage.formulas.ReleaseCell(name)
		}
		s.storage.dependencyGraph.ReplaceDependees(name, oldDependees)
		if cell.isBlank() {
			s.storage.cells.Remove(name)
		}
		s.changed = wasChanged

		s.log.V(1).Info("rejected formula", "cell", name, "formula", f.String(), "error", err.Error())
		return nil, err
	}

	s.log.V(1).Info("set formula", "cell", name, "formula", f.String(), "cellsUsing", s.storage.formulas.CellsUsing(f))
	s.recalculate(order)
	return order, nil
}

// lookup resolves formula variables to the values of other cells. variables
// arrive already normalized and validated by the formula.
func (s *Spreadsheet) lookup(name string) (float64, error) {
	if !isCellName(name) {
		return 0, fmt.Errorf("%s is not a cell name", name)
	}

	cell, exists := s.storage.cells.Get(name)
	if !exists {
		return 0, fmt.Errorf("cell %s is blank", name)
	}

	number, ok := cell.Value().(Number)
	if !ok {
		return 0, fmt.Errorf("cell %s has invalid contents", name)
	}
	return float64(number), nil
}

// processName normalizes name and checks it against the name syntax and the
// validator
func (s *Spreadsheet) processName(name string) (string, error) {
	normalized := s.normalize(name)
	if !isCellName(normalized) || !s.isValid(normalized) {
		return "", newInvalidNameError(name, normalized)
	}
	return normalized, nil
}

// isCellName checks for one or more ASCII letters followed by one or more
// digits, e.g. "A1" or "zz404"
func isCellName(s string) bool {
	if len(s) < 2 {
		return false
	}

	// find where letters end and numbers begin
	letterEnd := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' {
			letterEnd = i + 1
		} else {
			break
		}
	}

	// must have at least one letter and one digit
	if letterEnd == 0 || letterEnd == len(s) {
		return false
	}

	for i := letterEnd; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

// parseNumber accepts decimal numbers with optional sign, exponent and
// surrounding whitespace. infinities, NaN and hex floats are text.
func parseNumber(text string) (float64, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.ContainsAny(trimmed, "xX_") {
		return 0, false
	}

	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, false
	}
	return value, true
}
