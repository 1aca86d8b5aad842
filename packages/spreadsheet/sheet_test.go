package spreadsheet

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/go-logr/logr/testr"

	"github.com/vogtb/sheetcalc/packages/formula"
)

type SpreadsheetTestCase struct {
	t           *testing.T
	name        string
	spreadsheet *Spreadsheet
	order       []string // order returned by the last successful Set
	err         error
}

func NewSpreadsheetTestCase(t *testing.T, name string, opts ...Option) *SpreadsheetTestCase {
	opts = append([]Option{WithLogr(testr.NewWithOptions(t, testr.Options{Verbosity: 1}))}, opts...)
	return &SpreadsheetTestCase{
		t:           t,
		name:        name,
		spreadsheet: New(opts...),
	}
}

func (tc *SpreadsheetTestCase) Set(name, text string) *SpreadsheetTestCase {
	tc.t.Helper()
	if tc.err != nil {
		return tc
	}
	order, err := tc.spreadsheet.SetContentsOfCell(name, text)
	if err != nil {
		tc.err = err
		return tc
	}
	tc.order = order
	return tc
}

func (tc *SpreadsheetTestCase) AssertNoError() *SpreadsheetTestCase {
	tc.t.Helper()
	if tc.err != nil {
		tc.t.Errorf("%s: unexpected error: %v", tc.name, tc.err)
		tc.err = nil
	}
	return tc
}

func (tc *SpreadsheetTestCase) AssertCellEq(name string, expected Value) *SpreadsheetTestCase {
	tc.t.Helper()
	if tc.err != nil {
		return tc
	}
	actual, err := tc.spreadsheet.GetCellValue(name)
	if err != nil {
		tc.t.Errorf("%s: GetCellValue(%s) failed: %v", tc.name, name, err)
		return tc
	}
	if actual != expected {
		tc.t.Errorf("%s: cell %s = %v (%T), want %v (%T)", tc.name, name, actual, actual, expected, expected)
	}
	return tc
}

func (tc *SpreadsheetTestCase) AssertCellErr(name, reason string) *SpreadsheetTestCase {
	tc.t.Helper()
	return tc.AssertCellEq(name, ErrorValue{Reason: reason})
}

func (tc *SpreadsheetTestCase) AssertCellContents(name, expected string) *SpreadsheetTestCase {
	tc.t.Helper()
	if tc.err != nil {
		return tc
	}
	contents, err := tc.spreadsheet.GetCellContents(name)
	if err != nil {
		tc.t.Errorf("%s: GetCellContents(%s) failed: %v", tc.name, name, err)
		return tc
	}
	if contents.String() != expected {
		tc.t.Errorf("%s: cell %s contents = %q, want %q", tc.name, name, contents.String(), expected)
	}
	return tc
}

func (tc *SpreadsheetTestCase) AssertCellEmpty(name string) *SpreadsheetTestCase {
	tc.t.Helper()
	if tc.err != nil {
		return tc
	}
	contents, err := tc.spreadsheet.GetCellContents(name)
	if err != nil {
		tc.t.Errorf("%s: GetCellContents(%s) failed: %v", tc.name, name, err)
		return tc
	}
	if contents != Contents(Text("")) {
		tc.t.Errorf("%s: cell %s = %q, want blank", tc.name, name, contents.String())
	}
	for cell := range tc.spreadsheet.NamesOfAllNonemptyCells() {
		if cell == name {
			tc.t.Errorf("%s: blank cell %s is listed as non-empty", tc.name, name)
		}
	}
	return tc
}

func (tc *SpreadsheetTestCase) AssertOrder(expected ...string) *SpreadsheetTestCase {
	tc.t.Helper()
	if tc.err != nil {
		return tc
	}
	if !slices.Equal(tc.order, expected) {
		tc.t.Errorf("%s: recalculation order = %v, want %v", tc.name, tc.order, expected)
	}
	return tc
}

func (tc *SpreadsheetTestCase) AssertCells(expected ...string) *SpreadsheetTestCase {
	tc.t.Helper()
	names := slices.Collect(tc.spreadsheet.NamesOfAllNonemptyCells())
	if len(expected) == 0 {
		expected = []string{}
	}
	if names == nil {
		names = []string{}
	}
	if !slices.Equal(names, expected) {
		tc.t.Errorf("%s: non-empty cells = %v, want %v", tc.name, names, expected)
	}
	return tc
}

func (tc *SpreadsheetTestCase) AssertChanged(expected bool) *SpreadsheetTestCase {
	tc.t.Helper()
	if tc.spreadsheet.Changed() != expected {
		tc.t.Errorf("%s: Changed() = %v, want %v", tc.name, tc.spreadsheet.Changed(), expected)
	}
	return tc
}

func (tc *SpreadsheetTestCase) ExpectAppError(expectedCode AppErrorCode) *SpreadsheetTestCase {
	tc.t.Helper()
	if tc.err == nil {
		tc.t.Errorf("%s: expected error with code %v, but got no error", tc.name, expectedCode)
		return tc
	}
	var appErr *AppError
	if errors.As(tc.err, &appErr) {
		if appErr.Code != expectedCode {
			tc.t.Errorf("%s: got error code %v, want %v", tc.name, appErr.Code, expectedCode)
		}
	} else {
		tc.t.Errorf("%s: got error %v, want AppError with code %v", tc.name, tc.err, expectedCode)
	}
	tc.err = nil
	return tc
}

func (tc *SpreadsheetTestCase) ExpectFormatError() *SpreadsheetTestCase {
	tc.t.Helper()
	var formatErr *formula.FormatError
	if !errors.As(tc.err, &formatErr) {
		tc.t.Errorf("%s: got error %v, want a formula format error", tc.name, tc.err)
	}
	tc.err = nil
	return tc
}

func (tc *SpreadsheetTestCase) End() {
	tc.t.Helper()
	if tc.err != nil {
		tc.t.Errorf("%s: unchecked error: %v", tc.name, tc.err)
	}
}

func TestContentsClassification(t *testing.T) {
	NewSpreadsheetTestCase(t, "numbers").
		Set("A1", "5").
		Set("A2", " 2.50 ").
		Set("A3", "-3e2").
		Set("A4", "3.4e20").
		AssertNoError().
		AssertCellEq("A1", Number(5)).
		AssertCellEq("A2", Number(2.5)).
		AssertCellEq("A3", Number(-300)).
		AssertCellContents("A2", "2.5").
		AssertCellContents("A4", "3.4E+20").
		End()

	NewSpreadsheetTestCase(t, "text").
		Set("A1", "hello").
		Set("A2", "Inf").
		Set("A3", "NaN").
		Set("A4", "0x10").
		Set("A5", "1,000").
		AssertNoError().
		AssertCellEq("A1", Text("hello")).
		AssertCellEq("A2", Text("Inf")).
		AssertCellEq("A3", Text("NaN")).
		AssertCellEq("A4", Text("0x10")).
		AssertCellEq("A5", Text("1,000")).
		End()

	NewSpreadsheetTestCase(t, "formulas are stored in canonical form").
		Set("A1", "= B1 + 2.000 * ( B2 / 05 ) +").
		ExpectFormatError().
		Set("A1", "= B1 + 2.000 * ( B2 / 05 )").
		AssertNoError().
		AssertCellContents("A1", "=B1+2*(B2/5)").
		End()

	sheet := New()
	_, err := sheet.SetContentsOfCell("C3", "=1+2")
	assert.NoError(t, err)
	contents, err := sheet.GetCellContents("C3")
	assert.NoError(t, err)
	f, ok := contents.(FormulaContents)
	assert.True(t, ok, "contents are %T", contents)
	assert.True(t, f.Formula.Equal(formula.MustNew("1 + 2")))
}

func TestFormulaEvaluation(t *testing.T) {
	NewSpreadsheetTestCase(t, "references").
		Set("A1", "5").
		Set("B1", "=A1*2").
		Set("C1", "=B1+A1").
		AssertNoError().
		AssertCellEq("B1", Number(10)).
		AssertCellEq("C1", Number(15)).
		Set("A1", "1").
		AssertOrder("A1", "B1", "C1").
		AssertCellEq("B1", Number(2)).
		AssertCellEq("C1", Number(3)).
		End()

	NewSpreadsheetTestCase(t, "formula set before its dependee").
		Set("B1", "=A1+1").
		AssertCellErr("B1", "cell A1 is blank").
		Set("A1", "41").
		AssertOrder("A1", "B1").
		AssertCellEq("B1", Number(42)).
		End()

	NewSpreadsheetTestCase(t, "constant formula").
		Set("A1", "=(1 + 2) * 3").
		AssertOrder("A1").
		AssertCellEq("A1", Number(9)).
		End()
}

func TestRecalculationOrder(t *testing.T) {
	NewSpreadsheetTestCase(t, "chain").
		Set("A1", "5").
		Set("B2", "=2*A1").
		Set("D4", "=2*B2").
		Set("A1", "6").
		AssertOrder("A1", "B2", "D4").
		AssertCellEq("B2", Number(12)).
		AssertCellEq("D4", Number(24)).
		End()

	tc := NewSpreadsheetTestCase(t, "diamond").
		Set("A1", "1").
		Set("B1", "=A1+1").
		Set("C1", "=A1*10").
		Set("D1", "=B1+C1").
		Set("A1", "2").
		AssertNoError().
		AssertCellEq("D1", Number(23))
	assert.Equal(t, 4, len(tc.order))
	assert.Equal(t, "A1", tc.order[0])
	assert.Equal(t, "D1", tc.order[3])
	tc.End()

	NewSpreadsheetTestCase(t, "unrelated cells are not recalculated").
		Set("A1", "1").
		Set("B1", "=A1").
		Set("C1", "7").
		Set("D1", "=C1").
		Set("C1", "8").
		AssertOrder("C1", "D1").
		End()
}

func TestCircularDependencies(t *testing.T) {
	NewSpreadsheetTestCase(t, "self reference on empty sheet").
		Set("A1", "=A1").
		ExpectAppError(FailedPrecondition).
		AssertCellEmpty("A1").
		AssertCells().
		AssertChanged(false).
		End()

	NewSpreadsheetTestCase(t, "two cells").
		Set("A1", "=B2+5").
		Set("B2", "=A1+1").
		ExpectAppError(FailedPrecondition).
		AssertCellEmpty("B2").
		AssertCells("A1").
		Set("B2", "3").
		AssertCellEq("A1", Number(8)).
		End()

	NewSpreadsheetTestCase(t, "rollback keeps old contents and dependees").
		Set("C1", "=D1*2").
		Set("A1", "=B1").
		Set("B1", "=C1").
		Set("C1", "=A1").
		ExpectAppError(FailedPrecondition).
		AssertCellContents("C1", "=D1*2").
		Set("D1", "2").
		AssertOrder("D1", "C1", "B1", "A1").
		AssertCellEq("A1", Number(4)).
		End()

	sheet := New()
	_, err := sheet.SetContentsOfCell("A1", "1")
	assert.NoError(t, err)
	_, err = sheet.SetContentsOfCell("A1", "=A1 + 1")
	assert.IsError(t, err, ErrCircularDependency)
	assert.True(t, errors.Is(err, ErrCircularDependency))
	assert.False(t, errors.Is(err, ErrInvalidName))
	assert.Contains(t, err.Error(), "A1")
	contents, err := sheet.GetCellContents("A1")
	assert.NoError(t, err)
	assert.Equal[Contents](t, Number(1), contents)
	value, err := sheet.GetCellValue("A1")
	assert.NoError(t, err)
	assert.Equal[Value](t, Number(1), value)
}

func TestCycleRestoresChangedFlag(t *testing.T) {
	sheet := New()
	_, err := sheet.SetContentsOfCell("A1", "=B1")
	assert.NoError(t, err)
	assert.NoError(t, sheet.Save(&strings.Builder{}))
	assert.False(t, sheet.Changed())

	_, err = sheet.SetContentsOfCell("B1", "=A1")
	assert.Error(t, err)
	assert.False(t, sheet.Changed())

	_, err = sheet.SetContentsOfCell("B1", "2")
	assert.NoError(t, err)
	assert.True(t, sheet.Changed())
}

func TestBlankCells(t *testing.T) {
	NewSpreadsheetTestCase(t, "setting empty text removes the cell").
		Set("A1", "5").
		Set("B1", "x").
		AssertCells("A1", "B1").
		Set("A1", "").
		AssertCellEmpty("A1").
		AssertCells("B1").
		Set("B1", "").
		AssertCells().
		End()

	NewSpreadsheetTestCase(t, "dependents of a removed cell become errors").
		Set("A1", "5").
		Set("B1", "=A1+1").
		Set("A1", "").
		AssertOrder("A1", "B1").
		AssertCellErr("B1", "cell A1 has invalid contents").
		AssertCells("B1").
		End()

	NewSpreadsheetTestCase(t, "blank cell reads as empty text").
		AssertCellEq("Z99", Text("")).
		AssertCellContents("Z99", "").
		End()

	assert.Equal(t, 0, New().Len())
}

func TestEvaluationErrors(t *testing.T) {
	NewSpreadsheetTestCase(t, "errors are values").
		Set("A1", "=1/0").
		Set("B1", "=A1+1").
		Set("C1", "7").
		Set("D1", "text").
		Set("E1", "=D1*2").
		AssertNoError().
		AssertCellErr("A1", formula.DivideByZeroReason).
		AssertCellErr("B1", "cell A1 has invalid contents").
		AssertCellEq("C1", Number(7)).
		AssertCellErr("E1", "cell D1 has invalid contents").
		Set("A1", "=4/2").
		AssertCellEq("B1", Number(3)).
		End()

	NewSpreadsheetTestCase(t, "variables that are not cell names").
		Set("A1", "=_x + 1").
		AssertNoError().
		AssertCellErr("A1", "_x is not a cell name").
		End()
}

func TestEvaluate(t *testing.T) {
	sheet := New(WithNormalizer(strings.ToUpper))
	_, err := sheet.SetContentsOfCell("A1", "4")
	assert.NoError(t, err)

	value, err := sheet.Evaluate("=a1 * 2 + 1")
	assert.NoError(t, err)
	assert.Equal[Value](t, Number(9), value)

	value, err = sheet.Evaluate("B1 + 1")
	assert.NoError(t, err)
	assert.Equal[Value](t, ErrorValue{Reason: "cell B1 is blank"}, value)

	_, err = sheet.Evaluate("A1 +")
	var formatErr *formula.FormatError
	assert.True(t, errors.As(err, &formatErr))

	// nothing is stored
	assert.Equal(t, 1, sheet.Len())
	assert.Equal(t, 0, sheet.storage.formulas.Len())
}

func TestInvalidNames(t *testing.T) {
	for _, name := range []string{"", "A", "1", "1A", "A1B", "a_1", "_A1", "A-1", "A1 "} {
		t.Run(name, func(t *testing.T) {
			sheet := New()
			_, err := sheet.SetContentsOfCell(name, "1")
			assert.True(t, errors.Is(err, ErrInvalidName), "set %q: %v", name, err)
			_, err = sheet.GetCellValue(name)
			assert.True(t, errors.Is(err, ErrInvalidName), "get value %q: %v", name, err)
			_, err = sheet.GetCellContents(name)
			assert.True(t, errors.Is(err, ErrInvalidName), "get contents %q: %v", name, err)
			assert.False(t, sheet.Changed())
		})
	}

	NewSpreadsheetTestCase(t, "validator").
		Set("Z9", "1").
		AssertNoError().
		End()

	onlyA := WithValidator(func(name string) bool { return strings.HasPrefix(name, "A") })
	NewSpreadsheetTestCase(t, "validator rejects", onlyA).
		Set("B1", "1").
		ExpectAppError(InvalidArgument).
		Set("A1", "=B1 + 1").
		ExpectFormatError().
		Set("A1", "=A2 + 1").
		AssertNoError().
		AssertCells("A1").
		AssertChanged(true).
		End()
}

func TestNormalizer(t *testing.T) {
	NewSpreadsheetTestCase(t, "upper case", WithNormalizer(strings.ToUpper)).
		Set("a1", "2").
		Set("b1", "=a1 * 3").
		AssertNoError().
		AssertCells("A1", "B1").
		AssertCellEq("B1", Number(6)).
		AssertCellEq("b1", Number(6)).
		AssertCellContents("B1", "=A1*3").
		End()

	NewSpreadsheetTestCase(t, "normalizing into an invalid name", WithNormalizer(func(name string) string { return name + "!" })).
		Set("A1", "1").
		ExpectAppError(InvalidArgument).
		End()
}

func TestFormatErrorLeavesSheetUntouched(t *testing.T) {
	NewSpreadsheetTestCase(t, "bad formula").
		Set("A1", "=1+").
		ExpectFormatError().
		Set("A1", "=").
		ExpectFormatError().
		AssertCells().
		AssertChanged(false).
		Set("A1", "4").
		Set("A1", "=(1").
		ExpectFormatError().
		AssertCellEq("A1", Number(4)).
		End()
}

func TestNamesOfAllNonemptyCells(t *testing.T) {
	NewSpreadsheetTestCase(t, "creation order").
		Set("C1", "1").
		Set("A1", "2").
		Set("B1", "3").
		AssertCells("C1", "A1", "B1").
		Set("A1", "=C1").
		AssertCells("C1", "A1", "B1").
		Set("A1", "").
		AssertCells("C1", "B1").
		Set("A1", "x").
		AssertCells("C1", "B1", "A1").
		End()

	// the sequence is a copy, the sheet can change while iterating
	sheet := New()
	for _, name := range []string{"A1", "A2", "A3"} {
		_, err := sheet.SetContentsOfCell(name, "1")
		assert.NoError(t, err)
	}
	for name := range sheet.NamesOfAllNonemptyCells() {
		_, err := sheet.SetContentsOfCell(name, "")
		assert.NoError(t, err)
	}
	assert.Equal(t, 0, sheet.Len())
}

func TestAppErrors(t *testing.T) {
	err := NewReadWriteError("could not read spreadsheet", ErrInvalidName)
	assert.True(t, errors.Is(err, ErrReadWrite))
	assert.True(t, errors.Is(err, ErrInvalidName))
	assert.Equal(t, "could not read spreadsheet: invalid cell name", err.Error())

	assert.Equal(t, "failed precondition", FailedPrecondition.String())
	assert.Equal(t, "unknown", Unknown.String())
}
