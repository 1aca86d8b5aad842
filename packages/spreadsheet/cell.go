package spreadsheet

import (
	"github.com/vogtb/sheetcalc/packages/formula"
)

// Contents is what a cell holds as entered. exactly three kinds exist:
// Number, Text and FormulaContents. String returns the form used in
// snapshots and accepted back by SetContentsOfCell.
type Contents interface {
	String() string
	isContents()
}

// Value is what a cell evaluates to: Number, Text or ErrorValue.
type Value interface {
	String() string
	isValue()
}

// Number is a numeric literal, both as contents and as value
type Number float64

func (n Number) String() string {
	return formula.FormatNumber(float64(n))
}

func (Number) isContents() {}
func (Number) isValue()    {}

// Text is plain text, both as contents and as value. the empty Text is the
// contents and value of every blank cell.
type Text string

func (t Text) String() string {
	return string(t)
}

func (Text) isContents() {}
func (Text) isValue()    {}

// FormulaContents is a formula entered with a leading '='
type FormulaContents struct {
	Formula *formula.Formula
}

// String returns "=" followed by the canonical formula
func (f FormulaContents) String() string {
	return "=" + f.Formula.String()
}

func (FormulaContents) isContents() {}

// ErrorValue is the value of a formula that could not be evaluated
type ErrorValue struct {
	Reason string
}

func (e ErrorValue) String() string {
	return e.Reason
}

func (ErrorValue) isValue() {}

// Cell represents a non-blank spreadsheet cell with its contents and its
// cached value
type Cell struct {
	contents Contents
	value    Value
	raw      string // contents as string, kept for snapshots
}

func newCell() *Cell {
	return &Cell{
		contents: Text(""),
		value:    Text(""),
	}
}

// Contents returns the cell's contents
func (c *Cell) Contents() Contents {
	return c.contents
}

// Value returns the value computed by the last recalculation
func (c *Cell) Value() Value {
	return c.value
}

// String returns the contents as string
func (c *Cell) String() string {
	return c.raw
}

// setContents replaces the contents. the cached value is left alone until
// the next recalculate.
func (c *Cell) setContents(contents Contents) {
	c.contents = contents
	c.raw = contents.String()
}

// recalculate refreshes the cached value. formulas are evaluated with
// lookup; numbers and text are their own value.
func (c *Cell) recalculate(lookup formula.Lookup) {
	switch contents := c.contents.(type) {
	case FormulaContents:
		result := contents.Formula.Evaluate(lookup)
		if result.IsError() {
			c.value = ErrorValue{Reason: result.Err.Reason}
		} else {
			c.value = Number(result.Value)
		}
	case Number:
		c.value = contents
	case Text:
		c.value = contents
	}
}

// isBlank reports whether the contents are the empty text
func (c *Cell) isBlank() bool {
	text, ok := c.contents.(Text)
	return ok && text == ""
}
