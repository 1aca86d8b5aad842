package formula

import (
	"errors"
	"fmt"
	"strconv"
)

// DivideByZeroReason is the Error reason produced by dividing by zero
const DivideByZeroReason = "Error: Divide by 0."

var (
	errDivideByZero = errors.New(DivideByZeroReason)
	errMalformed    = errors.New("Error: Malformed expression.")
)

// Lookup resolves a variable to its value. a non-nil error means the
// variable has no numeric value; its message becomes the Error reason.
type Lookup func(name string) (float64, error)

// Error is the value of a formula that could not be evaluated. it is data,
// not a Go error: evaluation always completes and hands it back in Result.
type Error struct {
	Reason string
}

func (e Error) String() string {
	return e.Reason
}

// Result is either a number or, when Err is set, an evaluation error
type Result struct {
	Value float64
	Err   *Error
}

// IsError reports whether evaluation failed
func (r Result) IsError() bool {
	return r.Err != nil
}

// Evaluate computes the formula, resolving variables through lookup. it
// never panics: divide by zero, failed lookups and anything unexpected come
// back as a Result with Err set.
func (f *Formula) Evaluate(lookup Lookup) Result {
	value, err := f.evaluate(lookup)
	if err != nil {
		return Result{Err: &Error{Reason: err.Error()}}
	}
	return Result{Value: value}
}

// evaluate runs the two-stack algorithm. a '*' or '/' is applied as soon as
// its right operand arrives; '+' and '-' wait until the next '+', '-', ')'
// or the end of input.
func (f *Formula) evaluate(lookup Lookup) (float64, error) {
	var st stacks

	for _, tok := range f.tokens {
		switch tok.Type {
		case TokenNumber, TokenVariable:
			operand, err := resolve(tok, lookup)
			if err != nil {
				return 0, err
			}
			if st.opOnTop("*", "/") {
				left, err := st.popValue()
				if err != nil {
					return 0, err
				}
				result, err := apply(st.popOp(), left, operand)
				if err != nil {
					return 0, err
				}
				operand = result
			}
			st.values = append(st.values, operand)

		case TokenOperator:
			if (tok.Value == "+" || tok.Value == "-") && st.opOnTop("+", "-") {
				if err := st.reduce(); err != nil {
					return 0, err
				}
			}
			st.ops = append(st.ops, tok.Value)

		case TokenLeftParen:
			st.ops = append(st.ops, tok.Value)

		case TokenRightParen:
			if st.opOnTop("+", "-") {
				if err := st.reduce(); err != nil {
					return 0, err
				}
			}
			if !st.opOnTop("(", "(") {
				return 0, errMalformed
			}
			st.popOp()
			if st.opOnTop("*", "/") {
				if err := st.reduce(); err != nil {
					return 0, err
				}
			}

		default:
			return 0, errMalformed
		}
	}

	if len(st.ops) > 0 {
		if err := st.reduce(); err != nil {
			return 0, err
		}
	}
	if len(st.values) != 1 || len(st.ops) != 0 {
		return 0, errMalformed
	}
	return st.values[0], nil
}

// resolve returns the numeric value of an operand token
func resolve(tok Token, lookup Lookup) (float64, error) {
	if tok.Type == TokenNumber {
		// stored canonically, so this always parses
		return strconv.ParseFloat(tok.Value, 64)
	}
	if lookup == nil {
		return 0, fmt.Errorf("no value for variable %s", tok.Value)
	}
	return lookup(tok.Value)
}

func apply(op string, left, right float64) (float64, error) {
	switch op {
	case "+":
		return left + right, nil
	case "-":
		return left - right, nil
	case "*":
		return left * right, nil
	case "/":
		if right == 0 {
			return 0, errDivideByZero
		}
		return left / right, nil
	}
	return 0, errMalformed
}

// stacks holds the value and operator stacks of one evaluation
type stacks struct {
	values []float64
	ops    []string
}

func (s *stacks) opOnTop(a, b string) bool {
	if len(s.ops) == 0 {
		return false
	}
	top := s.ops[len(s.ops)-1]
	return top == a || top == b
}

func (s *stacks) popOp() string {
	top := s.ops[len(s.ops)-1]
	s.ops = s.ops[:len(s.ops)-1]
	return top
}

func (s *stacks) popValue() (float64, error) {
	if len(s.values) == 0 {
		return 0, errMalformed
	}
	top := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	return top, nil
}

// reduce pops one operator and two values and pushes the result
func (s *stacks) reduce() error {
	if len(s.ops) == 0 {
		return errMalformed
	}
	right, err := s.popValue()
	if err != nil {
		return err
	}
	left, err := s.popValue()
	if err != nil {
		return err
	}
	result, err := apply(s.popOp(), left, right)
	if err != nil {
		return err
	}
	s.values = append(s.values, result)
	return nil
}
