// Package formula parses, validates and evaluates infix arithmetic over
// numbers and variables, with + - * / and parentheses.
package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatError is returned when a formula is not syntactically valid
type FormatError struct {
	Message string
	Token   string // offending token, empty when the whole input is at fault
}

func (e *FormatError) Error() string {
	return e.Message
}

func newFormatError(token Token, format string, args ...any) *FormatError {
	return &FormatError{
		Message: fmt.Sprintf(format, args...),
		Token:   token.Value,
	}
}

// Key is the canonical form of a formula, usable as a map key. two formulas
// with the same structure (ignoring whitespace, numeric spelling and
// variable normalization) have the same key.
type Key string

// Formula is an immutable, validated expression. it keeps canonical tokens:
// numbers in round-trip form and variables already normalized.
type Formula struct {
	tokens    []Token
	variables []string
	canonical string
}

type options struct {
	normalize func(string) string
	isValid   func(string) bool
}

// Option configures how New treats variables
type Option func(*options)

// WithNormalizer sets the function every variable is passed through before
// it is validated and stored
func WithNormalizer(normalize func(string) string) Option {
	return func(o *options) {
		if normalize != nil {
			o.normalize = normalize
		}
	}
}

// WithValidator sets an extra check that normalized variables must pass
func WithValidator(isValid func(string) bool) Option {
	return func(o *options) {
		if isValid != nil {
			o.isValid = isValid
		}
	}
}

// New parses text into a Formula. without options variables are kept as
// written and every syntactically valid variable is accepted.
func New(text string, opts ...Option) (*Formula, error) {
	o := options{
		normalize: func(s string) string { return s },
		isValid:   func(string) bool { return true },
	}
	for _, opt := range opts {
		opt(&o)
	}

	raw := NewLexer(text).Tokenize()
	if len(raw) == 0 {
		return nil, &FormatError{Message: "formula is blank, enter an expression"}
	}

	f := &Formula{
		tokens:    make([]Token, 0, len(raw)),
		variables: []string{},
	}
	seen := make(map[string]struct{})
	var builder strings.Builder

	for _, tok := range raw {
		switch tok.Type {
		case TokenVariable:
			name := o.normalize(tok.Value)
			if !IsVariable(name) || !o.isValid(name) {
				return nil, newFormatError(tok, "%q was normalized to %q, which is not a valid variable", tok.Value, name)
			}
			tok.Value = name
			if _, exists := seen[name]; !exists {
				seen[name] = struct{}{}
				f.variables = append(f.variables, name)
			}
		case TokenNumber:
			value, err := strconv.ParseFloat(tok.Value, 64)
			if err != nil || math.IsInf(value, 0) {
				return nil, newFormatError(tok, "%q is not a representable number", tok.Value)
			}
			tok.Value = FormatNumber(value)
		}
		f.tokens = append(f.tokens, tok)
		builder.WriteString(tok.Value)
	}

	// syntax is checked on the tokens as written, positions are what matter
	if err := checkSyntax(raw); err != nil {
		return nil, err
	}

	f.canonical = builder.String()
	return f, nil
}

// MustNew is like New but panics on a format error. meant for tests and
// package-level formulas.
func MustNew(text string, opts ...Option) *Formula {
	f, err := New(text, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// Variables returns the distinct normalized variables in order of first
// appearance
func (f *Formula) Variables() []string {
	variables := make([]string, len(f.variables))
	copy(variables, f.variables)
	return variables
}

// String returns the canonical form with no whitespace, e.g. "1+A1*(B2/3)"
func (f *Formula) String() string {
	return f.canonical
}

// Key returns the canonical form as a map key
func (f *Formula) Key() Key {
	return Key(f.canonical)
}

// Equal reports whether two formulas have identical canonical tokens
func (f *Formula) Equal(other *Formula) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.canonical == other.canonical
}

// checkSyntax validates token order and parenthesis balance
func checkSyntax(tokens []Token) error {
	opened, closed := 0, 0
	last := len(tokens) - 1

	for i, tok := range tokens {
		if tok.Type == TokenInvalid {
			return newFormatError(tok, "%q is not a valid token, try removing it", tok.Value)
		}

		if i == 0 && !isOperand(tok) && tok.Type != TokenLeftParen {
			return newFormatError(tok, "expressions must begin with a number, a variable or '(', %q is not allowed here", tok.Value)
		}

		if i < last {
			next := tokens[i+1]
			switch tok.Type {
			case TokenLeftParen, TokenOperator:
				if !isOperand(next) && next.Type != TokenLeftParen {
					return newFormatError(next, "'(' and operators must be followed by a number, a variable or '(', %q is not allowed here", next.Value)
				}
			default:
				if next.Type != TokenOperator && next.Type != TokenRightParen {
					return newFormatError(next, "numbers, variables and ')' must be followed by an operator or ')', %q is not allowed here", next.Value)
				}
			}
		}

		switch tok.Type {
		case TokenLeftParen:
			opened++
		case TokenRightParen:
			closed++
		}
		if closed > opened {
			return newFormatError(tok, "unbalanced parentheses: ')' at position %d has no matching '('", tok.Pos)
		}
	}

	if end := tokens[last]; !isOperand(end) && end.Type != TokenRightParen {
		return newFormatError(end, "expressions must end with a number, a variable or ')', %q is not allowed here", end.Value)
	}

	if opened != closed {
		return &FormatError{Message: "unbalanced parentheses: missing closing parenthesis"}
	}

	return nil
}

func isOperand(tok Token) bool {
	return tok.Type == TokenNumber || tok.Type == TokenVariable
}
