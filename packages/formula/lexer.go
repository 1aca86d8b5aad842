package formula

import "unicode"

// TokenType represents the kinds of tokens in an infix expression
type TokenType int

const (
	TokenLeftParen TokenType = iota
	TokenRightParen
	TokenOperator
	TokenVariable
	TokenNumber
	TokenInvalid // any run of characters no other token accepts
)

// character classification constants. slightly easier to read.
const (
	charLParen     = '('
	charRParen     = ')'
	charAsterisk   = '*'
	charPlus       = '+'
	charMinus      = '-'
	charPeriod     = '.'
	charSlash      = '/'
	charUnderscore = '_'
)

func (tt TokenType) String() string {
	switch tt {
	case TokenLeftParen:
		return "left paren"
	case TokenRightParen:
		return "right paren"
	case TokenOperator:
		return "operator"
	case TokenVariable:
		return "variable"
	case TokenNumber:
		return "number"
	default:
		return "invalid"
	}
}

// Token represents a lexical token with position information
type Token struct {
	Type  TokenType
	Value string
	Pos   int // rune position in input
}

// Lexer splits a formula into tokens. whitespace only separates tokens and
// never produces one.
type Lexer struct {
	runes  []rune
	pos    int
	tokens []Token
}

// NewLexer creates a new lexer for the given input
func NewLexer(input string) *Lexer {
	return &Lexer{
		runes:  []rune(input),
		tokens: []Token{},
	}
}

// Tokenize scans the whole input. it never fails; characters that cannot
// start a token are grouped into TokenInvalid tokens for the validator to
// reject.
func (l *Lexer) Tokenize() []Token {
	for {
		l.skipWhitespace()
		if l.pos >= len(l.runes) {
			return l.tokens
		}
		l.tokens = append(l.tokens, l.nextToken())
	}
}

// nextToken returns the token starting at the current position
func (l *Lexer) nextToken() Token {
	startPos := l.pos
	ch := l.current()

	switch {
	case ch == charLParen:
		l.pos++
		return Token{Type: TokenLeftParen, Value: "(", Pos: startPos}
	case ch == charRParen:
		l.pos++
		return Token{Type: TokenRightParen, Value: ")", Pos: startPos}
	case isOperator(ch):
		l.pos++
		return Token{Type: TokenOperator, Value: string(ch), Pos: startPos}
	case isVariableStart(ch):
		return l.scanVariable()
	case l.isNumberStart():
		return l.scanNumber()
	}

	// collect everything up to the next character that starts a real token
	for l.pos < len(l.runes) && !l.startsToken() {
		l.pos++
	}
	return Token{Type: TokenInvalid, Value: l.substring(startPos, l.pos), Pos: startPos}
}

// startsToken reports whether a token or a delimiter begins at the current
// position
func (l *Lexer) startsToken() bool {
	ch := l.current()
	return unicode.IsSpace(ch) ||
		ch == charLParen ||
		ch == charRParen ||
		isOperator(ch) ||
		isVariableStart(ch) ||
		l.isNumberStart()
}

// scanVariable scans a letter or underscore followed by letters, underscores
// and digits
func (l *Lexer) scanVariable() Token {
	startPos := l.pos
	l.pos++
	for l.pos < len(l.runes) && isVariablePart(l.current()) {
		l.pos++
	}
	return Token{Type: TokenVariable, Value: l.substring(startPos, l.pos), Pos: startPos}
}

// scanNumber scans digits with an optional fraction and an optional
// exponent. there is no leading sign; a '-' is always an operator.
func (l *Lexer) scanNumber() Token {
	startPos := l.pos

	for l.pos < len(l.runes) && isDigit(l.current()) {
		l.pos++
	}

	if l.pos < len(l.runes) && l.current() == charPeriod {
		l.pos++
		for l.pos < len(l.runes) && isDigit(l.current()) {
			l.pos++
		}
	}

	// exponent only counts when digits follow, otherwise the 'e' starts a
	// variable
	if l.pos < len(l.runes) && (l.current() == 'e' || l.current() == 'E') {
		offset := 1
		if next := l.peek(1); next == charPlus || next == charMinus {
			offset = 2
		}
		if isDigit(l.peek(offset)) {
			l.pos += offset
			for l.pos < len(l.runes) && isDigit(l.current()) {
				l.pos++
			}
		}
	}

	return Token{Type: TokenNumber, Value: l.substring(startPos, l.pos), Pos: startPos}
}

// isNumberStart reports whether a digit, or a period followed by a digit,
// is at the current position
func (l *Lexer) isNumberStart() bool {
	ch := l.current()
	return isDigit(ch) || (ch == charPeriod && isDigit(l.peek(1)))
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.runes) && unicode.IsSpace(l.current()) {
		l.pos++
	}
}

func (l *Lexer) current() rune {
	if l.pos >= len(l.runes) {
		return 0
	}
	return l.runes[l.pos]
}

func (l *Lexer) peek(offset int) rune {
	if l.pos+offset >= len(l.runes) {
		return 0
	}
	return l.runes[l.pos+offset]
}

func (l *Lexer) substring(start, end int) string {
	return string(l.runes[start:end])
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isVariableStart(ch rune) bool {
	return isLetter(ch) || ch == charUnderscore
}

func isVariablePart(ch rune) bool {
	return isVariableStart(ch) || isDigit(ch)
}

func isOperator(ch rune) bool {
	return ch == charPlus || ch == charMinus || ch == charAsterisk || ch == charSlash
}

// IsVariable reports whether s is a complete variable token
func IsVariable(s string) bool {
	if s == "" {
		return false
	}
	for i, ch := range s {
		if i == 0 && !isVariableStart(ch) {
			return false
		}
		if !isVariablePart(ch) {
			return false
		}
	}
	return true
}
