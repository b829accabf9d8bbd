package scan

import (
	"strconv"
	"unicode/utf8"

	"github.com/chidiwilliams/treelox/ast"
	"github.com/chidiwilliams/treelox/diagnostics"
)

// Scanner converts a source text
// into a slice of ast.Token-s
type Scanner struct {
	start   int
	current int
	line    int
	source  string
	tokens  []ast.Token
	report  *diagnostics.Collector
}

// New returns a new Scanner that reports errors to report
func New(source string, report *diagnostics.Collector) *Scanner {
	return &Scanner{source: source, line: 1, report: report}
}

// ScanTokens returns a slice of tokens representing the source text.
// It never fails: bad input is reported and skipped, and the
// slice always ends with an EOF token.
func (s *Scanner) ScanTokens() []ast.Token {
	for !s.isAtEnd() {
		// we're at the beginning of the next lexeme
		s.start = s.current
		s.scanToken()
	}

	s.tokens = append(s.tokens, ast.Token{Type: ast.TokenEOF, Line: s.line})
	return s.tokens
}

func (s *Scanner) scanToken() {
	char := s.advance()
	switch char {
	case '(':
		s.addToken(ast.TokenLeftParen)
	case ')':
		s.addToken(ast.TokenRightParen)
	case '{':
		s.addToken(ast.TokenLeftBrace)
	case '}':
		s.addToken(ast.TokenRightBrace)
	case ',':
		s.addToken(ast.TokenComma)
	case '.':
		s.addToken(ast.TokenDot)
	case '-':
		s.addToken(ast.TokenMinus)
	case '+':
		s.addToken(ast.TokenPlus)
	case ';':
		s.addToken(ast.TokenSemicolon)
	case '*':
		s.addToken(ast.TokenStar)

	// with look-ahead
	case '!':
		s.addToken(s.either('=', ast.TokenBangEqual, ast.TokenBang))
	case '=':
		s.addToken(s.either('=', ast.TokenEqualEqual, ast.TokenEqual))
	case '<':
		s.addToken(s.either('=', ast.TokenLessEqual, ast.TokenLess))
	case '>':
		s.addToken(s.either('=', ast.TokenGreaterEqual, ast.TokenGreater))
	case '/':
		if s.match('/') {
			for s.peek() != '\n' && !s.isAtEnd() {
				s.advance()
			}
		} else {
			s.addToken(ast.TokenSlash)
		}

	// whitespace
	case ' ', '\r', '\t':
	case '\n':
		s.line++

	case '"':
		s.string()

	default:
		switch {
		case isDigit(char):
			s.number()
		case isAlpha(char):
			s.identifier()
		default:
			// skip the whole character, not just its first byte
			if char >= utf8.RuneSelf {
				_, size := utf8.DecodeRuneInString(s.source[s.start:])
				s.current = s.start + size
			}
			s.report.Error(diagnostics.KindScan, s.line, "Unexpected character.")
		}
	}
}

func (s *Scanner) isAtEnd() bool {
	return s.current >= len(s.source)
}

func (s *Scanner) advance() byte {
	curr := s.source[s.current]
	s.current++
	return curr
}

func (s *Scanner) addToken(tokenType ast.TokenType) {
	s.addTokenWithLiteral(tokenType, nil)
}

func (s *Scanner) addTokenWithLiteral(tokenType ast.TokenType, literal interface{}) {
	text := s.source[s.start:s.current]
	token := ast.Token{Type: tokenType, Lexeme: text, Literal: literal, Line: s.line}
	s.tokens = append(s.tokens, token)
}

// either returns matched if the next character is expected
// (consuming it) and otherwise returns single.
func (s *Scanner) either(expected byte, matched, single ast.TokenType) ast.TokenType {
	if s.match(expected) {
		return matched
	}
	return single
}

func (s *Scanner) match(expected byte) bool {
	if s.isAtEnd() {
		return false
	}

	if s.source[s.current] != expected {
		return false
	}

	s.current++
	return true
}

func (s *Scanner) string() {
	for s.peek() != '"' && !s.isAtEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.advance()
	}

	if s.isAtEnd() {
		s.report.Error(diagnostics.KindScan, s.line, "Unterminated string.")
		return
	}

	s.advance() // the closing "

	value := s.source[s.start+1 : s.current-1]
	s.addTokenWithLiteral(ast.TokenString, value)
}

func (s *Scanner) number() {
	for isDigit(s.peek()) {
		s.advance()
	}

	// look for a fractional part
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}

	val, _ := strconv.ParseFloat(s.source[s.start:s.current], 64)
	s.addTokenWithLiteral(ast.TokenNumber, val)
}

func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return 0
	}
	return s.source[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.source) {
		return 0
	}
	return s.source[s.current+1]
}

var keywords = map[string]ast.TokenType{
	"and":    ast.TokenAnd,
	"break":  ast.TokenBreak,
	"class":  ast.TokenClass,
	"else":   ast.TokenElse,
	"false":  ast.TokenFalse,
	"for":    ast.TokenFor,
	"fun":    ast.TokenFun,
	"if":     ast.TokenIf,
	"nil":    ast.TokenNil,
	"or":     ast.TokenOr,
	"print":  ast.TokenPrint,
	"return": ast.TokenReturn,
	"super":  ast.TokenSuper,
	"this":   ast.TokenThis,
	"true":   ast.TokenTrue,
	"var":    ast.TokenVar,
	"while":  ast.TokenWhile,
}

func (s *Scanner) identifier() {
	for isAlphaNumeric(s.peek()) {
		s.advance()
	}

	text := s.source[s.start:s.current]
	tokenType, found := keywords[text]
	if !found {
		tokenType = ast.TokenIdentifier
	}
	s.addToken(tokenType)
}

func isDigit(char byte) bool {
	return char >= '0' && char <= '9'
}

func isAlpha(char byte) bool {
	return (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || char == '_'
}

func isAlphaNumeric(char byte) bool {
	return isAlpha(char) || isDigit(char)
}
