package asm

import (
	"errors"
	"iter"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"vmasm/pkg/isa"
)

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
	col  int // current 1-based column
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), line: 1, col: 1}
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peek2() rune {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

func (l *Lexer) here() Pos {
	return Pos{Line: l.line, Col: l.col}
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

// skipBlank discards spaces and comments but never the newline that ends
// a statement.
func (l *Lexer) skipBlank() {
	for !l.atEnd() {
		r := l.peek()
		switch {
		case r == '\n':
			return
		case unicode.IsSpace(r):
			l.advance()
		case r == ';', r == '/' && l.peek2() == '/':
			for !l.atEnd() && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func isWordStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isWordPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// scanWord collects an identifier, register or mnemonic.
func (l *Lexer) scanWord() Token {
	pos := l.here()
	start := l.pos
	for !l.atEnd() && isWordPart(l.peek()) {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	tt := IDENTIFIER
	if isa.IsMnemonic(lexeme) {
		tt = MNEMONIC
	}
	return Token{Type: tt, Lexeme: lexeme, Pos: pos}
}

// scanDirective collects ".name". The dot must still be at l.peek().
func (l *Lexer) scanDirective() (Token, error) {
	pos := l.here()
	start := l.pos
	l.advance() // .
	if !isWordStart(l.peek()) {
		return Token{}, errorf(LexError, pos, "invalid character '.'")
	}
	for !l.atEnd() && isWordPart(l.peek()) {
		l.advance()
	}
	return Token{Type: DIRECTIVE, Lexeme: string(l.src[start:l.pos]), Pos: pos}, nil
}

// parseInteger converts an integer lexeme with an optional 0x, 0b or 0o
// prefix. A leading zero alone does not mean octal. Single underscores
// may separate digits.
func parseInteger(lexeme string) (uint64, error) {
	digits, base := lexeme, 10
	if len(lexeme) > 2 && lexeme[0] == '0' {
		switch lexeme[1] {
		case 'x', 'X':
			digits, base = lexeme[2:], 16
		case 'b', 'B':
			digits, base = lexeme[2:], 2
		case 'o', 'O':
			digits, base = lexeme[2:], 8
		}
	}
	if strings.Contains(digits, "_") {
		if strings.HasPrefix(digits, "_") || strings.HasSuffix(digits, "_") || strings.Contains(digits, "__") {
			return 0, strconv.ErrSyntax
		}
		digits = strings.ReplaceAll(digits, "_", "")
	}
	return strconv.ParseUint(digits, base, 64)
}

// scanInt collects a numeric literal. Trailing letters are consumed so
// that "12ab" is reported as one malformed number.
func (l *Lexer) scanInt() (Token, error) {
	pos := l.here()
	start := l.pos
	for !l.atEnd() && isWordPart(l.peek()) {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	if _, err := parseInteger(lexeme); err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return Token{}, errorf(LexError, pos, "number %s overflows 64 bits", lexeme)
		}
		return Token{}, errorf(LexError, pos, "malformed number %q", lexeme)
	}
	return Token{Type: INTEGER, Lexeme: lexeme, Pos: pos}, nil
}

// scanEscape decodes the escape sequence after a backslash. The
// backslash must already have been consumed.
func (l *Lexer) scanEscape(buf []byte, pos Pos) ([]byte, error) {
	if l.atEnd() || l.peek() == '\n' {
		return nil, errorf(LexError, pos, "unterminated literal")
	}
	next := l.advance()
	switch next {
	case 'n':
		return append(buf, '\n'), nil
	case 't':
		return append(buf, '\t'), nil
	case 'r':
		return append(buf, '\r'), nil
	case '0':
		return append(buf, 0), nil
	case '\\', '"', '\'':
		return append(buf, byte(next)), nil
	case 'x':
		var hex [2]rune
		for i := range hex {
			if l.atEnd() || !strings.ContainsRune("0123456789abcdefABCDEF", l.peek()) {
				return nil, errorf(LexError, pos, "invalid \\x escape")
			}
			hex[i] = l.advance()
		}
		v, _ := strconv.ParseUint(string(hex[:]), 16, 8)
		return append(buf, byte(v)), nil
	}
	return nil, errorf(LexError, pos, "unknown escape sequence \\%c", next)
}

// scanString collects a string literal "...".
func (l *Lexer) scanString() (Token, error) {
	pos := l.here()
	l.advance() // opening "
	var buf []byte
	for {
		if l.atEnd() || l.peek() == '\n' {
			return Token{}, errorf(LexError, pos, "unterminated string literal")
		}
		r := l.advance()
		if r == '"' {
			break
		}
		if r == '\\' {
			var err error
			if buf, err = l.scanEscape(buf, pos); err != nil {
				return Token{}, err
			}
			continue
		}
		buf = utf8.AppendRune(buf, r)
	}
	return Token{Type: STRING, Lexeme: string(buf), Pos: pos}, nil
}

// scanChar collects a character literal 'c' and emits it as an INTEGER.
func (l *Lexer) scanChar() (Token, error) {
	pos := l.here()
	l.advance() // opening '
	var val int
	switch r := l.peek(); {
	case l.atEnd(), r == '\n':
		return Token{}, errorf(LexError, pos, "unterminated character literal")
	case r == '\'':
		return Token{}, errorf(LexError, pos, "empty character literal")
	case r == '\\':
		l.advance()
		b, err := l.scanEscape(nil, pos)
		if err != nil {
			return Token{}, err
		}
		val = int(b[0])
	default:
		val = int(l.advance())
	}
	if l.peek() != '\'' {
		return Token{}, errorf(LexError, pos, "unterminated character literal")
	}
	l.advance() // closing '
	return Token{Type: INTEGER, Lexeme: strconv.Itoa(val), Pos: pos}, nil
}

// nextToken skips blanks and comments and returns the next Token.
func (l *Lexer) nextToken() (Token, error) {
	l.skipBlank()
	pos := l.here()
	if l.atEnd() {
		return Token{Type: EOF, Pos: pos}, nil
	}

	ch := l.peek()
	switch {
	case isWordStart(ch):
		return l.scanWord(), nil
	case unicode.IsDigit(ch):
		return l.scanInt()
	case ch == '.':
		return l.scanDirective()
	case ch == '"':
		return l.scanString()
	case ch == '\'':
		return l.scanChar()
	}

	l.advance()
	switch ch {
	case '\n':
		return Token{NEWLINE, "\n", pos}, nil
	case ',':
		return Token{COMMA, ",", pos}, nil
	case ':':
		return Token{COLON, ":", pos}, nil
	case '[':
		return Token{LBRACKET, "[", pos}, nil
	case ']':
		return Token{RBRACKET, "]", pos}, nil
	case '-':
		return Token{MINUS, "-", pos}, nil
	}
	return Token{}, errorf(LexError, pos, "invalid character %q", ch)
}

// Tokens returns the token sequence of src. Scanning is lazy and every
// range over the sequence starts again from the beginning of src. The
// sequence ends after the EOF token or after the first error.
func Tokens(src string) iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		l := newLexer(src)
		for {
			tok, err := l.nextToken()
			if err != nil {
				yield(Token{Type: EOF, Pos: l.here()}, err)
				return
			}
			if !yield(tok, nil) || tok.Type == EOF {
				return
			}
		}
	}
}

// Lex tokenises src and returns all tokens including the final EOF token.
// It returns a non-nil error on the first invalid character, literal or
// number.
func Lex(src string) ([]Token, error) {
	var tokens []Token
	for tok, err := range Tokens(src) {
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}
