package asm

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	NEWLINE // statement terminator

	// Words
	MNEMONIC   // instruction name, e.g. MOV
	IDENTIFIER // label or register name
	DIRECTIVE  // .ORG, .WORD, ...

	// Literals
	INTEGER // decimal, 0x hex, 0b binary, 0o octal or 'c'
	STRING  // "..." with escapes already decoded

	// Punctuation
	COMMA    // ,
	COLON    // :
	LBRACKET // [
	RBRACKET // ]
	MINUS    // -
)

var tokenNames = [...]string{
	EOF:        "EOF",
	NEWLINE:    "NEWLINE",
	MNEMONIC:   "MNEMONIC",
	IDENTIFIER: "IDENTIFIER",
	DIRECTIVE:  "DIRECTIVE",
	INTEGER:    "INTEGER",
	STRING:     "STRING",
	COMMA:      "COMMA",
	COLON:      "COLON",
	LBRACKET:   "LBRACKET",
	RBRACKET:   "RBRACKET",
	MINUS:      "MINUS",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Pos is a 1-based source position. Columns count runes.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Token is a single lexical unit produced by the lexer.
type Token struct {
	Type   TokenType
	Lexeme string // source text; the decoded value for STRING
	Pos    Pos
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  line %s", t.Type, t.Lexeme, t.Pos)
}

// describe names a token for error messages.
func (t Token) describe() string {
	switch t.Type {
	case EOF:
		return "end of input"
	case NEWLINE:
		return "end of line"
	case STRING:
		return fmt.Sprintf("string %q", t.Lexeme)
	}
	return fmt.Sprintf("%q", t.Lexeme)
}
