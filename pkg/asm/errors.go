package asm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a user-facing compilation failure.
type ErrorKind int

const (
	LexError ErrorKind = iota + 1
	ParseError
	DuplicateSymbol
	UndefinedSymbol
	EncodingRangeError
	DisallowedInstruction
)

var kindNames = [...]string{
	LexError:              "lex error",
	ParseError:            "parse error",
	DuplicateSymbol:       "duplicate symbol",
	UndefinedSymbol:       "undefined symbol",
	EncodingRangeError:    "value out of range",
	DisallowedInstruction: "disallowed instruction",
}

func (k ErrorKind) String() string {
	if int(k) > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind;
// *InternalError matches ErrInternal.
var (
	ErrLex                   = errors.New("lex error")
	ErrParse                 = errors.New("parse error")
	ErrDuplicateSymbol       = errors.New("duplicate symbol")
	ErrUndefinedSymbol       = errors.New("undefined symbol")
	ErrEncodingRange         = errors.New("value out of range")
	ErrDisallowedInstruction = errors.New("disallowed instruction")
	ErrInternal              = errors.New("internal consistency fault")
)

var sentinels = map[ErrorKind]error{
	LexError:              ErrLex,
	ParseError:            ErrParse,
	DuplicateSymbol:       ErrDuplicateSymbol,
	UndefinedSymbol:       ErrUndefinedSymbol,
	EncodingRangeError:    ErrEncodingRange,
	DisallowedInstruction: ErrDisallowedInstruction,
}

// Error is a compilation failure caused by the source program.
type Error struct {
	Kind ErrorKind
	Pos  Pos

	// Symbol is the offending label, mnemonic or token text, if any.
	Symbol string
	// Value is the offending number for EncodingRangeError.
	Value int64

	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %s: %s: %s", e.Pos, e.Kind, e.Msg)
}

func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// InternalError reports that the encoder and the resolver disagree about
// the layout of a statement. It indicates a bug in the assembler, never a
// problem with the source program.
type InternalError struct {
	Pos Pos
	Msg string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal consistency fault at line %s: %s", e.Pos, e.Msg)
}

func (e *InternalError) Is(target error) bool {
	return target == ErrInternal
}

func errorf(kind ErrorKind, pos Pos, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func duplicateSymbol(name string, pos, first Pos) *Error {
	e := errorf(DuplicateSymbol, pos, "%q already defined at line %s", name, first)
	e.Symbol = name
	return e
}

func undefinedSymbol(name string, pos Pos) *Error {
	e := errorf(UndefinedSymbol, pos, "%q", name)
	e.Symbol = name
	return e
}

func outOfRange(what string, v, lo, hi int64, pos Pos) *Error {
	e := errorf(EncodingRangeError, pos, "%s %d does not fit [%d, %d]", what, v, lo, hi)
	e.Value = v
	return e
}

func disallowed(mnemonic string, pos Pos) *Error {
	e := errorf(DisallowedInstruction, pos, "%s is not in the whitelist", mnemonic)
	e.Symbol = mnemonic
	return e
}

// FormatError renders err together with the source line it points at:
//
//	line 3:6: undefined symbol: "LOOP"
//	  |> JMP LOOP
//	  |>     ^
//
// Errors without a position are returned as plain text.
func FormatError(err error, src string) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	lines := strings.Split(src, "\n")
	idx := e.Pos.Line - 1
	if idx < 0 || idx >= len(lines) {
		return err.Error()
	}
	line := strings.TrimRight(lines[idx], "\r")
	col := max(e.Pos.Col-1, 0)
	var pad strings.Builder
	for i, r := range []rune(line) {
		if i >= col {
			break
		}
		if r == '\t' {
			pad.WriteRune('\t')
		} else {
			pad.WriteRune(' ')
		}
	}
	return fmt.Sprintf("%s\n  |> %s\n  |> %s^", err.Error(), line, pad.String())
}
