package server

import (
	"vmasm/pkg/asm"
)

// Method names.
const (
	MethodCompile     = "compile"
	MethodDisassemble = "disassemble"
	MethodShutdown    = "shutdown"
	MethodExit        = "exit"
)

// CodeCompileError is the JSON-RPC error code for a program the
// assembler rejects. The error data is an ErrorData.
const CodeCompileError = -32001

type CompileParams struct {
	Source string `json:"source"`
	// Whitelist restricts the instructions the program may use. Absent
	// means the server default; an empty array allows nothing.
	Whitelist []string `json:"whitelist,omitempty"`
}

type CompileResult struct {
	Binary  []byte           `json:"binary"` // base64 in JSON
	Symbols string           `json:"symbols"`
	Table   *asm.SymbolTable `json:"table"`
}

// ErrorData describes a compile failure in a machine-readable way.
type ErrorData struct {
	Kind   string `json:"kind"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Symbol string `json:"symbol,omitempty"`
	Value  int64  `json:"value,omitempty"`
}

type DisassembleParams struct {
	Binary []byte `json:"binary"`
}

type DisassembleResult struct {
	Listing string `json:"listing"`
}
