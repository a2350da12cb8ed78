package asm

import (
	"io"

	"github.com/k0kubun/pp/v3"
)

// DumpProgram pretty-prints the parsed program to w.
func DumpProgram(w io.Writer, prog *Program, color bool) {
	printer := pp.New()
	printer.SetOutput(w)
	printer.SetColoringEnabled(color)
	printer.SetExportedOnly(true)
	printer.Println(prog)
}

// DumpSymbols pretty-prints the symbol table in address order.
func DumpSymbols(w io.Writer, t *SymbolTable, color bool) {
	printer := pp.New()
	printer.SetOutput(w)
	printer.SetColoringEnabled(color)
	printer.Println(t.Sorted())
}
