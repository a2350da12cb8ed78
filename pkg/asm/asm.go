package asm

import (
	"github.com/golang/glog"
)

// Output is the result of a successful compilation.
type Output struct {
	// Binary is the machine code, loaded at address 0.
	Binary []byte
	// Symbols is the symbol text, see SymbolTable.Text.
	Symbols string
	// Table holds the resolved symbols.
	Table *SymbolTable
	// SourceMap maps the address of every instruction and data directive
	// to its 1-based source line.
	SourceMap map[uint16]int
}

// Compile assembles src. A nil whitelist allows every instruction.
//
// The stages run in order and the first failure is returned: lex and
// parse, pass 1 (layout and symbols), pass 2 (operand binding and range
// checks), the whitelist gate, encoding and symbol emission. User errors
// are *Error; *InternalError means the assembler itself is broken.
// Compile keeps no state between calls and is safe for concurrent use.
func Compile(src string, wl *Whitelist) (*Output, error) {
	prog, err := Parse(src)
	if err != nil {
		return nil, err
	}
	glog.V(2).Infof("parsed %d statements", len(prog.Statements))

	lay, err := layout(prog)
	if err != nil {
		return nil, err
	}
	glog.V(2).Infof("pass 1: %d bytes, %d symbols", lay.End, lay.Symbols.Len())

	resolved, err := bind(prog, lay)
	if err != nil {
		return nil, err
	}
	glog.V(2).Info("pass 2: all operands bound")

	if err := wl.Check(prog); err != nil {
		return nil, err
	}

	bin, err := encode(resolved)
	if err != nil {
		glog.Errorf("encoder disagrees with layout: %v", err)
		return nil, err
	}
	glog.V(2).Infof("encoded %d bytes", len(bin))

	return &Output{
		Binary:    bin,
		Symbols:   lay.Symbols.Text(),
		Table:     lay.Symbols,
		SourceMap: sourceMap(resolved),
	}, nil
}

// sourceMap skips labels, padding and empty statements.
func sourceMap(prog []Resolved) map[uint16]int {
	m := make(map[uint16]int)
	for _, r := range prog {
		if r.Size == 0 {
			continue
		}
		switch st := r.Stmt.(type) {
		case *Instruction:
			m[uint16(r.Address)] = st.Position.Line
		case *Directive:
			switch st.Kind {
			case DirOrg, DirSpace, DirAlign:
			default:
				m[uint16(r.Address)] = st.Position.Line
			}
		}
	}
	return m
}
