package asm

import (
	"fmt"
	"sort"
)

// SymbolKind tells a plain label from a .PROC entry point.
type SymbolKind int

const (
	SymLabel SymbolKind = iota
	SymProc
)

func (k SymbolKind) String() string {
	switch k {
	case SymLabel:
		return "label"
	case SymProc:
		return "proc"
	}
	return fmt.Sprintf("SymbolKind(%d)", int(k))
}

// Symbol is a resolved name.
type Symbol struct {
	Name    string
	Address uint16
	Kind    SymbolKind
	Pos     Pos // where the symbol was defined
}

// SymbolTable maps names to addresses. A name is inserted at most once.
type SymbolTable struct {
	symbols map[string]*Symbol
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]*Symbol)}
}

// Define inserts a symbol. Redefining a name fails with DuplicateSymbol at
// the position of the second definition.
func (t *SymbolTable) Define(name string, addr uint16, kind SymbolKind, pos Pos) error {
	if prev, ok := t.symbols[name]; ok {
		return duplicateSymbol(name, pos, prev.Pos)
	}
	t.symbols[name] = &Symbol{Name: name, Address: addr, Kind: kind, Pos: pos}
	return nil
}

// Lookup returns the symbol called name.
func (t *SymbolTable) Lookup(name string) (Symbol, bool) {
	if t == nil {
		return Symbol{}, false
	}
	s, ok := t.symbols[name]
	if !ok {
		return Symbol{}, false
	}
	return *s, true
}

func (t *SymbolTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.symbols)
}

// Sorted returns every symbol ordered by address, then by name.
func (t *SymbolTable) Sorted() []Symbol {
	if t == nil {
		return nil
	}
	out := make([]Symbol, 0, len(t.symbols))
	for _, s := range t.symbols {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Address != out[j].Address {
			return out[i].Address < out[j].Address
		}
		return out[i].Name < out[j].Name
	})
	return out
}
