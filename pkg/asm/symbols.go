package asm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Text renders one "NAME -> ADDRESS" line per symbol, addresses in
// decimal, ordered by address and then by name.
func (t *SymbolTable) Text() string {
	var sb strings.Builder
	for _, s := range t.Sorted() {
		fmt.Fprintf(&sb, "%s -> %d\n", s.Name, s.Address)
	}
	return sb.String()
}

func (t *SymbolTable) String() string {
	return t.Text()
}

type symbolJSON struct {
	Name    string `json:"name"`
	Address uint16 `json:"address"`
	Kind    string `json:"kind"`
	Line    int    `json:"line"`
}

// MarshalJSON renders the table as an array in the same order as Text.
func (t *SymbolTable) MarshalJSON() ([]byte, error) {
	entries := make([]symbolJSON, 0, t.Len())
	for _, s := range t.Sorted() {
		entries = append(entries, symbolJSON{
			Name:    s.Name,
			Address: s.Address,
			Kind:    s.Kind.String(),
			Line:    s.Pos.Line,
		})
	}
	return json.Marshal(entries)
}
