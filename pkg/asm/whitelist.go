package asm

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"vmasm/pkg/isa"
)

// Whitelist is the set of mnemonics a program may use. A nil *Whitelist
// allows everything.
type Whitelist struct {
	allowed map[string]struct{}
}

// NewWhitelist builds a whitelist from mnemonics in any case.
func NewWhitelist(mnemonics ...string) *Whitelist {
	w := &Whitelist{allowed: make(map[string]struct{}, len(mnemonics))}
	for _, m := range mnemonics {
		w.allowed[strings.ToUpper(strings.TrimSpace(m))] = struct{}{}
	}
	return w
}

// ParseWhitelist reads a whitelist document: a JSON array of mnemonic
// strings, e.g. ["MOV", "ADD"]. Anything else is an error; a malformed
// document never means "no whitelist".
func ParseWhitelist(data []byte) (*Whitelist, error) {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("whitelist: %w", err)
	}
	if list == nil {
		return nil, errors.New("whitelist: expected a JSON array of mnemonics, got null")
	}
	for i, m := range list {
		if strings.TrimSpace(m) == "" {
			return nil, fmt.Errorf("whitelist: entry %d is empty", i)
		}
	}
	return NewWhitelist(list...), nil
}

// Allows reports whether mnemonic may be used. Case-insensitive.
func (w *Whitelist) Allows(mnemonic string) bool {
	if w == nil {
		return true
	}
	_, ok := w.allowed[strings.ToUpper(mnemonic)]
	return ok
}

// Check fails with DisallowedInstruction on the first instruction, in
// program order, that the whitelist does not allow. Directives are not
// checked.
func (w *Whitelist) Check(prog *Program) error {
	if w == nil {
		return nil
	}
	for _, st := range prog.Statements {
		inst, ok := st.(*Instruction)
		if !ok {
			continue
		}
		if !w.Allows(inst.Mnemonic) {
			return disallowed(inst.Mnemonic, inst.Position)
		}
	}
	return nil
}

// Mnemonics returns the allowed mnemonics in sorted order.
func (w *Whitelist) Mnemonics() []string {
	if w == nil {
		return nil
	}
	out := make([]string, 0, len(w.allowed))
	for m := range w.allowed {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Unknown returns the entries that do not name any instruction. They are
// harmless but usually a typo.
func (w *Whitelist) Unknown() []string {
	var out []string
	for _, m := range w.Mnemonics() {
		if !isa.IsMnemonic(m) {
			out = append(out, m)
		}
	}
	return out
}
