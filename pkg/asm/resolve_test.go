package asm

import (
	"errors"
	"reflect"
	"testing"
)

func mustParse(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", src, err)
	}
	return prog
}

func TestLayout(t *testing.T) {
	src := `
start:  LDI R0, 1       ; 0, 4 bytes
        NOP             ; 4, 2 bytes
        .ALIGN 8        ; 6, 2 bytes
table:  .WORD 1, 2      ; 8, 4 bytes
        .BYTE "abc", 0  ; 12, 4 bytes
        .STRING "xy"    ; 16, 3 bytes
        .PSTRING "xyz"  ; 19, 6 bytes
        .SPACE 5        ; 25, 5 bytes
        .ORG 0x20       ; 30, 2 bytes
        .PROC fn        ; 32
end:    RET             ; 32, 2 bytes
        .ENDPROC
`
	prog := mustParse(t, src)
	lay, err := layout(prog)
	if err != nil {
		t.Fatalf("layout error = %v", err)
	}
	var got []Slot
	for i, st := range prog.Statements {
		if _, ok := st.(*LabelDef); ok {
			continue
		}
		got = append(got, lay.Slots[i])
	}
	want := []Slot{
		{0, 4}, {4, 2}, {6, 2}, {8, 4}, {12, 4}, {16, 3}, {19, 6}, {25, 5}, {30, 2}, {32, 2}, {34, 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("slots = %v, want %v", got, want)
	}
	if lay.End != 34 {
		t.Errorf("End = %d, want 34", lay.End)
	}

	syms := map[string]uint16{"start": 0, "table": 8, "fn": 32, "end": 32}
	for name, addr := range syms {
		s, ok := lay.Symbols.Lookup(name)
		if !ok || s.Address != addr {
			t.Errorf("symbol %s = %v %v, want address %d", name, s, ok, addr)
		}
	}
	if s, _ := lay.Symbols.Lookup("fn"); s.Kind != SymProc {
		t.Errorf("fn kind = %s, want proc", s.Kind)
	}
}

func TestPStringSize(t *testing.T) {
	for n, want := range map[int]int{0: 2, 1: 4, 2: 4, 3: 6, 4: 6} {
		if got := pstringSize(n); got != want {
			t.Errorf("pstringSize(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestForwardAndBackwardReferences(t *testing.T) {
	fwd := mustParse(t, "JMP target\nNOP\ntarget: HLT\n")
	bwd := mustParse(t, "NOP\ntarget: HLT\nJMP target\n")

	for name, prog := range map[string]*Program{"forward": fwd, "backward": bwd} {
		lay, err := layout(prog)
		if err != nil {
			t.Fatalf("%s: layout error = %v", name, err)
		}
		res, err := bind(prog, lay)
		if err != nil {
			t.Fatalf("%s: bind error = %v", name, err)
		}
		def, _ := lay.Symbols.Lookup("target")
		for _, r := range res {
			inst, ok := r.Stmt.(*Instruction)
			if !ok || inst.Mnemonic != "JMP" {
				continue
			}
			if r.Values[0] != int64(def.Address) {
				t.Errorf("%s: JMP bound to %d, label is at %d", name, r.Values[0], def.Address)
			}
		}
	}
}

func TestBindValues(t *testing.T) {
	prog := mustParse(t, "here: MOV R3, -1\n.BYTE -128, 255, \"A\", here\n.WORD -32768, 0xFFFF\n")
	lay, err := layout(prog)
	if err != nil {
		t.Fatal(err)
	}
	res, err := bind(prog, lay)
	if err != nil {
		t.Fatalf("bind error = %v", err)
	}
	want := [][]int64{nil, {3, -1}, {-128, 255, 65, 0}, {-32768, 0xFFFF}}
	for i, r := range res {
		if !reflect.DeepEqual(r.Values, want[i]) {
			t.Errorf("statement %d (%s) values = %v, want %v", i, r.Stmt, r.Values, want[i])
		}
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		sentinel error
		pos      Pos
	}{
		{"duplicate label", "a: NOP\na: NOP", ErrDuplicateSymbol, Pos{2, 1}},
		{"duplicate unreferenced", "x:\nNOP\nx:\nHLT", ErrDuplicateSymbol, Pos{3, 1}},
		{"label and proc clash", "f: NOP\n.PROC f\n.ENDPROC", ErrDuplicateSymbol, Pos{2, 7}},
		{"undefined", "NOP\nJMP nowhere", ErrUndefinedSymbol, Pos{2, 5}},
		{"undefined in data", ".WORD nowhere", ErrUndefinedSymbol, Pos{1, 7}},
		{"labels are case-sensitive", "Loop: NOP\nJMP loop", ErrUndefinedSymbol, Pos{2, 5}},
		{"immediate too big", "LDI R0, 65536", ErrEncodingRange, Pos{1, 9}},
		{"immediate too small", "LDI R0, -32769", ErrEncodingRange, Pos{1, 9}},
		{"byte too big", ".BYTE 256", ErrEncodingRange, Pos{1, 7}},
		{"byte too small", ".BYTE -129", ErrEncodingRange, Pos{1, 7}},
		{"byte label too big", ".SPACE 300\nfar: .BYTE far", ErrEncodingRange, Pos{2, 12}},
		{"word too big", ".WORD 0x10000", ErrEncodingRange, Pos{1, 7}},
		{"org backwards", ".SPACE 4\n.ORG 2", ErrEncodingRange, Pos{2, 6}},
		{"org past end", ".ORG 0x10001", ErrEncodingRange, Pos{1, 6}},
		{"negative space", ".SPACE -1", ErrEncodingRange, Pos{1, 8}},
		{"program too large", ".ORG 0xFFFF\nLDI R0, 1", ErrEncodingRange, Pos{2, 1}},
		{"label past end", ".ORG 0x10000\nend:", ErrEncodingRange, Pos{2, 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prog := mustParse(t, tc.src)
			lay, err := layout(prog)
			if err == nil {
				_, err = bind(prog, lay)
			}
			if !errors.Is(err, tc.sentinel) {
				t.Fatalf("error = %v, want %v", err, tc.sentinel)
			}
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("error %T is not *Error", err)
			}
			if e.Pos != tc.pos {
				t.Errorf("error at %s, want %s (%v)", e.Pos, tc.pos, err)
			}
		})
	}
}

func TestUndefinedSymbolName(t *testing.T) {
	prog := mustParse(t, "CALL helper")
	lay, err := layout(prog)
	if err != nil {
		t.Fatal(err)
	}
	_, err = bind(prog, lay)
	var e *Error
	if !errors.As(err, &e) || e.Symbol != "helper" {
		t.Errorf("error = %v, want undefined symbol helper", err)
	}
}

func TestRangeErrorValue(t *testing.T) {
	prog := mustParse(t, "LDI R1, 70000")
	lay, _ := layout(prog)
	_, err := bind(prog, lay)
	var e *Error
	if !errors.As(err, &e) || e.Value != 70000 {
		t.Errorf("error = %v, want value 70000", err)
	}
}
