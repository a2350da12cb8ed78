package isa

import (
	"errors"
	"reflect"
	"testing"
)

func TestEncodeInstruction(t *testing.T) {
	tests := []struct {
		opcode, a, b, c uint16
		want            uint16
	}{
		{OpHLT, 0, 0, 0, 0x0000},
		{OpLDI, 1, 0, 0, 0x0880},
		{OpMOV, 1, 2, 0, 0x0CA0},
		{OpJMP, 0, 0, 0, 0x3800},
		{OpFILL, 1, 3, 0, 0x78B0},
		{OpSYS, 0, 0, 0, 0xA400},
	}
	for _, tc := range tests {
		got := EncodeInstruction(tc.opcode, tc.a, tc.b, tc.c)
		if got != tc.want {
			t.Errorf("EncodeInstruction(0x%02X, %d, %d, %d) = 0x%04X; want 0x%04X", tc.opcode, tc.a, tc.b, tc.c, got, tc.want)
		}
		op, a, b, c := DecodeInstruction(got)
		if op != tc.opcode || a != tc.a || b != tc.b || c != tc.c {
			t.Errorf("DecodeInstruction(0x%04X) = %d %d %d %d", got, op, a, b, c)
		}
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		mnemonic string
		kinds    []OperandKind
		opcode   uint16
		ok       bool
	}{
		{"MOV", []OperandKind{Reg, Reg}, OpMOV, true},
		{"mov", []OperandKind{Reg, Imm}, OpLDI, true},
		{"ADD", []OperandKind{Reg, Imm}, OpADDI, true},
		{"JMP", []OperandKind{Imm}, OpJMP, true},
		{"HLT", nil, OpHLT, true},
		{"JMP", []OperandKind{Reg}, 0, false},
		{"ADD", []OperandKind{Reg}, 0, false},
		{"BOGUS", nil, 0, false},
	}
	for _, tc := range tests {
		f, ok := Match(tc.mnemonic, tc.kinds)
		if ok != tc.ok {
			t.Errorf("Match(%q, %v) ok = %v; want %v", tc.mnemonic, tc.kinds, ok, tc.ok)
			continue
		}
		if ok && f.Opcode != tc.opcode {
			t.Errorf("Match(%q, %v) opcode = 0x%02X; want 0x%02X", tc.mnemonic, tc.kinds, f.Opcode, tc.opcode)
		}
	}
}

func TestFormSize(t *testing.T) {
	tests := []struct {
		mnemonic string
		kinds    []OperandKind
		want     int
	}{
		{"NOP", nil, 2},
		{"PUSH", []OperandKind{Reg}, 2},
		{"COPY", []OperandKind{Reg, Reg, Reg}, 2},
		{"LDI", []OperandKind{Reg, Imm}, 4},
		{"CALL", []OperandKind{Imm}, 4},
	}
	for _, tc := range tests {
		f, ok := Match(tc.mnemonic, tc.kinds)
		if !ok {
			t.Fatalf("Match(%q) failed", tc.mnemonic)
		}
		if got := f.Size(); got != tc.want {
			t.Errorf("%s size = %d; want %d", f.Signature(), got, tc.want)
		}
	}
}

func TestCanonicalOpcodeForm(t *testing.T) {
	f, ok := ByOpcode(OpLDI)
	if !ok || f.Mnemonic != "LDI" {
		t.Errorf("ByOpcode(OpLDI) = %v, %v; want LDI", f, ok)
	}
	if !IsMnemonic("reti") || IsMnemonic("R1") {
		t.Errorf("IsMnemonic classification is wrong")
	}
}

func TestParseRegister(t *testing.T) {
	tests := []struct {
		in   string
		want uint16
		ok   bool
	}{
		{"R0", 0, true},
		{"r7", 7, true},
		{"R8", 0, false},
		{"R", 0, false},
		{"RA", 0, false},
		{"X1", 0, false},
	}
	for _, tc := range tests {
		got, ok := ParseRegister(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseRegister(%q) = %d, %v; want %d, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestEncode(t *testing.T) {
	f, _ := Match("MOV", []OperandKind{Reg, Imm})
	got, err := Encode(nil, f, []uint16{1, 5})
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x80, 0x08, 0x05, 0x00}; !reflect.DeepEqual(got, want) {
		t.Errorf("Encode(MOV R1, 5) = % X; want % X", got, want)
	}

	if _, err := Encode(nil, f, []uint16{1}); err == nil {
		t.Error("Encode with missing operand value should fail")
	}
	if _, err := Encode(nil, f, []uint16{9, 1}); err == nil {
		t.Error("Encode with register 9 should fail")
	}
}

func TestDecode(t *testing.T) {
	d, n, err := Decode([]byte{0xA0, 0x0C})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || d.String() != "MOV R1, R2" {
		t.Errorf("Decode = %q (%d bytes); want \"MOV R1, R2\" (2 bytes)", d, n)
	}

	if _, _, err := Decode([]byte{0x00, 0x38, 0x00}); !errors.Is(err, ErrTruncated) {
		t.Errorf("Decode of truncated JMP error = %v; want ErrTruncated", err)
	}
	if _, _, err := Decode([]byte{0x00, 0xFC}); err == nil {
		t.Error("Decode of unknown opcode 0x3F should fail")
	}
}

func TestDisassemble(t *testing.T) {
	code := []byte{
		0x80, 0x08, 0x05, 0x00, // LDI R1, 5
		0x00, 0x38, 0x00, 0x00, // JMP 0
		0x41, // odd trailing byte
	}
	want := "0000: 80 08 05 00  LDI R1, 0x0005\n" +
		"0004: 00 38 00 00  JMP 0x0000\n" +
		"0008: 41           .BYTE 0x41\n"
	if got := Disassemble(code); got != want {
		t.Errorf("Disassemble =\n%s\nwant\n%s", got, want)
	}
}
