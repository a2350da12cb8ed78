// Package isa describes the GoCPU instruction set: opcodes, the operand
// forms each mnemonic accepts and the binary layout of an instruction.
//
// Every instruction is one little-endian 16-bit word
//
//	opcode<<10 | (A&7)<<7 | (B&7)<<4 | (C&7)<<1
//
// optionally followed by a little-endian 16-bit immediate word.
package isa

import (
	"fmt"
	"sort"
	"strings"
)

const (
	OpHLT  uint16 = 0x00
	OpNOP  uint16 = 0x01
	OpLDI  uint16 = 0x02
	OpMOV  uint16 = 0x03
	OpLD   uint16 = 0x04
	OpST   uint16 = 0x05
	OpADD  uint16 = 0x06
	OpSUB  uint16 = 0x07
	OpAND  uint16 = 0x08
	OpOR   uint16 = 0x09
	OpXOR  uint16 = 0x0A
	OpNOT  uint16 = 0x0B
	OpSHL  uint16 = 0x0C
	OpSHR  uint16 = 0x0D
	OpJMP  uint16 = 0x0E
	OpJZ   uint16 = 0x0F
	OpJNZ  uint16 = 0x10
	OpJN   uint16 = 0x11
	OpPUSH uint16 = 0x12
	OpPOP  uint16 = 0x13
	OpCALL uint16 = 0x14
	OpRET  uint16 = 0x15
	OpEI   uint16 = 0x16
	OpDI   uint16 = 0x17
	OpRETI uint16 = 0x18
	OpWFI  uint16 = 0x19
	OpLDSP uint16 = 0x1A
	OpSTSP uint16 = 0x1B
	OpMUL  uint16 = 0x1C
	OpDIV  uint16 = 0x1D
	OpFILL uint16 = 0x1E
	OpCOPY uint16 = 0x1F
	OpLDB  uint16 = 0x20
	OpSTB  uint16 = 0x21
	OpIDIV uint16 = 0x22
	OpJC   uint16 = 0x23
	OpJNC  uint16 = 0x24
	OpCMP  uint16 = 0x25
	OpADDI uint16 = 0x26
	OpSUBI uint16 = 0x27
	OpCMPI uint16 = 0x28
	OpSYS  uint16 = 0x29
)

const (
	// NumRegisters is the number of general purpose registers, R0..R7.
	NumRegisters = 8

	// WordSize is the size in bytes of an instruction word or immediate.
	WordSize = 2

	// AddressSpace is the number of addressable bytes.
	AddressSpace = 0x10000

	// MinImmediate and MaxImmediate bound a 16-bit immediate field. Negative
	// values are stored as two's complement.
	MinImmediate = -0x8000
	MaxImmediate = 0xFFFF
)

// OperandKind is the shape of one operand slot in a Form.
type OperandKind int

const (
	// Reg is a register operand, encoded in the A, B or C field.
	Reg OperandKind = iota
	// Imm is a 16-bit value (literal or label address), encoded in the
	// trailing immediate word.
	Imm
)

func (k OperandKind) String() string {
	switch k {
	case Reg:
		return "reg"
	case Imm:
		return "imm"
	}
	return fmt.Sprintf("OperandKind(%d)", int(k))
}

// Form is one encodable shape of a mnemonic.
type Form struct {
	Mnemonic string
	Opcode   uint16
	Operands []OperandKind
}

// HasImmediate reports whether the form is followed by an immediate word.
func (f *Form) HasImmediate() bool {
	for _, k := range f.Operands {
		if k == Imm {
			return true
		}
	}
	return false
}

// Size returns the encoded length of the form in bytes.
func (f *Form) Size() int {
	if f.HasImmediate() {
		return 2 * WordSize
	}
	return WordSize
}

// Signature renders the operand shape, e.g. "MOV reg, imm".
func (f *Form) Signature() string {
	if len(f.Operands) == 0 {
		return f.Mnemonic
	}
	parts := make([]string, len(f.Operands))
	for i, k := range f.Operands {
		parts[i] = k.String()
	}
	return f.Mnemonic + " " + strings.Join(parts, ", ")
}

var (
	zeroOperandOps = map[string]uint16{
		"HLT":  OpHLT,
		"NOP":  OpNOP,
		"RET":  OpRET,
		"EI":   OpEI,
		"DI":   OpDI,
		"RETI": OpRETI,
		"WFI":  OpWFI,
	}

	oneRegisterOps = map[string]uint16{
		"NOT":  OpNOT,
		"PUSH": OpPUSH,
		"POP":  OpPOP,
		"LDSP": OpLDSP,
		"STSP": OpSTSP,
	}

	twoRegisterOps = map[string]uint16{
		"MOV":  OpMOV,
		"LD":   OpLD,
		"ST":   OpST,
		"ADD":  OpADD,
		"SUB":  OpSUB,
		"AND":  OpAND,
		"OR":   OpOR,
		"XOR":  OpXOR,
		"MUL":  OpMUL,
		"DIV":  OpDIV,
		"IDIV": OpIDIV,
		"SHL":  OpSHL,
		"SHR":  OpSHR,
		"LDB":  OpLDB,
		"STB":  OpSTB,
		"CMP":  OpCMP,
	}

	threeRegisterOps = map[string]uint16{
		"FILL": OpFILL,
		"COPY": OpCOPY,
	}

	// LDI is listed before the MOV alias so it stays the canonical
	// mnemonic for OpLDI when decoding.
	regAndImmediateOps = []struct {
		mnemonic string
		opcode   uint16
	}{
		{"LDI", OpLDI},
		{"MOV", OpLDI},
		{"ADD", OpADDI},
		{"SUB", OpSUBI},
		{"CMP", OpCMPI},
	}

	immediateOnlyOps = map[string]uint16{
		"JMP":  OpJMP,
		"JZ":   OpJZ,
		"JNZ":  OpJNZ,
		"JN":   OpJN,
		"JC":   OpJC,
		"JNC":  OpJNC,
		"CALL": OpCALL,
		"SYS":  OpSYS,
	}
)

var (
	formsByMnemonic = make(map[string][]*Form)
	formsByOpcode   = make(map[uint16]*Form)
)

func register(mnemonic string, opcode uint16, operands ...OperandKind) {
	f := &Form{Mnemonic: mnemonic, Opcode: opcode, Operands: operands}
	formsByMnemonic[mnemonic] = append(formsByMnemonic[mnemonic], f)
	if _, ok := formsByOpcode[opcode]; !ok {
		formsByOpcode[opcode] = f
	}
}

func sortedKeys(m map[string]uint16) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	for _, m := range sortedKeys(zeroOperandOps) {
		register(m, zeroOperandOps[m])
	}
	for _, m := range sortedKeys(oneRegisterOps) {
		register(m, oneRegisterOps[m], Reg)
	}
	for _, m := range sortedKeys(twoRegisterOps) {
		register(m, twoRegisterOps[m], Reg, Reg)
	}
	for _, m := range sortedKeys(threeRegisterOps) {
		register(m, threeRegisterOps[m], Reg, Reg, Reg)
	}
	for _, op := range regAndImmediateOps {
		register(op.mnemonic, op.opcode, Reg, Imm)
	}
	for _, m := range sortedKeys(immediateOnlyOps) {
		register(m, immediateOnlyOps[m], Imm)
	}
}

// IsMnemonic reports whether s names an instruction. Case-insensitive.
func IsMnemonic(s string) bool {
	_, ok := formsByMnemonic[strings.ToUpper(s)]
	return ok
}

// Forms returns every form of a mnemonic.
func Forms(mnemonic string) []*Form {
	return formsByMnemonic[strings.ToUpper(mnemonic)]
}

// Match selects the form of mnemonic whose operand shape equals kinds.
func Match(mnemonic string, kinds []OperandKind) (*Form, bool) {
	for _, f := range Forms(mnemonic) {
		if len(f.Operands) != len(kinds) {
			continue
		}
		ok := true
		for i, k := range f.Operands {
			if kinds[i] != k {
				ok = false
				break
			}
		}
		if ok {
			return f, true
		}
	}
	return nil, false
}

// ByOpcode returns the canonical form for an opcode.
func ByOpcode(opcode uint16) (*Form, bool) {
	f, ok := formsByOpcode[opcode]
	return f, ok
}

// Mnemonics lists every known mnemonic in sorted order.
func Mnemonics() []string {
	out := make([]string, 0, len(formsByMnemonic))
	for m := range formsByMnemonic {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// ParseRegister maps "R0".."R7" (any case) to a register number.
func ParseRegister(s string) (uint16, bool) {
	if len(s) != 2 || (s[0] != 'R' && s[0] != 'r') {
		return 0, false
	}
	if s[1] < '0' || s[1] >= '0'+NumRegisters {
		return 0, false
	}
	return uint16(s[1] - '0'), true
}

// EncodeInstruction packs an opcode and up to three register fields into
// an instruction word.
func EncodeInstruction(opcode, regA, regB, regC uint16) uint16 {
	return (opcode << 10) | ((regA & 0x07) << 7) | ((regB & 0x07) << 4) | ((regC & 0x07) << 1)
}

// DecodeInstruction splits an instruction word into its fields.
func DecodeInstruction(word uint16) (opcode, regA, regB, regC uint16) {
	return word >> 10, (word >> 7) & 0x07, (word >> 4) & 0x07, (word >> 1) & 0x07
}

// AppendWord appends w to b in little-endian order.
func AppendWord(b []byte, w uint16) []byte {
	return append(b, byte(w&0xFF), byte(w>>8))
}

// Encode appends the encoding of f to b. values holds one entry per
// operand, in operand order: register numbers for Reg slots and the
// 16-bit field value for the Imm slot.
func Encode(b []byte, f *Form, values []uint16) ([]byte, error) {
	if len(values) != len(f.Operands) {
		return b, fmt.Errorf("%s: got %d operand values, want %d", f.Signature(), len(values), len(f.Operands))
	}
	var regs [3]uint16
	var imm uint16
	n := 0
	for i, k := range f.Operands {
		switch k {
		case Reg:
			if values[i] >= NumRegisters {
				return b, fmt.Errorf("%s: register %d out of range", f.Signature(), values[i])
			}
			regs[n] = values[i]
			n++
		case Imm:
			imm = values[i]
		}
	}
	b = AppendWord(b, EncodeInstruction(f.Opcode, regs[0], regs[1], regs[2]))
	if f.HasImmediate() {
		b = AppendWord(b, imm)
	}
	return b, nil
}
