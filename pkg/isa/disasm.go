package isa

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTruncated is returned when the input ends inside an instruction.
var ErrTruncated = errors.New("truncated instruction")

// Decoded is one instruction recovered from a binary.
type Decoded struct {
	Form   *Form
	Values []uint16
}

func (d Decoded) String() string {
	if len(d.Values) == 0 {
		return d.Form.Mnemonic
	}
	parts := make([]string, len(d.Values))
	for i, k := range d.Form.Operands {
		if k == Reg {
			parts[i] = fmt.Sprintf("R%d", d.Values[i])
		} else {
			parts[i] = fmt.Sprintf("0x%04X", d.Values[i])
		}
	}
	return d.Form.Mnemonic + " " + strings.Join(parts, ", ")
}

// Decode reads the instruction at the start of code and returns it with
// its length in bytes.
func Decode(code []byte) (Decoded, int, error) {
	if len(code) < WordSize {
		return Decoded{}, 0, ErrTruncated
	}
	word := uint16(code[0]) | uint16(code[1])<<8
	opcode, a, b, c := DecodeInstruction(word)
	f, ok := ByOpcode(opcode)
	if !ok {
		return Decoded{}, 0, fmt.Errorf("unknown opcode 0x%02X", opcode)
	}
	if len(code) < f.Size() {
		return Decoded{}, 0, ErrTruncated
	}
	regs := []uint16{a, b, c}
	d := Decoded{Form: f, Values: make([]uint16, len(f.Operands))}
	for i, k := range f.Operands {
		switch k {
		case Reg:
			d.Values[i] = regs[0]
			regs = regs[1:]
		case Imm:
			d.Values[i] = uint16(code[2]) | uint16(code[3])<<8
		}
	}
	return d, f.Size(), nil
}

// Disassemble renders code as one line per instruction:
//
//	0004: 00 38 00 00  JMP 0x0000
//
// Bytes that do not decode (data, or a trailing odd byte) are emitted as
// .BYTE lines so the listing always covers the whole input.
func Disassemble(code []byte) string {
	var sb strings.Builder
	for pc := 0; pc < len(code); {
		d, n, err := Decode(code[pc:])
		if err != nil {
			fmt.Fprintf(&sb, "%04X: %-11s  .BYTE 0x%02X\n", pc, fmt.Sprintf("%02X", code[pc]), code[pc])
			pc++
			continue
		}
		hex := make([]string, n)
		for i := range n {
			hex[i] = fmt.Sprintf("%02X", code[pc+i])
		}
		fmt.Fprintf(&sb, "%04X: %-11s  %s\n", pc, strings.Join(hex, " "), d)
		pc += n
	}
	return sb.String()
}
