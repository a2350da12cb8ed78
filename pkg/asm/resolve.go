package asm

import (
	"vmasm/pkg/isa"
)

// Field widths checked in pass 2.
const (
	minByte = -0x80
	maxByte = 0xFF
	minWord = -0x8000
	maxWord = 0xFFFF
)

// Slot is the placement of one statement in the output.
type Slot struct {
	Address int
	Size    int
}

// Layout is the product of pass 1: one Slot per statement, in program
// order, and every label bound to its address.
type Layout struct {
	Slots   []Slot
	Symbols *SymbolTable
	End     int // total size of the binary
}

// Resolved is a statement whose operands are all concrete values.
//
// Values holds one entry per register or numeric field: register numbers
// and immediates for instructions, one entry per emitted byte or word for
// .BYTE and .WORD. Other directives carry no values.
type Resolved struct {
	Stmt    Statement
	Address int
	Size    int
	Values  []int64
}

// layout is pass 1. It assigns every statement an address starting at 0
// and records label addresses. It does not look at label references.
func layout(prog *Program) (*Layout, error) {
	lay := &Layout{
		Slots:   make([]Slot, len(prog.Statements)),
		Symbols: NewSymbolTable(),
	}
	pc := 0
	for i, st := range prog.Statements {
		size, err := sizeOf(st, pc)
		if err != nil {
			return nil, err
		}
		if pc+size > isa.AddressSpace {
			e := errorf(EncodingRangeError, st.Pos(), "program exceeds the %d byte address space", isa.AddressSpace)
			e.Value = int64(pc + size)
			return nil, e
		}
		if def, ok := st.(*LabelDef); ok {
			if pc >= isa.AddressSpace {
				e := errorf(EncodingRangeError, def.Position, "label %s at address %#x is outside the address space", def.Name, pc)
				e.Symbol, e.Value = def.Name, int64(pc)
				return nil, e
			}
			if err := lay.Symbols.Define(def.Name, uint16(pc), def.Kind, def.Position); err != nil {
				return nil, err
			}
		}
		lay.Slots[i] = Slot{Address: pc, Size: size}
		pc += size
	}
	lay.End = pc
	return lay, nil
}

// sizeOf returns the number of bytes st occupies when placed at pc.
func sizeOf(st Statement, pc int) (int, error) {
	switch st := st.(type) {
	case *Instruction:
		return st.Form.Size(), nil
	case *LabelDef:
		return 0, nil
	case *Directive:
		return directiveSize(st, pc)
	}
	return 0, &InternalError{Pos: st.Pos(), Msg: "unknown statement type"}
}

func directiveSize(d *Directive, pc int) (int, error) {
	switch d.Kind {
	case DirOrg:
		target := d.Args[0].(*Immediate)
		if target.Value < int64(pc) {
			e := errorf(EncodingRangeError, target.Position, ".ORG %#x is below the current address %#x", target.Value, pc)
			e.Value = target.Value
			return 0, e
		}
		if target.Value > isa.AddressSpace {
			return 0, outOfRange(".ORG address", target.Value, 0, isa.AddressSpace, target.Position)
		}
		return int(target.Value) - pc, nil

	case DirSpace:
		n := d.Args[0].(*Immediate)
		if n.Value < 0 || n.Value > isa.AddressSpace {
			return 0, outOfRange(".SPACE size", n.Value, 0, isa.AddressSpace, n.Position)
		}
		return int(n.Value), nil

	case DirAlign:
		n := d.Args[0].(*Immediate)
		if n.Value > isa.AddressSpace {
			return 0, outOfRange(".ALIGN boundary", n.Value, 1, isa.AddressSpace, n.Position)
		}
		b := int(n.Value)
		return (b - pc%b) % b, nil

	case DirByte:
		size := 0
		for _, a := range d.Args {
			if s, ok := a.(*StringLit); ok {
				size += len(s.Value)
			} else {
				size++
			}
		}
		return size, nil

	case DirWord:
		return isa.WordSize * len(d.Args), nil

	case DirString:
		return len(d.Args[0].(*StringLit).Value) + 1, nil

	case DirPString:
		return pstringSize(len(d.Args[0].(*StringLit).Value)), nil

	case DirEndProc:
		return 0, nil
	}
	return 0, &InternalError{Pos: d.Position, Msg: "unknown directive " + d.Kind.String()}
}

// pstringSize is the size of n bytes packed two per word plus a NUL word.
func pstringSize(n int) int {
	return (n+1)/2*isa.WordSize + isa.WordSize
}

// bind is pass 2. Every label reference is looked up in the finished
// layout and every value is checked against the width of its field.
func bind(prog *Program, lay *Layout) ([]Resolved, error) {
	out := make([]Resolved, len(prog.Statements))
	for i, st := range prog.Statements {
		r := Resolved{Stmt: st, Address: lay.Slots[i].Address, Size: lay.Slots[i].Size}
		var err error
		switch st := st.(type) {
		case *Instruction:
			r.Values, err = bindInstruction(st, lay.Symbols)
		case *Directive:
			r.Values, err = bindData(st, lay.Symbols)
		}
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func bindInstruction(inst *Instruction, syms *SymbolTable) ([]int64, error) {
	vals := make([]int64, len(inst.Operands))
	for i, op := range inst.Operands {
		switch op := op.(type) {
		case *Register:
			vals[i] = int64(op.Num)
		case *Immediate:
			if op.Value < isa.MinImmediate || op.Value > isa.MaxImmediate {
				return nil, outOfRange("immediate", op.Value, isa.MinImmediate, isa.MaxImmediate, op.Position)
			}
			vals[i] = op.Value
		case *LabelRef:
			sym, ok := syms.Lookup(op.Name)
			if !ok {
				return nil, undefinedSymbol(op.Name, op.Position)
			}
			vals[i] = int64(sym.Address)
		default:
			return nil, &InternalError{Pos: op.Pos(), Msg: "unexpected operand " + op.String()}
		}
	}
	return vals, nil
}

func bindData(d *Directive, syms *SymbolTable) ([]int64, error) {
	var lo, hi int64
	var what string
	switch d.Kind {
	case DirByte:
		lo, hi, what = minByte, maxByte, ".BYTE value"
	case DirWord:
		lo, hi, what = minWord, maxWord, ".WORD value"
	default:
		return nil, nil
	}

	var vals []int64
	for _, a := range d.Args {
		var v int64
		switch a := a.(type) {
		case *StringLit:
			for _, b := range []byte(a.Value) {
				vals = append(vals, int64(b))
			}
			continue
		case *Immediate:
			v = a.Value
		case *LabelRef:
			sym, ok := syms.Lookup(a.Name)
			if !ok {
				return nil, undefinedSymbol(a.Name, a.Position)
			}
			v = int64(sym.Address)
		}
		if v < lo || v > hi {
			return nil, outOfRange(what, v, lo, hi, a.Pos())
		}
		vals = append(vals, v)
	}
	return vals, nil
}
