package asm

import (
	"fmt"
	"strings"

	"vmasm/pkg/isa"
)

//  Operands

// Operand is implemented by every operand form the grammar accepts.
type Operand interface {
	operandNode()
	Pos() Pos
	String() string
}

// Register names one of R0..R7. Indirect is set for the "[Rn]" spelling.
type Register struct {
	Num      uint16
	Indirect bool
	Position Pos
}

func (*Register) operandNode() {}
func (r *Register) Pos() Pos  { return r.Position }
func (r *Register) String() string {
	if r.Indirect {
		return fmt.Sprintf("[R%d]", r.Num)
	}
	return fmt.Sprintf("R%d", r.Num)
}

// Immediate is a numeric literal, already negated if written with '-'.
type Immediate struct {
	Value    int64
	Position Pos
}

func (*Immediate) operandNode()     {}
func (i *Immediate) Pos() Pos       { return i.Position }
func (i *Immediate) String() string { return fmt.Sprintf("%d", i.Value) }

// LabelRef is a symbolic reference, bound to an address in pass 2.
type LabelRef struct {
	Name     string
	Position Pos
}

func (*LabelRef) operandNode()     {}
func (l *LabelRef) Pos() Pos       { return l.Position }
func (l *LabelRef) String() string { return l.Name }

// StringLit is a decoded string literal. Only data directives take one.
type StringLit struct {
	Value    string
	Position Pos
}

func (*StringLit) operandNode()     {}
func (s *StringLit) Pos() Pos       { return s.Position }
func (s *StringLit) String() string { return fmt.Sprintf("%q", s.Value) }

//  Statements

// Statement is one element of a Program.
type Statement interface {
	stmtNode()
	Pos() Pos
	String() string
}

// Instruction is a mnemonic with its operands. Form is the encoding the
// parser selected from the operand shapes.
type Instruction struct {
	Mnemonic string
	Operands []Operand
	Form     *isa.Form
	Position Pos
}

func (*Instruction) stmtNode()  {}
func (i *Instruction) Pos() Pos { return i.Position }
func (i *Instruction) String() string {
	if len(i.Operands) == 0 {
		return i.Mnemonic
	}
	ops := make([]string, len(i.Operands))
	for j, op := range i.Operands {
		ops[j] = op.String()
	}
	return i.Mnemonic + " " + strings.Join(ops, ", ")
}

// LabelDef binds Name to the address of the next emitted byte.
type LabelDef struct {
	Name     string
	Kind     SymbolKind
	Position Pos
}

func (*LabelDef) stmtNode()  {}
func (l *LabelDef) Pos() Pos { return l.Position }
func (l *LabelDef) String() string {
	if l.Kind == SymProc {
		return ".PROC " + l.Name
	}
	return l.Name + ":"
}

// DirectiveKind enumerates the assembler directives.
type DirectiveKind int

const (
	DirOrg     DirectiveKind = iota // .ORG addr: pad with zeros up to addr
	DirByte                         // .BYTE v, ...: 8-bit values or string bytes
	DirWord                         // .WORD v, ...: 16-bit little-endian values
	DirString                       // .STRING "s": bytes plus NUL
	DirPString                      // .PSTRING "s": two bytes per word plus NUL word
	DirSpace                        // .SPACE n: n zero bytes
	DirAlign                        // .ALIGN n: zeros up to a multiple of n
	DirEndProc                      // .ENDPROC: closes the open .PROC
)

var directiveNames = [...]string{
	DirOrg:     ".ORG",
	DirByte:    ".BYTE",
	DirWord:    ".WORD",
	DirString:  ".STRING",
	DirPString: ".PSTRING",
	DirSpace:   ".SPACE",
	DirAlign:   ".ALIGN",
	DirEndProc: ".ENDPROC",
}

func (k DirectiveKind) String() string {
	if int(k) >= 0 && int(k) < len(directiveNames) {
		return directiveNames[k]
	}
	return fmt.Sprintf("DirectiveKind(%d)", int(k))
}

// Directive is a data or layout directive.
type Directive struct {
	Kind     DirectiveKind
	Args     []Operand
	Position Pos
}

func (*Directive) stmtNode()  {}
func (d *Directive) Pos() Pos { return d.Position }
func (d *Directive) String() string {
	if len(d.Args) == 0 {
		return d.Kind.String()
	}
	args := make([]string, len(d.Args))
	for i, a := range d.Args {
		args[i] = a.String()
	}
	return d.Kind.String() + " " + strings.Join(args, ", ")
}

// Program is the parsed source in textual order.
type Program struct {
	Statements []Statement
}

func (p *Program) String() string {
	var sb strings.Builder
	for _, s := range p.Statements {
		if _, ok := s.(*LabelDef); !ok {
			sb.WriteString("  ")
		}
		sb.WriteString(s.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
