package asm

import (
	"iter"
	"math"
	"strings"

	"vmasm/pkg/isa"
)

// parser turns the token stream into a Program. It pulls one token at a
// time from the lexer and keeps exactly one token of lookahead.
type parser struct {
	next func() (Token, error, bool)
	tok  Token
	proc *LabelDef // open .PROC, if any
}

var directiveKinds = map[string]DirectiveKind{
	".ORG":     DirOrg,
	".BYTE":    DirByte,
	".WORD":    DirWord,
	".STRING":  DirString,
	".PSTRING": DirPString,
	".SPACE":   DirSpace,
	".ALIGN":   DirAlign,
	".ENDPROC": DirEndProc,
}

// Parse parses src into a Program. Statements end at a newline or at the
// end of input. Parsing stops at the first error.
func Parse(src string) (*Program, error) {
	next, stop := iter.Pull2(Tokens(src))
	defer stop()

	p := &parser{next: next}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseProgram()
}

func (p *parser) advance() error {
	tok, err, ok := p.next()
	if !ok {
		p.tok = Token{Type: EOF, Pos: p.tok.Pos}
		return nil
	}
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) unexpected() error {
	e := errorf(ParseError, p.tok.Pos, "unexpected %s", p.tok.describe())
	e.Symbol = p.tok.Lexeme
	return e
}

func (p *parser) parseProgram() (*Program, error) {
	prog := &Program{}
	for p.tok.Type != EOF {
		if err := p.parseLine(prog); err != nil {
			return nil, err
		}
	}
	if p.proc != nil {
		return nil, errorf(ParseError, p.proc.Position, ".PROC %s is not closed by .ENDPROC", p.proc.Name)
	}
	return prog, nil
}

// parseLine parses  { label ":" } [ instruction | directive ]  and the
// newline that ends it.
func (p *parser) parseLine(prog *Program) error {
	for p.tok.Type == IDENTIFIER {
		name := p.tok
		if err := p.advance(); err != nil {
			return err
		}
		if p.tok.Type != COLON {
			e := errorf(ParseError, name.Pos, "unknown instruction %q", name.Lexeme)
			e.Symbol = name.Lexeme
			return e
		}
		if err := checkLabelName(name); err != nil {
			return err
		}
		prog.Statements = append(prog.Statements, &LabelDef{Name: name.Lexeme, Kind: SymLabel, Position: name.Pos})
		if err := p.advance(); err != nil {
			return err
		}
	}

	switch p.tok.Type {
	case NEWLINE:
		return p.advance()
	case EOF:
		return nil
	case MNEMONIC:
		inst, err := p.parseInstruction()
		if err != nil {
			return err
		}
		prog.Statements = append(prog.Statements, inst)
	case DIRECTIVE:
		stmt, err := p.parseDirective()
		if err != nil {
			return err
		}
		prog.Statements = append(prog.Statements, stmt)
	default:
		return p.unexpected()
	}
	return p.endStatement()
}

func (p *parser) endStatement() error {
	switch p.tok.Type {
	case NEWLINE:
		return p.advance()
	case EOF:
		return nil
	}
	return p.unexpected()
}

// checkLabelName rejects register names. Mnemonics never reach here
// because the lexer does not classify them as identifiers.
func checkLabelName(tok Token) error {
	if _, ok := isa.ParseRegister(tok.Lexeme); ok {
		e := errorf(ParseError, tok.Pos, "%q is a register name and cannot be used as a label", tok.Lexeme)
		e.Symbol = tok.Lexeme
		return e
	}
	return nil
}

// parseOperands reads operands up to the end of the statement. Commas
// between operands are optional.
func (p *parser) parseOperands() ([]Operand, error) {
	var ops []Operand
	for p.tok.Type != NEWLINE && p.tok.Type != EOF {
		if len(ops) > 0 && p.tok.Type == COMMA {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		op, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func (p *parser) parseOperand() (Operand, error) {
	tok := p.tok
	switch tok.Type {
	case IDENTIFIER:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if n, ok := isa.ParseRegister(tok.Lexeme); ok {
			return &Register{Num: n, Position: tok.Pos}, nil
		}
		return &LabelRef{Name: tok.Lexeme, Position: tok.Pos}, nil

	case LBRACKET:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, ok := isa.ParseRegister(p.tok.Lexeme)
		if p.tok.Type != IDENTIFIER || !ok {
			e := errorf(ParseError, p.tok.Pos, "expected register after '[', got %s", p.tok.describe())
			e.Symbol = p.tok.Lexeme
			return nil, e
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Type != RBRACKET {
			return nil, errorf(ParseError, p.tok.Pos, "expected ']', got %s", p.tok.describe())
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Register{Num: n, Indirect: true, Position: tok.Pos}, nil

	case MINUS:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Type != INTEGER {
			return nil, errorf(ParseError, p.tok.Pos, "expected number after '-', got %s", p.tok.describe())
		}
		v, err := p.integer(true)
		if err != nil {
			return nil, err
		}
		return &Immediate{Value: v, Position: tok.Pos}, nil

	case INTEGER:
		v, err := p.integer(false)
		if err != nil {
			return nil, err
		}
		return &Immediate{Value: v, Position: tok.Pos}, nil

	case STRING:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &StringLit{Value: tok.Lexeme, Position: tok.Pos}, nil
	}
	return nil, p.unexpected()
}

// integer consumes the current INTEGER token. The result must fit int64.
func (p *parser) integer(negate bool) (int64, error) {
	tok := p.tok
	u, err := parseInteger(tok.Lexeme)
	if err != nil {
		return 0, errorf(ParseError, tok.Pos, "malformed number %q", tok.Lexeme)
	}
	var v int64
	switch {
	case negate && u == math.MaxInt64+1:
		v = math.MinInt64
	case u > math.MaxInt64:
		e := errorf(ParseError, tok.Pos, "integer literal %s is out of range", tok.Lexeme)
		e.Symbol = tok.Lexeme
		return 0, e
	case negate:
		v = -int64(u)
	default:
		v = int64(u)
	}
	return v, p.advance()
}

func operandKinds(ops []Operand) ([]isa.OperandKind, error) {
	kinds := make([]isa.OperandKind, len(ops))
	for i, op := range ops {
		switch op.(type) {
		case *Register:
			kinds[i] = isa.Reg
		case *Immediate, *LabelRef:
			kinds[i] = isa.Imm
		case *StringLit:
			return nil, errorf(ParseError, op.Pos(), "instructions do not take string operands")
		}
	}
	return kinds, nil
}

func (p *parser) parseInstruction() (*Instruction, error) {
	tok := p.tok
	mnemonic := strings.ToUpper(tok.Lexeme)
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.Type == COLON {
		e := errorf(ParseError, tok.Pos, "%q is an instruction name and cannot be used as a label", tok.Lexeme)
		e.Symbol = tok.Lexeme
		return nil, e
	}

	ops, err := p.parseOperands()
	if err != nil {
		return nil, err
	}
	kinds, err := operandKinds(ops)
	if err != nil {
		return nil, err
	}
	form, ok := isa.Match(mnemonic, kinds)
	if !ok {
		var want []string
		for _, f := range isa.Forms(mnemonic) {
			want = append(want, f.Signature())
		}
		got := (&isa.Form{Mnemonic: mnemonic, Operands: kinds}).Signature()
		e := errorf(ParseError, tok.Pos, "invalid operands for %s: got %q, expected %s", mnemonic, got, strings.Join(want, " | "))
		e.Symbol = mnemonic
		return nil, e
	}
	return &Instruction{Mnemonic: mnemonic, Operands: ops, Form: form, Position: tok.Pos}, nil
}

func (p *parser) parseDirective() (Statement, error) {
	tok := p.tok
	name := strings.ToUpper(tok.Lexeme)
	if err := p.advance(); err != nil {
		return nil, err
	}
	args, err := p.parseOperands()
	if err != nil {
		return nil, err
	}

	if name == ".PROC" {
		return p.openProc(tok, args)
	}
	kind, ok := directiveKinds[name]
	if !ok {
		e := errorf(ParseError, tok.Pos, "unknown directive %s", tok.Lexeme)
		e.Symbol = tok.Lexeme
		return nil, e
	}
	if err := checkDirectiveArgs(kind, tok.Pos, args); err != nil {
		return nil, err
	}
	if kind == DirEndProc {
		if p.proc == nil {
			return nil, errorf(ParseError, tok.Pos, ".ENDPROC without matching .PROC")
		}
		p.proc = nil
	}
	return &Directive{Kind: kind, Args: args, Position: tok.Pos}, nil
}

func (p *parser) openProc(tok Token, args []Operand) (Statement, error) {
	if len(args) != 1 {
		return nil, errorf(ParseError, tok.Pos, ".PROC expects one name, got %d operands", len(args))
	}
	ref, ok := args[0].(*LabelRef)
	if !ok {
		if r, isReg := args[0].(*Register); isReg {
			return nil, errorf(ParseError, r.Position, "%q is a register name and cannot be used as a label", r.String())
		}
		return nil, errorf(ParseError, args[0].Pos(), ".PROC expects a name, got %s", args[0])
	}
	if p.proc != nil {
		return nil, errorf(ParseError, tok.Pos, ".PROC %s nested inside .PROC %s", ref.Name, p.proc.Name)
	}
	def := &LabelDef{Name: ref.Name, Kind: SymProc, Position: ref.Position}
	p.proc = def
	return def, nil
}

func checkDirectiveArgs(kind DirectiveKind, pos Pos, args []Operand) error {
	switch kind {
	case DirOrg, DirSpace, DirAlign:
		if len(args) != 1 {
			return errorf(ParseError, pos, "%s expects one number, got %d operands", kind, len(args))
		}
		imm, ok := args[0].(*Immediate)
		if !ok {
			return errorf(ParseError, args[0].Pos(), "%s expects a number, got %s", kind, args[0])
		}
		if kind == DirAlign && (imm.Value <= 0 || imm.Value&(imm.Value-1) != 0) {
			return errorf(ParseError, imm.Position, ".ALIGN boundary %d is not a power of two", imm.Value)
		}

	case DirByte, DirWord:
		if len(args) == 0 {
			return errorf(ParseError, pos, "%s expects at least one value", kind)
		}
		for _, a := range args {
			switch a.(type) {
			case *Immediate, *LabelRef:
			case *StringLit:
				if kind == DirWord {
					return errorf(ParseError, a.Pos(), ".WORD does not take strings")
				}
			default:
				return errorf(ParseError, a.Pos(), "%s expects values, got %s", kind, a)
			}
		}

	case DirString, DirPString:
		if len(args) != 1 {
			return errorf(ParseError, pos, "%s expects exactly one string, got %d operands", kind, len(args))
		}
		if _, ok := args[0].(*StringLit); !ok {
			return errorf(ParseError, args[0].Pos(), "%s expects a string, got %s", kind, args[0])
		}

	case DirEndProc:
		if len(args) != 0 {
			return errorf(ParseError, args[0].Pos(), ".ENDPROC takes no operands")
		}
	}
	return nil
}
