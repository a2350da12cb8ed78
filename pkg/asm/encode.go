package asm

import (
	"fmt"

	"vmasm/pkg/isa"
)

// encode emits the binary for a resolved program. Each statement must
// start exactly at its pass-1 address and produce exactly its pass-1
// size; anything else is an InternalError.
func encode(prog []Resolved) ([]byte, error) {
	var out []byte
	if n := len(prog); n > 0 {
		last := prog[n-1]
		out = make([]byte, 0, last.Address+last.Size)
	}
	for _, r := range prog {
		if len(out) != r.Address {
			return nil, &InternalError{
				Pos: r.Stmt.Pos(),
				Msg: fmt.Sprintf("%s: emitted %d bytes before it, layout placed it at %d", r.Stmt, len(out), r.Address),
			}
		}
		start := len(out)
		var err error
		out, err = encodeStatement(out, r)
		if err != nil {
			return nil, err
		}
		if got := len(out) - start; got != r.Size {
			return nil, &InternalError{
				Pos: r.Stmt.Pos(),
				Msg: fmt.Sprintf("%s: encoded %d bytes, layout reserved %d", r.Stmt, got, r.Size),
			}
		}
	}
	return out, nil
}

func encodeStatement(out []byte, r Resolved) ([]byte, error) {
	switch st := r.Stmt.(type) {
	case *Instruction:
		vals := make([]uint16, len(r.Values))
		for i, v := range r.Values {
			vals[i] = uint16(v)
		}
		out, err := isa.Encode(out, st.Form, vals)
		if err != nil {
			return nil, &InternalError{Pos: st.Position, Msg: err.Error()}
		}
		return out, nil

	case *LabelDef:
		return out, nil

	case *Directive:
		switch st.Kind {
		case DirByte:
			for _, v := range r.Values {
				out = append(out, byte(v))
			}
		case DirWord:
			for _, v := range r.Values {
				out = isa.AppendWord(out, uint16(v))
			}
		case DirString:
			out = append(out, st.Args[0].(*StringLit).Value...)
			out = append(out, 0)
		case DirPString:
			s := []byte(st.Args[0].(*StringLit).Value)
			for i := 0; i < len(s); i += 2 {
				w := uint16(s[i])
				if i+1 < len(s) {
					w |= uint16(s[i+1]) << 8
				}
				out = isa.AppendWord(out, w)
			}
			out = isa.AppendWord(out, 0)
		case DirOrg, DirSpace, DirAlign:
			out = append(out, make([]byte, r.Size)...)
		case DirEndProc:
		}
		return out, nil
	}
	return nil, &InternalError{Pos: r.Stmt.Pos(), Msg: fmt.Sprintf("unknown statement %T", r.Stmt)}
}
