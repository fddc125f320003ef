package codec

import (
	"github.com/roach88/pregen/internal/ir"
)

// Location addresses one instruction inside a record.
type Location struct {
	Method   int
	Position int
}

// CodeFunc is called once per instruction, in stream order. It returns the
// instruction to emit in its place and true, or false to keep the input.
type CodeFunc func(loc Location, m ir.Method, in ir.Instruction) (ir.Instruction, bool)

// TransformCode applies fn to every instruction of every method body and
// returns a new record. Methods without code are copied as they are. The
// record passed in is not modified. changed reports whether fn replaced any
// instruction.
func TransformCode(r *ir.Record, fn CodeFunc) (out *ir.Record, changed bool) {
	out = r.Clone()
	for mi, m := range out.Methods {
		for pi, in := range m.Code {
			repl, ok := fn(Location{Method: mi, Position: pi}, m, in)
			if !ok || repl == nil {
				continue
			}
			m.Code[pi] = repl
			changed = true
		}
		out.Methods[mi] = m
	}
	return out, changed
}

// FindAttribute parses content and returns the named attribute.
func FindAttribute(content []byte, name string) (ir.Attribute, bool, error) {
	r, err := Parse(content)
	if err != nil {
		return nil, false, err
	}
	a, ok := r.FindAttribute(name)
	return a, ok, nil
}
