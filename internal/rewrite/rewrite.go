// Package rewrite replaces dynamic call sites with direct calls to the
// records generated for them.
package rewrite

import (
	"fmt"
	"slices"

	"github.com/roach88/pregen/internal/codec"
	"github.com/roach88/pregen/internal/ir"
)

// Replacement binds one call site to its generated record.
type Replacement struct {
	Location codec.Location
	// Target is the generated record.
	Target ir.TypeDesc
	// EntryMethod is the static operation on Target to call.
	EntryMethod string
}

// LocationError reports a replacement whose location does not hold a
// dynamic call site.
type LocationError struct {
	Record   ir.TypeDesc
	Location codec.Location
	Reason   string
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("rewrite %s: method %d position %d: %s",
		e.Record, e.Location.Method, e.Location.Position, e.Reason)
}

// Call returns the direct call that stands in for site. It takes the same
// arguments and produces the same result as the dynamic call.
func Call(site ir.InvokeDynamic, target ir.TypeDesc, entryMethod string) ir.Invoke {
	return ir.Invoke{
		Kind:  ir.InvokeStatic,
		Owner: target,
		Name:  entryMethod,
		Type: ir.MethodType{
			Params: slices.Clone(site.Type.Params),
			Return: site.Type.Return,
		},
	}
}

// Rewrite returns a copy of r with every replacement applied. Each
// replacement swaps exactly one instruction, so positions of all other
// instructions are unchanged. r is not modified.
func Rewrite(r *ir.Record, repls []Replacement) (*ir.Record, error) {
	if len(repls) == 0 {
		return r, nil
	}
	byLoc := make(map[codec.Location]Replacement, len(repls))
	for _, rp := range repls {
		if err := check(r, rp.Location); err != nil {
			return nil, err
		}
		if _, dup := byLoc[rp.Location]; dup {
			return nil, &LocationError{Record: r.Name, Location: rp.Location, Reason: "replaced twice"}
		}
		byLoc[rp.Location] = rp
	}

	out, _ := codec.TransformCode(r, func(loc codec.Location, _ ir.Method, in ir.Instruction) (ir.Instruction, bool) {
		rp, ok := byLoc[loc]
		if !ok {
			return nil, false
		}
		return Call(in.(ir.InvokeDynamic), rp.Target, rp.EntryMethod), true
	})
	return out, nil
}

func check(r *ir.Record, loc codec.Location) error {
	if loc.Method < 0 || loc.Method >= len(r.Methods) {
		return &LocationError{Record: r.Name, Location: loc, Reason: "no such method"}
	}
	code := r.Methods[loc.Method].Code
	if loc.Position < 0 || loc.Position >= len(code) {
		return &LocationError{Record: r.Name, Location: loc, Reason: "no such instruction"}
	}
	if _, ok := code[loc.Position].(ir.InvokeDynamic); !ok {
		return &LocationError{Record: r.Name, Location: loc, Reason: "not a dynamic call site: " + code[loc.Position].String()}
	}
	return nil
}
