package scan

import (
	"iter"

	"github.com/roach88/pregen/internal/codec"
	"github.com/roach88/pregen/internal/ir"
)

// DefaultFactoryOwner is the well-known factory type whose bootstrap
// methods identify pregenerable call sites.
const DefaultFactoryOwner ir.TypeDesc = "invoke/LambdaMetafactory"

// Bootstrap method names of the factory.
const (
	MetafactoryName    = "metafactory"
	AltMetafactoryName = "altMetafactory"
)

// Variant distinguishes the two factory entry points.
type Variant int

const (
	// Standard is the fixed-arity metafactory form.
	Standard Variant = iota + 1
	// Alternate is the variadic altMetafactory form.
	Alternate
)

func (v Variant) String() string {
	switch v {
	case Standard:
		return MetafactoryName
	case Alternate:
		return AltMetafactoryName
	default:
		return "unknown"
	}
}

// CallSite is one recognized factory call site.
type CallSite struct {
	// Record is the name of the record holding the call site.
	Record ir.TypeDesc
	// Method is the owning method (name, type, flags); its code is not
	// retained.
	Method ir.Method
	// Location addresses the instruction within the record.
	Location codec.Location
	// Insn is the dynamic call-site instruction itself.
	Insn ir.InvokeDynamic
	// Variant is the factory entry point used.
	Variant Variant
	// Index is the discovery order of the site within its record,
	// starting at 0.
	Index int
}

// InvokedType is the call site's own invoked descriptor: captured
// arguments in, capability instance out.
func (c CallSite) InvokedType() ir.MethodType {
	return c.Insn.Type
}

// Capability is the interface the call site produces: the return type of
// its invoked descriptor.
func (c CallSite) Capability() ir.TypeDesc {
	return c.Insn.Type.Return
}

// Scanner finds factory call sites. The zero value is not usable; use New.
type Scanner struct {
	factory ir.TypeDesc
}

// New returns a scanner matching bootstrap methods on factory. An empty
// factory selects DefaultFactoryOwner.
func New(factory ir.TypeDesc) *Scanner {
	if factory == "" {
		factory = DefaultFactoryOwner
	}
	return &Scanner{factory: factory}
}

// Factory returns the factory owner the scanner matches.
func (s *Scanner) Factory() ir.TypeDesc {
	return s.factory
}

// Match classifies a dynamic call site. It reports false unless the
// bootstrap exactly matches {name in (metafactory, altMetafactory), owner
// = factory, kind = static}.
func (s *Scanner) Match(in ir.InvokeDynamic) (Variant, bool) {
	bsm := in.Bootstrap
	if bsm.Owner != s.factory || bsm.Kind != ir.HandleStatic {
		return 0, false
	}
	switch bsm.Name {
	case MetafactoryName:
		return Standard, true
	case AltMetafactoryName:
		return Alternate, true
	default:
		return 0, false
	}
}

// CallSites yields the recognized call sites of r in method order, then
// instruction order. The sequence is lazy and may be ranged over any
// number of times. Module descriptors and records without methods yield
// nothing. r is never modified.
func (s *Scanner) CallSites(r *ir.Record) iter.Seq[CallSite] {
	return func(yield func(CallSite) bool) {
		if r.Kind == ir.KindModule {
			return
		}
		n := 0
		for mi, m := range r.Methods {
			for pi, in := range m.Code {
				indy, ok := in.(ir.InvokeDynamic)
				if !ok {
					continue
				}
				variant, ok := s.Match(indy)
				if !ok {
					continue
				}
				site := CallSite{
					Record:   r.Name,
					Method:   ir.Method{Name: m.Name, Type: m.Type, Flags: m.Flags},
					Location: codec.Location{Method: mi, Position: pi},
					Insn:     indy,
					Variant:  variant,
					Index:    n,
				}
				n++
				if !yield(site) {
					return
				}
			}
		}
	}
}
