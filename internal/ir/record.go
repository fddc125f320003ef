package ir

import "slices"

// Kind classifies a record.
type Kind uint8

const (
	// KindClass is an ordinary record that may carry code.
	KindClass Kind = iota + 1
	// KindModule is a module descriptor; it never carries code.
	KindModule
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindModule:
		return "module"
	default:
		return "unknown"
	}
}

// AccessFlags is a bit set of access and property flags.
type AccessFlags uint16

const (
	AccPublic AccessFlags = 1 << iota
	AccPrivate
	AccProtected
	AccStatic
	AccFinal
	AccSynthetic
	AccInterface
	AccAbstract
)

// Has reports whether all bits in f2 are set.
func (f AccessFlags) Has(f2 AccessFlags) bool {
	return f&f2 == f2
}

// Field is a field declaration.
type Field struct {
	Name  string
	Type  TypeDesc
	Flags AccessFlags
}

// Method is one entry of a record's method table. Code is nil for methods
// without a body.
type Method struct {
	Name  string
	Type  MethodType
	Flags AccessFlags
	Code  []Instruction
}

// Signature returns the method's name+type key.
func (m Method) Signature() string {
	return m.Name + m.Type.String()
}

// Record is the typed view over one parsed binary record.
//
// A Record is treated as immutable once parsed: every transformation
// returns a new Record and leaves its input untouched.
type Record struct {
	Kind       Kind
	Name       TypeDesc
	Super      TypeDesc
	Interfaces []TypeDesc
	Flags      AccessFlags
	Fields     []Field
	Methods    []Method
	Attributes []Attribute
}

// FindAttribute returns the attribute with the given name.
func (r *Record) FindAttribute(name string) (Attribute, bool) {
	for _, a := range r.Attributes {
		if a.AttributeName() == name {
			return a, true
		}
	}
	return nil, false
}

// GroupHost returns the record's declared group host, if any.
func (r *Record) GroupHost() (GroupHost, bool) {
	a, ok := r.FindAttribute(AttrGroupHost)
	if !ok {
		return GroupHost{}, false
	}
	gh, ok := a.(GroupHost)
	return gh, ok
}

// GroupMembers returns the record's declared member list, if any.
func (r *Record) GroupMembers() (GroupMembers, bool) {
	a, ok := r.FindAttribute(AttrGroupMembers)
	if !ok {
		return GroupMembers{}, false
	}
	gm, ok := a.(GroupMembers)
	return gm, ok
}

// Method returns the method with the given name and type.
func (r *Record) Method(name string, mt MethodType) (Method, bool) {
	for _, m := range r.Methods {
		if m.Name == name && m.Type.Equal(mt) {
			return m, true
		}
	}
	return Method{}, false
}

// Clone returns a copy whose slices can be replaced without affecting r.
// Instructions and attributes are values and are shared.
func (r *Record) Clone() *Record {
	c := *r
	c.Interfaces = slices.Clone(r.Interfaces)
	c.Fields = slices.Clone(r.Fields)
	c.Methods = make([]Method, len(r.Methods))
	for i, m := range r.Methods {
		m.Code = slices.Clone(m.Code)
		c.Methods[i] = m
	}
	c.Attributes = slices.Clone(r.Attributes)
	return &c
}

// WithAttribute returns a copy of r in which any attribute named like a is
// dropped and a is appended at the end.
func (r *Record) WithAttribute(a Attribute) *Record {
	c := r.WithoutAttribute(a.AttributeName())
	c.Attributes = append(c.Attributes, a)
	return c
}

// WithoutAttribute returns a copy of r without the named attribute.
func (r *Record) WithoutAttribute(name string) *Record {
	c := r.Clone()
	c.Attributes = slices.DeleteFunc(c.Attributes, func(a Attribute) bool {
		return a.AttributeName() == name
	})
	return c
}
