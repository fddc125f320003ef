package ir

import (
	"fmt"
	"strings"
)

// TypeDesc names a type by its internal name ("app/Widget"), a primitive
// ("int", "void") or an array of either ("[app/Widget").
type TypeDesc string

// Primitive type descriptors.
const (
	TypeVoid    TypeDesc = "void"
	TypeBoolean TypeDesc = "boolean"
	TypeByte    TypeDesc = "byte"
	TypeChar    TypeDesc = "char"
	TypeShort   TypeDesc = "short"
	TypeInt     TypeDesc = "int"
	TypeLong    TypeDesc = "long"
	TypeFloat   TypeDesc = "float"
	TypeDouble  TypeDesc = "double"

	// TypeObject is the root of the reference hierarchy.
	TypeObject TypeDesc = "lang/Object"
)

var primitives = map[TypeDesc]bool{
	TypeVoid:    true,
	TypeBoolean: true,
	TypeByte:    true,
	TypeChar:    true,
	TypeShort:   true,
	TypeInt:     true,
	TypeLong:    true,
	TypeFloat:   true,
	TypeDouble:  true,
}

// IsPrimitive reports whether t is a primitive or void.
func (t TypeDesc) IsPrimitive() bool {
	return primitives[t]
}

// IsReference reports whether t names a class, interface or array type.
func (t TypeDesc) IsReference() bool {
	return t != "" && !t.IsPrimitive()
}

// IsArray reports whether t is an array type.
func (t TypeDesc) IsArray() bool {
	return strings.HasPrefix(string(t), "[")
}

// PackageName returns the part of an internal name before the last slash.
func (t TypeDesc) PackageName() string {
	s := string(t)
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[:i]
	}
	return ""
}

// String implements fmt.Stringer.
func (t TypeDesc) String() string {
	return string(t)
}

// MethodType describes the parameter and return shape of an operation.
// Text form: "(int,app/Widget)app/Result".
type MethodType struct {
	Params []TypeDesc
	Return TypeDesc
}

// MethodOf builds a MethodType.
func MethodOf(ret TypeDesc, params ...TypeDesc) MethodType {
	return MethodType{Params: params, Return: ret}
}

// String formats the type in its text form.
func (m MethodType) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(p))
	}
	b.WriteByte(')')
	b.WriteString(string(m.Return))
	return b.String()
}

// Equal reports whether two method types have the same shape.
func (m MethodType) Equal(o MethodType) bool {
	if m.Return != o.Return || len(m.Params) != len(o.Params) {
		return false
	}
	for i := range m.Params {
		if m.Params[i] != o.Params[i] {
			return false
		}
	}
	return true
}

// DropFirst returns the type without its first n parameters.
func (m MethodType) DropFirst(n int) MethodType {
	if n > len(m.Params) {
		n = len(m.Params)
	}
	return MethodType{Params: append([]TypeDesc(nil), m.Params[n:]...), Return: m.Return}
}

// ParseMethodType parses the text form produced by MethodType.String.
func ParseMethodType(s string) (MethodType, error) {
	if !strings.HasPrefix(s, "(") {
		return MethodType{}, fmt.Errorf("method type %q: missing '('", s)
	}
	end := strings.IndexByte(s, ')')
	if end < 0 {
		return MethodType{}, fmt.Errorf("method type %q: missing ')'", s)
	}
	ret := TypeDesc(s[end+1:])
	if ret == "" {
		return MethodType{}, fmt.Errorf("method type %q: missing return type", s)
	}
	var params []TypeDesc
	if inner := s[1:end]; inner != "" {
		for _, p := range strings.Split(inner, ",") {
			if p == "" {
				return MethodType{}, fmt.Errorf("method type %q: empty parameter", s)
			}
			params = append(params, TypeDesc(p))
		}
	}
	return MethodType{Params: params, Return: ret}, nil
}

// MustParseMethodType is like ParseMethodType but panics on error.
// Use only in tests or with literal input.
func MustParseMethodType(s string) MethodType {
	mt, err := ParseMethodType(s)
	if err != nil {
		panic(err)
	}
	return mt
}

// HandleKind is the dispatch kind of a method handle.
type HandleKind uint8

const (
	HandleGetField HandleKind = iota + 1
	HandleGetStatic
	HandlePutField
	HandlePutStatic
	HandleVirtual
	HandleStatic
	HandleSpecial
	HandleConstructor
	HandleInterface
)

var handleKindNames = map[HandleKind]string{
	HandleGetField:    "getField",
	HandleGetStatic:   "getStatic",
	HandlePutField:    "putField",
	HandlePutStatic:   "putStatic",
	HandleVirtual:     "virtual",
	HandleStatic:      "static",
	HandleSpecial:     "special",
	HandleConstructor: "constructor",
	HandleInterface:   "interface",
}

func (k HandleKind) String() string {
	if n, ok := handleKindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("HandleKind(%d)", uint8(k))
}

// ParseHandleKind is the inverse of HandleKind.String.
func ParseHandleKind(s string) (HandleKind, error) {
	for k, n := range handleKindNames {
		if n == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown handle kind %q", s)
}

// IsField reports whether the handle reads or writes a field rather than
// invoking code.
func (k HandleKind) IsField() bool {
	return k >= HandleGetField && k <= HandlePutStatic
}

// HasReceiver reports whether invoking a handle of this kind takes the
// receiver as an implicit first argument.
func (k HandleKind) HasReceiver() bool {
	return k == HandleVirtual || k == HandleSpecial || k == HandleInterface
}

// MethodHandle is a symbolic reference to a method, constructor or field
// accessor. Text form: "static/app/Main::lambda$0(int)void".
type MethodHandle struct {
	Kind  HandleKind
	Owner TypeDesc
	Name  string
	Type  MethodType
}

func (h MethodHandle) String() string {
	return fmt.Sprintf("%s/%s::%s%s", h.Kind, h.Owner, h.Name, h.Type)
}

// ParseMethodHandle parses the text form produced by MethodHandle.String.
func ParseMethodHandle(s string) (MethodHandle, error) {
	slash := strings.IndexByte(s, '/')
	sep := strings.Index(s, "::")
	if slash < 0 || sep < slash {
		return MethodHandle{}, fmt.Errorf("method handle %q: want kind/Owner::name(P)R", s)
	}
	kind, err := ParseHandleKind(s[:slash])
	if err != nil {
		return MethodHandle{}, fmt.Errorf("method handle %q: %w", s, err)
	}
	rest := s[sep+2:]
	paren := strings.IndexByte(rest, '(')
	if paren < 0 {
		return MethodHandle{}, fmt.Errorf("method handle %q: missing type", s)
	}
	mt, err := ParseMethodType(rest[paren:])
	if err != nil {
		return MethodHandle{}, fmt.Errorf("method handle %q: %w", s, err)
	}
	return MethodHandle{
		Kind:  kind,
		Owner: TypeDesc(s[slash+1 : sep]),
		Name:  rest[:paren],
		Type:  mt,
	}, nil
}

// MustParseMethodHandle is like ParseMethodHandle but panics on error.
func MustParseMethodHandle(s string) MethodHandle {
	h, err := ParseMethodHandle(s)
	if err != nil {
		panic(err)
	}
	return h
}
