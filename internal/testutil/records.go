package testutil

import (
	"testing"

	"github.com/roach88/pregen/internal/codec"
	"github.com/roach88/pregen/internal/ir"
	"github.com/roach88/pregen/internal/pool"
)

// FactoryOwner is the factory type the builders bind call sites to.
const FactoryOwner ir.TypeDesc = "invoke/LambdaMetafactory"

const (
	metafactoryType    = "(invoke/Lookup,lang/String,invoke/MethodType,invoke/MethodType,invoke/MethodHandle,invoke/MethodType)invoke/CallSite"
	altMetafactoryType = "(invoke/Lookup,lang/String,invoke/MethodType,[lang/Object)invoke/CallSite"
)

// RecordBuilder assembles records for tests.
type RecordBuilder struct {
	rec ir.Record
}

// Class starts a class record named name, extending lang/Object.
func Class(name ir.TypeDesc) *RecordBuilder {
	return &RecordBuilder{rec: ir.Record{Kind: ir.KindClass, Name: name, Super: ir.TypeObject}}
}

// ModuleInfo starts a module descriptor record.
func ModuleInfo() *RecordBuilder {
	return &RecordBuilder{rec: ir.Record{Kind: ir.KindModule, Name: pool.ModuleDescriptor}}
}

// Host declares a GroupHost attribute.
func (b *RecordBuilder) Host(host ir.TypeDesc) *RecordBuilder {
	return b.Attr(ir.GroupHost{Host: host})
}

// Members declares a GroupMembers attribute.
func (b *RecordBuilder) Members(members ...ir.TypeDesc) *RecordBuilder {
	return b.Attr(ir.GroupMembers{Members: members})
}

// Attr appends an attribute.
func (b *RecordBuilder) Attr(a ir.Attribute) *RecordBuilder {
	b.rec.Attributes = append(b.rec.Attributes, a)
	return b
}

// Implements appends interface names.
func (b *RecordBuilder) Implements(names ...ir.TypeDesc) *RecordBuilder {
	b.rec.Interfaces = append(b.rec.Interfaces, names...)
	return b
}

// Method appends a method; typ is in MethodType text form.
func (b *RecordBuilder) Method(name, typ string, code ...ir.Instruction) *RecordBuilder {
	b.rec.Methods = append(b.rec.Methods, ir.Method{
		Name: name,
		Type: ir.MustParseMethodType(typ),
		Code: code,
	})
	return b
}

// StaticMethod appends a private static method.
func (b *RecordBuilder) StaticMethod(name, typ string, code ...ir.Instruction) *RecordBuilder {
	b.Method(name, typ, code...)
	b.rec.Methods[len(b.rec.Methods)-1].Flags = ir.AccPrivate | ir.AccStatic
	return b
}

// Build returns a copy of the record.
func (b *RecordBuilder) Build() *ir.Record {
	r := b.rec
	return r.Clone()
}

// Encode returns the record's bytes, failing the test on error.
func (b *RecordBuilder) Encode(t testing.TB) []byte {
	t.Helper()
	content, err := codec.Encode(b.Build())
	if err != nil {
		t.Fatalf("encode %s: %v", b.rec.Name, err)
	}
	return content
}

// Entry returns the record as a pool entry in module.
func (b *RecordBuilder) Entry(t testing.TB, module string) pool.Entry {
	t.Helper()
	return pool.MustEntry(pool.RecordPath(module, b.rec.Name), b.Encode(t))
}

// Lambda returns a metafactory call site. iface, impl and dynamic are
// bootstrap arguments 0, 1 and 2 in text form; invoked is the call site's
// own type and name is the interface method name.
func Lambda(name, invoked, iface, impl, dynamic string) ir.InvokeDynamic {
	return ir.InvokeDynamic{
		Name: name,
		Type: ir.MustParseMethodType(invoked),
		Bootstrap: ir.MethodHandle{
			Kind:  ir.HandleStatic,
			Owner: FactoryOwner,
			Name:  "metafactory",
			Type:  ir.MustParseMethodType(metafactoryType),
		},
		Args: []ir.Constant{
			ir.MustParseMethodType(iface),
			ir.MustParseMethodHandle(impl),
			ir.MustParseMethodType(dynamic),
		},
	}
}

// AltLambda is like Lambda but bound to altMetafactory with a flags
// argument appended.
func AltLambda(name, invoked, iface, impl, dynamic string, flags int64) ir.InvokeDynamic {
	in := Lambda(name, invoked, iface, impl, dynamic)
	in.Bootstrap.Name = "altMetafactory"
	in.Bootstrap.Type = ir.MustParseMethodType(altMetafactoryType)
	in.Args = append(in.Args, ir.IntConst(flags))
	return in
}

// Supplier is a capturing-nothing call site producing fn/Supplier from a
// private static method owner::impl()lang/String.
func Supplier(owner ir.TypeDesc, impl string) ir.InvokeDynamic {
	return Lambda("get", "()fn/Supplier", "()lang/Object",
		"static/"+string(owner)+"::"+impl+"()lang/String", "()lang/String")
}

// Pool builds a pool from entries, failing the test on error.
func Pool(t testing.TB, entries ...pool.Entry) *pool.Pool {
	t.Helper()
	p, err := pool.New(entries...)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	return p
}

// MustParse decodes content, failing the test on error.
func MustParse(t testing.TB, content []byte) *ir.Record {
	t.Helper()
	r, err := codec.Parse(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return r
}
