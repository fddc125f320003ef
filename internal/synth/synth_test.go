package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pregen/internal/codec"
	"github.com/roach88/pregen/internal/ir"
)

func supplierRequest() Request {
	return Request{
		Name:                "app/Main$$Lambda$0",
		InterfaceMethodName: "get",
		InterfaceMethodType: ir.MustParseMethodType("()lang/Object"),
		DynamicMethodType:   ir.MustParseMethodType("()lang/String"),
		Target:              "app/Main",
		Interfaces:          []ir.TypeDesc{"fn/Supplier"},
		FactoryType:         ir.MustParseMethodType("()fn/Supplier"),
		Implementation:      ir.MustParseMethodHandle("static/app/Main::lambda$main$0()lang/String"),
	}
}

func TestBuild_NoCapture(t *testing.T) {
	rec, err := Build(supplierRequest())
	require.NoError(t, err)

	assert.Equal(t, ir.TypeDesc("app/Main$$Lambda$0"), rec.Name)
	assert.Equal(t, []ir.TypeDesc{"fn/Supplier"}, rec.Interfaces)
	assert.True(t, rec.Flags.Has(ir.AccSynthetic|ir.AccFinal))
	assert.Empty(t, rec.Fields)

	create, ok := rec.Method(DefaultEntryMethod, ir.MustParseMethodType("()fn/Supplier"))
	require.True(t, ok, "entry method missing")
	assert.True(t, create.Flags.Has(ir.AccStatic))
	assert.Equal(t, ir.Return{Type: "fn/Supplier"}, create.Code[len(create.Code)-1])

	get, ok := rec.Method("get", ir.MustParseMethodType("()lang/Object"))
	require.True(t, ok, "interface method missing")
	assert.Equal(t, []ir.Instruction{
		ir.Invoke{Kind: ir.InvokeStatic, Owner: "app/Main", Name: "lambda$main$0", Type: ir.MustParseMethodType("()lang/String")},
		ir.Return{Type: "lang/Object"},
	}, get.Code)
}

func TestBuild_CapturedReceiver(t *testing.T) {
	req := supplierRequest()
	req.FactoryType = ir.MustParseMethodType("(app/Main,int)fn/Supplier")
	req.Implementation = ir.MustParseMethodHandle("special/app/Main::lambda$run$1(int)lang/String")

	rec, err := Build(req)
	require.NoError(t, err)

	require.Len(t, rec.Fields, 2)
	assert.Equal(t, "arg$1", rec.Fields[0].Name)
	assert.Equal(t, ir.TypeDesc("int"), rec.Fields[1].Type)

	ctor, ok := rec.Method(ConstructorName, ir.MustParseMethodType("(app/Main,int)void"))
	require.True(t, ok)
	assert.Equal(t, ir.Return{Type: ir.TypeVoid}, ctor.Code[len(ctor.Code)-1])

	get, ok := rec.Method("get", req.InterfaceMethodType)
	require.True(t, ok)
	assert.Contains(t, get.Code, ir.Instruction(ir.Invoke{
		Kind:  ir.InvokeSpecial,
		Owner: "app/Main",
		Name:  "lambda$run$1",
		Type:  ir.MustParseMethodType("(int)lang/String"),
	}))
}

func TestBuild_SerializableAndBridges(t *testing.T) {
	req := supplierRequest()
	req.Serializable = true
	req.AltMethodTypes = []ir.MethodType{
		ir.MustParseMethodType("()lang/String"),
		ir.MustParseMethodType("()lang/Object"), // same as the interface type
	}

	rec, err := Build(req)
	require.NoError(t, err)

	assert.Equal(t, []ir.TypeDesc{"fn/Supplier", SerializableInterface}, rec.Interfaces)
	var gets int
	for _, m := range rec.Methods {
		if m.Name == "get" {
			gets++
		}
	}
	assert.Equal(t, 2, gets)
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		reason Reason
	}{
		{
			name:   "field handle",
			mutate: func(r *Request) { r.Implementation.Kind = ir.HandleGetField },
			reason: ReasonUnsupportedHandle,
		},
		{
			name:   "empty owner",
			mutate: func(r *Request) { r.Implementation.Owner = "" },
			reason: ReasonMalformedHandle,
		},
		{
			name:   "empty method name",
			mutate: func(r *Request) { r.Implementation.Name = "" },
			reason: ReasonMalformedHandle,
		},
		{
			name:   "too few implementation parameters",
			mutate: func(r *Request) { r.FactoryType = ir.MustParseMethodType("(int)fn/Supplier") },
			reason: ReasonArityMismatch,
		},
		{
			name:   "primitive capability",
			mutate: func(r *Request) { r.FactoryType = ir.MustParseMethodType("()int") },
			reason: ReasonInvalidRequest,
		},
		{
			name:   "no interfaces",
			mutate: func(r *Request) { r.Interfaces = nil },
			reason: ReasonInvalidRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := supplierRequest()
			tt.mutate(&req)

			_, err := Synthesize(req)
			require.Error(t, err)
			var se *SynthesisError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.reason, se.Reason)
			assert.True(t, IsSynthesisError(err))
		})
	}
}

func TestSynthesize_Parses(t *testing.T) {
	req := supplierRequest()
	req.EntryMethod = "thunk"

	content, err := Synthesize(req)
	require.NoError(t, err)

	rec, err := codec.Parse(content)
	require.NoError(t, err)
	_, ok := rec.Method("thunk", req.FactoryType)
	assert.True(t, ok)
}
