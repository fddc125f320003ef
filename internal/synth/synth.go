package synth

import (
	"fmt"
	"slices"

	"github.com/roach88/pregen/internal/codec"
	"github.com/roach88/pregen/internal/ir"
)

// DefaultEntryMethod is the static operation every generated record exposes
// in place of the dynamic call site.
const DefaultEntryMethod = "create"

// ConstructorName is the method name of constructors.
const ConstructorName = "<init>"

// SerializableInterface is added to the interface list of serializable
// records.
const SerializableInterface ir.TypeDesc = "io/Serializable"

// Request is the declarative description of one record to synthesize.
type Request struct {
	// Name is the internal name of the record to produce.
	Name ir.TypeDesc
	// InterfaceMethodName is the single abstract method being implemented.
	InterfaceMethodName string
	// InterfaceMethodType is the method's shape as seen by callers.
	InterfaceMethodType ir.MethodType
	// DynamicMethodType is the shape enforced at invocation time; it may
	// differ from InterfaceMethodType under generic bridging.
	DynamicMethodType ir.MethodType
	// Target is the record that owns the call site.
	Target ir.TypeDesc
	// Interfaces are the capability interfaces the record implements.
	Interfaces []ir.TypeDesc
	// FactoryType is the call site's invoked type: captured values in,
	// capability instance out.
	FactoryType ir.MethodType
	// Serializable marks records produced through the variadic factory
	// form with the serializable flag.
	Serializable bool
	// AccidentallySerializable is carried for completeness; it adds no
	// members.
	AccidentallySerializable bool
	// Implementation is the code the interface method forwards to.
	Implementation ir.MethodHandle
	// AltMethodTypes are extra bridge shapes for the interface method.
	AltMethodTypes []ir.MethodType
	// EntryMethod names the static entry operation. Empty selects
	// DefaultEntryMethod.
	EntryMethod string
}

func (r Request) entryMethod() string {
	if r.EntryMethod == "" {
		return DefaultEntryMethod
	}
	return r.EntryMethod
}

// Synthesize produces the encoded bytes of a record implementing the
// request.
func Synthesize(req Request) ([]byte, error) {
	rec, err := Build(req)
	if err != nil {
		return nil, err
	}
	return codec.Encode(rec)
}

// Build produces the record described by req without encoding it.
func Build(req Request) (*ir.Record, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	captured := req.FactoryType.Params
	fields := make([]ir.Field, len(captured))
	for i, t := range captured {
		fields[i] = ir.Field{Name: fieldName(i), Type: t, Flags: ir.AccPrivate | ir.AccFinal}
	}

	interfaces := slices.Clone(req.Interfaces)
	if req.Serializable && !slices.Contains(interfaces, SerializableInterface) {
		interfaces = append(interfaces, SerializableInterface)
	}

	methods := []ir.Method{
		constructor(req.Name, fields),
		entry(req.Name, req.entryMethod(), req.FactoryType),
	}
	shapes := []ir.MethodType{req.InterfaceMethodType}
	for _, alt := range req.AltMethodTypes {
		if !slices.ContainsFunc(shapes, alt.Equal) {
			shapes = append(shapes, alt)
		}
	}
	for _, mt := range shapes {
		methods = append(methods, ir.Method{
			Name:  req.InterfaceMethodName,
			Type:  mt,
			Flags: ir.AccPublic,
			Code:  forward(req.Name, fields, mt, req.Implementation),
		})
	}

	return &ir.Record{
		Kind:       ir.KindClass,
		Name:       req.Name,
		Super:      ir.TypeObject,
		Interfaces: interfaces,
		Flags:      ir.AccFinal | ir.AccSynthetic,
		Fields:     fields,
		Methods:    methods,
	}, nil
}

func validate(req Request) error {
	switch {
	case req.Name == "":
		return newError(ReasonInvalidRequest, "record name is empty")
	case req.InterfaceMethodName == "":
		return newError(ReasonInvalidRequest, "interface method name is empty")
	case len(req.Interfaces) == 0:
		return newError(ReasonInvalidRequest, "no capability interface")
	case !req.FactoryType.Return.IsReference():
		return newError(ReasonInvalidRequest, "factory type %s does not return a reference", req.FactoryType)
	}

	impl := req.Implementation
	if _, err := invokeKind(impl.Kind); err != nil {
		return err
	}
	if impl.Owner == "" || impl.Name == "" {
		return newError(ReasonMalformedHandle, "%s", impl)
	}

	if len(req.InterfaceMethodType.Params) != len(req.DynamicMethodType.Params) {
		return newError(ReasonArityMismatch, "interface type %s and dynamic type %s",
			req.InterfaceMethodType, req.DynamicMethodType)
	}
	want := len(impl.Type.Params)
	if impl.Kind.HasReceiver() {
		want++
	}
	if got := len(req.FactoryType.Params) + len(req.DynamicMethodType.Params); got != want {
		return newError(ReasonArityMismatch, "%d captured + %d dynamic parameters, implementation %s takes %d",
			len(req.FactoryType.Params), len(req.DynamicMethodType.Params), impl, want)
	}
	return nil
}

func invokeKind(k ir.HandleKind) (ir.InvokeKind, error) {
	switch k {
	case ir.HandleStatic:
		return ir.InvokeStatic, nil
	case ir.HandleVirtual:
		return ir.InvokeVirtual, nil
	case ir.HandleInterface:
		return ir.InvokeInterface, nil
	case ir.HandleSpecial, ir.HandleConstructor:
		return ir.InvokeSpecial, nil
	default:
		return 0, newError(ReasonUnsupportedHandle, "%s", k)
	}
}

func fieldName(i int) string {
	return fmt.Sprintf("arg$%d", i+1)
}

func constructor(self ir.TypeDesc, fields []ir.Field) ir.Method {
	params := make([]ir.TypeDesc, len(fields))
	code := []ir.Instruction{
		ir.Load{Slot: 0, Type: self},
		ir.Invoke{Kind: ir.InvokeSpecial, Owner: ir.TypeObject, Name: ConstructorName, Type: ir.MethodOf(ir.TypeVoid)},
	}
	for i, f := range fields {
		params[i] = f.Type
		code = append(code,
			ir.Load{Slot: 0, Type: self},
			ir.Load{Slot: i + 1, Type: f.Type},
			ir.FieldAccess{Put: true, Owner: self, Name: f.Name, Type: f.Type},
		)
	}
	code = append(code, ir.Return{Type: ir.TypeVoid})
	return ir.Method{
		Name:  ConstructorName,
		Type:  ir.MethodOf(ir.TypeVoid, params...),
		Flags: ir.AccPrivate,
		Code:  code,
	}
}

// entry allocates an instance from the captured values. Its type is the
// call site's invoked type, so a direct call to it is call-compatible with
// the dynamic call site it replaces.
func entry(self ir.TypeDesc, name string, factory ir.MethodType) ir.Method {
	code := []ir.Instruction{ir.New{Type: self}, ir.Dup{}}
	for i, p := range factory.Params {
		code = append(code, ir.Load{Slot: i, Type: p})
	}
	code = append(code,
		ir.Invoke{Kind: ir.InvokeSpecial, Owner: self, Name: ConstructorName, Type: ir.MethodOf(ir.TypeVoid, factory.Params...)},
		ir.Return{Type: factory.Return},
	)
	return ir.Method{
		Name:  name,
		Type:  ir.MethodType{Params: slices.Clone(factory.Params), Return: factory.Return},
		Flags: ir.AccStatic,
		Code:  code,
	}
}

func forward(self ir.TypeDesc, fields []ir.Field, mt ir.MethodType, impl ir.MethodHandle) []ir.Instruction {
	kind, _ := invokeKind(impl.Kind) // checked by validate
	var code []ir.Instruction
	if impl.Kind == ir.HandleConstructor {
		code = append(code, ir.New{Type: impl.Owner}, ir.Dup{})
	}
	for _, f := range fields {
		code = append(code,
			ir.Load{Slot: 0, Type: self},
			ir.FieldAccess{Owner: self, Name: f.Name, Type: f.Type},
		)
	}
	for i, p := range mt.Params {
		code = append(code, ir.Load{Slot: i + 1, Type: p})
	}
	code = append(code,
		ir.Invoke{Kind: kind, Owner: impl.Owner, Name: impl.Name, Type: impl.Type},
		ir.Return{Type: mt.Return},
	)
	return code
}
