package ir

import (
	"fmt"
	"strings"
)

// Opcode identifies an instruction kind.
type Opcode uint8

const (
	OpLoad Opcode = iota + 1
	OpStore
	OpConst
	OpNew
	OpDup
	OpGetField
	OpPutField
	OpInvoke
	OpInvokeDynamic
	OpReturn
)

var opcodeNames = map[Opcode]string{
	OpLoad:          "load",
	OpStore:         "store",
	OpConst:         "const",
	OpNew:           "new",
	OpDup:           "dup",
	OpGetField:      "getfield",
	OpPutField:      "putfield",
	OpInvoke:        "invoke",
	OpInvokeDynamic: "invokedynamic",
	OpReturn:        "return",
}

func (o Opcode) String() string {
	if n, ok := opcodeNames[o]; ok {
		return n
	}
	return fmt.Sprintf("Opcode(%d)", uint8(o))
}

// Instruction is one element of a method's instruction stream. The set of
// implementations is closed; use a Visitor or a type switch to dispatch.
type Instruction interface {
	Opcode() Opcode
	Accept(v Visitor)
	String() string
}

// Visitor has one method per instruction kind. Adding an instruction kind
// breaks every Visitor at compile time.
type Visitor interface {
	VisitLoad(Load)
	VisitStore(Store)
	VisitConst(Const)
	VisitNew(New)
	VisitDup(Dup)
	VisitFieldAccess(FieldAccess)
	VisitInvoke(Invoke)
	VisitInvokeDynamic(InvokeDynamic)
	VisitReturn(Return)
}

// Load pushes a local variable slot.
type Load struct {
	Slot int
	Type TypeDesc
}

// Store pops into a local variable slot.
type Store struct {
	Slot int
	Type TypeDesc
}

// Const pushes a constant.
type Const struct {
	Value Constant
}

// New allocates an uninitialized instance.
type New struct {
	Type TypeDesc
}

// Dup duplicates the top of the operand stack.
type Dup struct{}

// FieldAccess reads (Put false) or writes (Put true) a field.
type FieldAccess struct {
	Put    bool
	Static bool
	Owner  TypeDesc
	Name   string
	Type   TypeDesc
}

// InvokeKind is the dispatch kind of a direct call.
type InvokeKind uint8

const (
	InvokeStatic InvokeKind = iota + 1
	InvokeVirtual
	InvokeSpecial
	InvokeInterface
)

var invokeKindNames = map[InvokeKind]string{
	InvokeStatic:    "static",
	InvokeVirtual:   "virtual",
	InvokeSpecial:   "special",
	InvokeInterface: "interface",
}

func (k InvokeKind) String() string {
	if n, ok := invokeKindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("InvokeKind(%d)", uint8(k))
}

// ParseInvokeKind is the inverse of InvokeKind.String.
func ParseInvokeKind(s string) (InvokeKind, error) {
	for k, n := range invokeKindNames {
		if n == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown invoke kind %q", s)
}

// Invoke is a direct call.
type Invoke struct {
	Kind  InvokeKind
	Owner TypeDesc
	Name  string
	Type  MethodType
}

// InvokeDynamic is a call site linked at run time through a bootstrap.
type InvokeDynamic struct {
	Name      string
	Type      MethodType
	Bootstrap MethodHandle
	Args      []Constant
}

// Return leaves the method; Type is TypeVoid for a bare return.
type Return struct {
	Type TypeDesc
}

func (Load) Opcode() Opcode          { return OpLoad }
func (Store) Opcode() Opcode         { return OpStore }
func (Const) Opcode() Opcode         { return OpConst }
func (New) Opcode() Opcode           { return OpNew }
func (Dup) Opcode() Opcode           { return OpDup }
func (Invoke) Opcode() Opcode        { return OpInvoke }
func (InvokeDynamic) Opcode() Opcode { return OpInvokeDynamic }
func (Return) Opcode() Opcode        { return OpReturn }

func (f FieldAccess) Opcode() Opcode {
	if f.Put {
		return OpPutField
	}
	return OpGetField
}

func (i Load) Accept(v Visitor)          { v.VisitLoad(i) }
func (i Store) Accept(v Visitor)         { v.VisitStore(i) }
func (i Const) Accept(v Visitor)         { v.VisitConst(i) }
func (i New) Accept(v Visitor)           { v.VisitNew(i) }
func (i Dup) Accept(v Visitor)           { v.VisitDup(i) }
func (i FieldAccess) Accept(v Visitor)   { v.VisitFieldAccess(i) }
func (i Invoke) Accept(v Visitor)        { v.VisitInvoke(i) }
func (i InvokeDynamic) Accept(v Visitor) { v.VisitInvokeDynamic(i) }
func (i Return) Accept(v Visitor)        { v.VisitReturn(i) }

func (i Load) String() string  { return fmt.Sprintf("load %d %s", i.Slot, i.Type) }
func (i Store) String() string { return fmt.Sprintf("store %d %s", i.Slot, i.Type) }
func (i Const) String() string { return "const " + i.Value.String() }
func (i New) String() string   { return "new " + string(i.Type) }
func (Dup) String() string     { return "dup" }

func (i FieldAccess) String() string {
	s := fmt.Sprintf("%s %s.%s %s", i.Opcode(), i.Owner, i.Name, i.Type)
	if i.Static {
		s += " static"
	}
	return s
}

func (i Invoke) String() string {
	return fmt.Sprintf("invoke %s %s.%s%s", i.Kind, i.Owner, i.Name, i.Type)
}

func (i InvokeDynamic) String() string {
	args := make([]string, len(i.Args))
	for n, a := range i.Args {
		args[n] = a.String()
	}
	return fmt.Sprintf("invokedynamic %s%s bsm=%s [%s]", i.Name, i.Type, i.Bootstrap, strings.Join(args, ", "))
}

func (i Return) String() string {
	if i.Type == "" || i.Type == TypeVoid {
		return "return"
	}
	return "return " + string(i.Type)
}
