package ir

import "strconv"

// ConstTag identifies the variant of a Constant.
type ConstTag uint8

const (
	ConstString ConstTag = iota + 1
	ConstInt
	ConstType
	ConstMethodType
	ConstMethodHandle
)

func (t ConstTag) String() string {
	switch t {
	case ConstString:
		return "string"
	case ConstInt:
		return "int"
	case ConstType:
		return "type"
	case ConstMethodType:
		return "method type"
	case ConstMethodHandle:
		return "method handle"
	default:
		return "ConstTag(" + strconv.Itoa(int(t)) + ")"
	}
}

// Constant is a symbolic constant usable as a bootstrap argument or pushed
// by a Const instruction. The variant set is closed.
type Constant interface {
	ConstTag() ConstTag
	String() string
}

// StringConst is a string literal.
type StringConst string

func (StringConst) ConstTag() ConstTag { return ConstString }
func (c StringConst) String() string  { return strconv.Quote(string(c)) }

// IntConst is an integer literal.
type IntConst int64

func (IntConst) ConstTag() ConstTag { return ConstInt }
func (c IntConst) String() string  { return strconv.FormatInt(int64(c), 10) }

// TypeConst is a type literal.
type TypeConst TypeDesc

func (TypeConst) ConstTag() ConstTag { return ConstType }
func (c TypeConst) String() string  { return string(c) }

func (MethodType) ConstTag() ConstTag   { return ConstMethodType }
func (MethodHandle) ConstTag() ConstTag { return ConstMethodHandle }
