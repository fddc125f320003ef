package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/roach88/pregen/internal/ir"
)

// Magic prefixes every encoded record. The last byte is the format version.
var Magic = [4]byte{'P', 'G', 'R', ir.FormatVersion}

// Field numbers of the record message.
const (
	recKind      protowire.Number = 1
	recName      protowire.Number = 2
	recSuper     protowire.Number = 3
	recInterface protowire.Number = 4
	recFlags     protowire.Number = 5
	recField     protowire.Number = 6
	recMethod    protowire.Number = 7
	recAttribute protowire.Number = 8
)

// Field numbers shared by field, method and attribute messages.
const (
	memName  protowire.Number = 1
	memType  protowire.Number = 2
	memFlags protowire.Number = 3
	memCode  protowire.Number = 4

	attrName    protowire.Number = 1
	attrPayload protowire.Number = 2

	codeInsn protowire.Number = 1
)

// Field numbers of the instruction message.
const (
	insOp        protowire.Number = 1
	insSlot      protowire.Number = 2
	insType      protowire.Number = 3
	insConst     protowire.Number = 4
	insStatic    protowire.Number = 5
	insOwner     protowire.Number = 6
	insName      protowire.Number = 7
	insKind      protowire.Number = 8
	insMethod    protowire.Number = 9
	insBootstrap protowire.Number = 10
)

// Field numbers of constant and handle messages.
const (
	constTag    protowire.Number = 1
	constText   protowire.Number = 2
	constInt    protowire.Number = 3
	constHandle protowire.Number = 4

	handleKind  protowire.Number = 1
	handleOwner protowire.Number = 2
	handleName  protowire.Number = 3
	handleType  protowire.Number = 4
)

// Encode serializes a record. The output is deterministic: equal records
// encode to equal bytes.
func Encode(r *ir.Record) ([]byte, error) {
	if r.Name == "" {
		return nil, fmt.Errorf("encode: record has no name")
	}

	b := append([]byte(nil), Magic[:]...)
	b = appendVarint(b, recKind, uint64(r.Kind))
	b = appendString(b, recName, string(r.Name))
	if r.Super != "" {
		b = appendString(b, recSuper, string(r.Super))
	}
	for _, t := range r.Interfaces {
		b = appendString(b, recInterface, string(t))
	}
	if r.Flags != 0 {
		b = appendVarint(b, recFlags, uint64(r.Flags))
	}
	for _, f := range r.Fields {
		var fb []byte
		fb = appendString(fb, memName, f.Name)
		fb = appendString(fb, memType, string(f.Type))
		fb = appendVarint(fb, memFlags, uint64(f.Flags))
		b = appendBytes(b, recField, fb)
	}
	for i, m := range r.Methods {
		mb, err := encodeMethod(m)
		if err != nil {
			return nil, fmt.Errorf("encode %s: method[%d] %s: %w", r.Name, i, m.Signature(), err)
		}
		b = appendBytes(b, recMethod, mb)
	}
	for _, a := range r.Attributes {
		var ab []byte
		ab = appendString(ab, attrName, a.AttributeName())
		ab = appendBytes(ab, attrPayload, encodeAttributePayload(a))
		b = appendBytes(b, recAttribute, ab)
	}
	return b, nil
}

func encodeMethod(m ir.Method) ([]byte, error) {
	var b []byte
	b = appendString(b, memName, m.Name)
	b = appendString(b, memType, m.Type.String())
	b = appendVarint(b, memFlags, uint64(m.Flags))
	if m.Code == nil {
		return b, nil
	}
	code, err := EncodeCode(m.Code)
	if err != nil {
		return nil, err
	}
	return appendBytes(b, memCode, code), nil
}

// EncodeCode serializes an instruction stream.
func EncodeCode(code []ir.Instruction) ([]byte, error) {
	enc := &insnEncoder{}
	out := []byte{}
	for i, in := range code {
		enc.b = nil
		in.Accept(enc)
		if enc.err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, enc.err)
		}
		out = appendBytes(out, codeInsn, enc.b)
	}
	return out, nil
}

// insnEncoder is the Visitor that writes one instruction message.
type insnEncoder struct {
	b   []byte
	err error
}

func (e *insnEncoder) op(o ir.Opcode) {
	e.b = appendVarint(e.b, insOp, uint64(o))
}

func (e *insnEncoder) VisitLoad(i ir.Load) {
	e.op(ir.OpLoad)
	e.b = appendVarint(e.b, insSlot, uint64(i.Slot))
	e.b = appendString(e.b, insType, string(i.Type))
}

func (e *insnEncoder) VisitStore(i ir.Store) {
	e.op(ir.OpStore)
	e.b = appendVarint(e.b, insSlot, uint64(i.Slot))
	e.b = appendString(e.b, insType, string(i.Type))
}

func (e *insnEncoder) VisitConst(i ir.Const) {
	e.op(ir.OpConst)
	cb, err := encodeConstant(i.Value)
	if err != nil {
		e.err = err
		return
	}
	e.b = appendBytes(e.b, insConst, cb)
}

func (e *insnEncoder) VisitNew(i ir.New) {
	e.op(ir.OpNew)
	e.b = appendString(e.b, insType, string(i.Type))
}

func (e *insnEncoder) VisitDup(ir.Dup) {
	e.op(ir.OpDup)
}

func (e *insnEncoder) VisitFieldAccess(i ir.FieldAccess) {
	e.op(i.Opcode())
	if i.Static {
		e.b = appendVarint(e.b, insStatic, 1)
	}
	e.b = appendString(e.b, insOwner, string(i.Owner))
	e.b = appendString(e.b, insName, i.Name)
	e.b = appendString(e.b, insType, string(i.Type))
}

func (e *insnEncoder) VisitInvoke(i ir.Invoke) {
	e.op(ir.OpInvoke)
	e.b = appendVarint(e.b, insKind, uint64(i.Kind))
	e.b = appendString(e.b, insOwner, string(i.Owner))
	e.b = appendString(e.b, insName, i.Name)
	e.b = appendString(e.b, insMethod, i.Type.String())
}

func (e *insnEncoder) VisitInvokeDynamic(i ir.InvokeDynamic) {
	e.op(ir.OpInvokeDynamic)
	e.b = appendString(e.b, insName, i.Name)
	e.b = appendString(e.b, insMethod, i.Type.String())
	e.b = appendBytes(e.b, insBootstrap, encodeHandle(i.Bootstrap))
	for _, c := range i.Args {
		cb, err := encodeConstant(c)
		if err != nil {
			e.err = err
			return
		}
		e.b = appendBytes(e.b, insConst, cb)
	}
}

func (e *insnEncoder) VisitReturn(i ir.Return) {
	e.op(ir.OpReturn)
	t := i.Type
	if t == "" {
		t = ir.TypeVoid
	}
	e.b = appendString(e.b, insType, string(t))
}

func encodeHandle(h ir.MethodHandle) []byte {
	var b []byte
	b = appendVarint(b, handleKind, uint64(h.Kind))
	b = appendString(b, handleOwner, string(h.Owner))
	b = appendString(b, handleName, h.Name)
	return appendString(b, handleType, h.Type.String())
}

func encodeConstant(c ir.Constant) ([]byte, error) {
	var b []byte
	b = appendVarint(b, constTag, uint64(c.ConstTag()))
	switch v := c.(type) {
	case ir.StringConst:
		b = appendString(b, constText, string(v))
	case ir.IntConst:
		b = appendVarint(b, constInt, protowire.EncodeZigZag(int64(v)))
	case ir.TypeConst:
		b = appendString(b, constText, string(v))
	case ir.MethodType:
		b = appendString(b, constText, v.String())
	case ir.MethodHandle:
		b = appendBytes(b, constHandle, encodeHandle(v))
	default:
		return nil, fmt.Errorf("unsupported constant %T", c)
	}
	return b, nil
}

func encodeAttributePayload(a ir.Attribute) []byte {
	var b []byte
	switch v := a.(type) {
	case ir.GroupHost:
		b = appendString(b, 1, string(v.Host))
	case ir.GroupMembers:
		for _, m := range v.Members {
			b = appendString(b, 1, string(m))
		}
	case ir.SourceFile:
		b = appendString(b, 1, v.Name)
	case ir.UnknownAttribute:
		b = append(b, v.Data...)
	}
	return b
}
