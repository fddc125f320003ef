package codec

import (
	"bytes"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/roach88/pregen/internal/ir"
)

// Parse decodes record bytes into the typed view.
func Parse(content []byte) (*ir.Record, error) {
	if len(content) < len(Magic) || !bytes.Equal(content[:len(Magic)], Magic[:]) {
		return nil, &FormatError{Where: "record", Reason: "bad magic"}
	}
	d := newDecoder(content[len(Magic):], "record")
	r := &ir.Record{}
	for d.more() {
		num, typ, err := d.tag()
		if err != nil {
			return nil, err
		}
		switch num {
		case recKind:
			k, err := d.kind(num, typ)
			if err != nil {
				return nil, err
			}
			r.Kind = k
		case recName:
			s, err := d.string(num, typ)
			if err != nil {
				return nil, err
			}
			r.Name = ir.TypeDesc(s)
		case recSuper:
			s, err := d.string(num, typ)
			if err != nil {
				return nil, err
			}
			r.Super = ir.TypeDesc(s)
		case recInterface:
			s, err := d.string(num, typ)
			if err != nil {
				return nil, err
			}
			r.Interfaces = append(r.Interfaces, ir.TypeDesc(s))
		case recFlags:
			fl, err := d.flags(num, typ)
			if err != nil {
				return nil, err
			}
			r.Flags = fl
		case recField:
			b, err := d.bytes(num, typ)
			if err != nil {
				return nil, err
			}
			f, err := decodeField(b, fmt.Sprintf("field[%d]", len(r.Fields)))
			if err != nil {
				return nil, err
			}
			r.Fields = append(r.Fields, f)
		case recMethod:
			b, err := d.bytes(num, typ)
			if err != nil {
				return nil, err
			}
			m, err := decodeMethod(b, fmt.Sprintf("method[%d]", len(r.Methods)))
			if err != nil {
				return nil, err
			}
			r.Methods = append(r.Methods, m)
		case recAttribute:
			b, err := d.bytes(num, typ)
			if err != nil {
				return nil, err
			}
			a, err := decodeAttribute(b, fmt.Sprintf("attribute[%d]", len(r.Attributes)))
			if err != nil {
				return nil, err
			}
			if _, dup := r.FindAttribute(a.AttributeName()); dup {
				return nil, d.fail("duplicate attribute %q", a.AttributeName())
			}
			r.Attributes = append(r.Attributes, a)
		default:
			if err := d.skip(num, typ); err != nil {
				return nil, err
			}
		}
	}
	if r.Name == "" {
		return nil, d.fail("missing name")
	}
	if r.Kind != ir.KindClass && r.Kind != ir.KindModule {
		return nil, d.fail("unknown kind %d", r.Kind)
	}
	return r, nil
}

func (d *decoder) flags(num protowire.Number, typ protowire.Type) (ir.AccessFlags, error) {
	v, err := d.varint(num, typ)
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint16 {
		return 0, d.fail("field %d: flags %#x out of range", num, v)
	}
	return ir.AccessFlags(v), nil
}

func (d *decoder) kind(num protowire.Number, typ protowire.Type) (ir.Kind, error) {
	v, err := d.varint(num, typ)
	if err != nil {
		return 0, err
	}
	if v != uint64(ir.KindClass) && v != uint64(ir.KindModule) {
		return 0, d.fail("unknown kind %d", v)
	}
	return ir.Kind(v), nil
}

// Peek returns the record kind and name without decoding members.
func Peek(content []byte) (ir.Kind, ir.TypeDesc, error) {
	if len(content) < len(Magic) || !bytes.Equal(content[:len(Magic)], Magic[:]) {
		return 0, "", &FormatError{Where: "record", Reason: "bad magic"}
	}
	d := newDecoder(content[len(Magic):], "record")
	var kind ir.Kind
	var name ir.TypeDesc
	for d.more() && (kind == 0 || name == "") {
		num, typ, err := d.tag()
		if err != nil {
			return 0, "", err
		}
		switch num {
		case recKind:
			k, err := d.kind(num, typ)
			if err != nil {
				return 0, "", err
			}
			kind = k
		case recName:
			s, err := d.string(num, typ)
			if err != nil {
				return 0, "", err
			}
			name = ir.TypeDesc(s)
		default:
			if err := d.skip(num, typ); err != nil {
				return 0, "", err
			}
		}
	}
	if name == "" {
		return 0, "", d.fail("missing name")
	}
	return kind, name, nil
}

func decodeField(b []byte, where string) (ir.Field, error) {
	d := newDecoder(b, where)
	var f ir.Field
	for d.more() {
		num, typ, err := d.tag()
		if err != nil {
			return f, err
		}
		switch num {
		case memName:
			f.Name, err = d.string(num, typ)
		case memType:
			var s string
			s, err = d.string(num, typ)
			f.Type = ir.TypeDesc(s)
		case memFlags:
			f.Flags, err = d.flags(num, typ)
		default:
			err = d.skip(num, typ)
		}
		if err != nil {
			return f, err
		}
	}
	return f, nil
}

func decodeMethod(b []byte, where string) (ir.Method, error) {
	d := newDecoder(b, where)
	var m ir.Method
	for d.more() {
		num, typ, err := d.tag()
		if err != nil {
			return m, err
		}
		switch num {
		case memName:
			m.Name, err = d.string(num, typ)
		case memType:
			var s string
			if s, err = d.string(num, typ); err == nil {
				m.Type, err = ir.ParseMethodType(s)
				if err != nil {
					err = d.fail("%v", err)
				}
			}
		case memFlags:
			m.Flags, err = d.flags(num, typ)
		case memCode:
			var cb []byte
			if cb, err = d.bytes(num, typ); err == nil {
				m.Code, err = DecodeCode(cb, where)
			}
		default:
			err = d.skip(num, typ)
		}
		if err != nil {
			return m, err
		}
	}
	if m.Name == "" {
		return m, d.fail("missing name")
	}
	return m, nil
}

// DecodeCode decodes an instruction stream produced by EncodeCode.
func DecodeCode(b []byte, where string) ([]ir.Instruction, error) {
	d := newDecoder(b, where+".code")
	code := []ir.Instruction{}
	for d.more() {
		num, typ, err := d.tag()
		if err != nil {
			return nil, err
		}
		if num != codeInsn {
			if err := d.skip(num, typ); err != nil {
				return nil, err
			}
			continue
		}
		ib, err := d.bytes(num, typ)
		if err != nil {
			return nil, err
		}
		in, err := decodeInstruction(ib, fmt.Sprintf("%s.code[%d]", where, len(code)))
		if err != nil {
			return nil, err
		}
		code = append(code, in)
	}
	return code, nil
}

// insnFields collects the raw operands of one instruction message.
type insnFields struct {
	op        ir.Opcode
	slot      int
	typ       string
	static    bool
	owner     string
	name      string
	kind      uint8
	method    string
	bootstrap []byte
	consts    [][]byte
}

func decodeInstruction(b []byte, where string) (ir.Instruction, error) {
	d := newDecoder(b, where)
	var f insnFields
	for d.more() {
		num, typ, err := d.tag()
		if err != nil {
			return nil, err
		}
		var v uint64
		switch num {
		case insOp:
			var op uint8
			op, err = d.enum(num, typ)
			f.op = ir.Opcode(op)
		case insSlot:
			v, err = d.varint(num, typ)
			f.slot = int(v)
		case insType:
			f.typ, err = d.string(num, typ)
		case insConst:
			var cb []byte
			cb, err = d.bytes(num, typ)
			f.consts = append(f.consts, cb)
		case insStatic:
			v, err = d.varint(num, typ)
			f.static = v != 0
		case insOwner:
			f.owner, err = d.string(num, typ)
		case insName:
			f.name, err = d.string(num, typ)
		case insKind:
			f.kind, err = d.enum(num, typ)
		case insMethod:
			f.method, err = d.string(num, typ)
		case insBootstrap:
			f.bootstrap, err = d.bytes(num, typ)
		default:
			err = d.skip(num, typ)
		}
		if err != nil {
			return nil, err
		}
	}
	return f.build(d)
}

func (f insnFields) build(d *decoder) (ir.Instruction, error) {
	switch f.op {
	case ir.OpLoad:
		return ir.Load{Slot: f.slot, Type: ir.TypeDesc(f.typ)}, nil
	case ir.OpStore:
		return ir.Store{Slot: f.slot, Type: ir.TypeDesc(f.typ)}, nil
	case ir.OpConst:
		if len(f.consts) != 1 {
			return nil, d.fail("const: want 1 constant, got %d", len(f.consts))
		}
		c, err := decodeConstant(f.consts[0], d.where)
		if err != nil {
			return nil, err
		}
		return ir.Const{Value: c}, nil
	case ir.OpNew:
		return ir.New{Type: ir.TypeDesc(f.typ)}, nil
	case ir.OpDup:
		return ir.Dup{}, nil
	case ir.OpGetField, ir.OpPutField:
		return ir.FieldAccess{
			Put:    f.op == ir.OpPutField,
			Static: f.static,
			Owner:  ir.TypeDesc(f.owner),
			Name:   f.name,
			Type:   ir.TypeDesc(f.typ),
		}, nil
	case ir.OpInvoke:
		mt, err := ir.ParseMethodType(f.method)
		if err != nil {
			return nil, d.fail("invoke: %v", err)
		}
		return ir.Invoke{Kind: ir.InvokeKind(f.kind), Owner: ir.TypeDesc(f.owner), Name: f.name, Type: mt}, nil
	case ir.OpInvokeDynamic:
		mt, err := ir.ParseMethodType(f.method)
		if err != nil {
			return nil, d.fail("invokedynamic: %v", err)
		}
		bsm, err := decodeHandle(f.bootstrap, d.where+".bootstrap")
		if err != nil {
			return nil, err
		}
		args := make([]ir.Constant, 0, len(f.consts))
		for i, cb := range f.consts {
			c, err := decodeConstant(cb, fmt.Sprintf("%s.arg[%d]", d.where, i))
			if err != nil {
				return nil, err
			}
			args = append(args, c)
		}
		return ir.InvokeDynamic{Name: f.name, Type: mt, Bootstrap: bsm, Args: args}, nil
	case ir.OpReturn:
		return ir.Return{Type: ir.TypeDesc(f.typ)}, nil
	default:
		return nil, d.fail("unknown opcode %d", f.op)
	}
}

func decodeHandle(b []byte, where string) (ir.MethodHandle, error) {
	d := newDecoder(b, where)
	var h ir.MethodHandle
	for d.more() {
		num, typ, err := d.tag()
		if err != nil {
			return h, err
		}
		switch num {
		case handleKind:
			var v uint8
			v, err = d.enum(num, typ)
			h.Kind = ir.HandleKind(v)
		case handleOwner:
			var s string
			s, err = d.string(num, typ)
			h.Owner = ir.TypeDesc(s)
		case handleName:
			h.Name, err = d.string(num, typ)
		case handleType:
			var s string
			if s, err = d.string(num, typ); err == nil {
				h.Type, err = ir.ParseMethodType(s)
				if err != nil {
					err = d.fail("%v", err)
				}
			}
		default:
			err = d.skip(num, typ)
		}
		if err != nil {
			return h, err
		}
	}
	return h, nil
}

func decodeConstant(b []byte, where string) (ir.Constant, error) {
	d := newDecoder(b, where)
	var (
		tag    ir.ConstTag
		text   string
		ival   int64
		handle []byte
	)
	for d.more() {
		num, typ, err := d.tag()
		if err != nil {
			return nil, err
		}
		var v uint64
		switch num {
		case constTag:
			var t uint8
			t, err = d.enum(num, typ)
			tag = ir.ConstTag(t)
		case constText:
			text, err = d.string(num, typ)
		case constInt:
			v, err = d.varint(num, typ)
			ival = protowire.DecodeZigZag(v)
		case constHandle:
			handle, err = d.bytes(num, typ)
		default:
			err = d.skip(num, typ)
		}
		if err != nil {
			return nil, err
		}
	}
	switch tag {
	case ir.ConstString:
		return ir.StringConst(text), nil
	case ir.ConstInt:
		return ir.IntConst(ival), nil
	case ir.ConstType:
		return ir.TypeConst(text), nil
	case ir.ConstMethodType:
		mt, err := ir.ParseMethodType(text)
		if err != nil {
			return nil, d.fail("%v", err)
		}
		return mt, nil
	case ir.ConstMethodHandle:
		h, err := decodeHandle(handle, where+".handle")
		if err != nil {
			return nil, err
		}
		return h, nil
	default:
		return nil, d.fail("unknown constant tag %d", tag)
	}
}

func decodeAttribute(b []byte, where string) (ir.Attribute, error) {
	d := newDecoder(b, where)
	var (
		name    string
		payload []byte
	)
	for d.more() {
		num, typ, err := d.tag()
		if err != nil {
			return nil, err
		}
		switch num {
		case attrName:
			name, err = d.string(num, typ)
		case attrPayload:
			payload, err = d.bytes(num, typ)
		default:
			err = d.skip(num, typ)
		}
		if err != nil {
			return nil, err
		}
	}
	if name == "" {
		return nil, d.fail("missing name")
	}

	switch name {
	case ir.AttrGroupHost, ir.AttrSourceFile:
		vals, err := repeatedStrings(payload, where+"."+name)
		if err != nil {
			return nil, err
		}
		if len(vals) != 1 {
			return nil, d.fail("%s: want 1 value, got %d", name, len(vals))
		}
		if name == ir.AttrGroupHost {
			return ir.GroupHost{Host: ir.TypeDesc(vals[0])}, nil
		}
		return ir.SourceFile{Name: vals[0]}, nil
	case ir.AttrGroupMembers:
		vals, err := repeatedStrings(payload, where+"."+name)
		if err != nil {
			return nil, err
		}
		members := make([]ir.TypeDesc, len(vals))
		for i, v := range vals {
			members[i] = ir.TypeDesc(v)
		}
		return ir.GroupMembers{Members: members}, nil
	default:
		return ir.UnknownAttribute{Name: name, Data: append([]byte(nil), payload...)}, nil
	}
}

// repeatedStrings decodes a payload made only of field-1 strings.
func repeatedStrings(b []byte, where string) ([]string, error) {
	d := newDecoder(b, where)
	var out []string
	for d.more() {
		num, typ, err := d.tag()
		if err != nil {
			return nil, err
		}
		if num != 1 {
			return nil, d.fail("unexpected field %d", num)
		}
		s, err := d.string(num, typ)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
