package codec

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// FormatError reports malformed record bytes.
type FormatError struct {
	// Where names the message being decoded ("record", "method[2]", ...).
	Where string
	// Reason is a human-readable description.
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("codec: %s: %s", e.Where, e.Reason)
}

// decoder walks one protowire message.
type decoder struct {
	b     []byte
	where string
}

func newDecoder(b []byte, where string) *decoder {
	return &decoder{b: b, where: where}
}

func (d *decoder) fail(format string, args ...any) error {
	return &FormatError{Where: d.where, Reason: fmt.Sprintf(format, args...)}
}

func (d *decoder) more() bool {
	return len(d.b) > 0
}

func (d *decoder) tag() (protowire.Number, protowire.Type, error) {
	num, typ, n := protowire.ConsumeTag(d.b)
	if n < 0 {
		return 0, 0, d.fail("bad tag: %v", protowire.ParseError(n))
	}
	d.b = d.b[n:]
	return num, typ, nil
}

func (d *decoder) varint(num protowire.Number, typ protowire.Type) (uint64, error) {
	if typ != protowire.VarintType {
		return 0, d.fail("field %d: want varint, got wire type %d", num, typ)
	}
	v, n := protowire.ConsumeVarint(d.b)
	if n < 0 {
		return 0, d.fail("field %d: %v", num, protowire.ParseError(n))
	}
	d.b = d.b[n:]
	return v, nil
}

// enum reads a varint that must fit the uint8 enums of package ir.
func (d *decoder) enum(num protowire.Number, typ protowire.Type) (uint8, error) {
	v, err := d.varint(num, typ)
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint8 {
		return 0, d.fail("field %d: value %d out of range", num, v)
	}
	return uint8(v), nil
}

func (d *decoder) bytes(num protowire.Number, typ protowire.Type) ([]byte, error) {
	if typ != protowire.BytesType {
		return nil, d.fail("field %d: want bytes, got wire type %d", num, typ)
	}
	v, n := protowire.ConsumeBytes(d.b)
	if n < 0 {
		return nil, d.fail("field %d: %v", num, protowire.ParseError(n))
	}
	d.b = d.b[n:]
	return v, nil
}

func (d *decoder) string(num protowire.Number, typ protowire.Type) (string, error) {
	b, err := d.bytes(num, typ)
	return string(b), err
}

// skip discards a field this version does not know.
func (d *decoder) skip(num protowire.Number, typ protowire.Type) error {
	n := protowire.ConsumeFieldValue(num, typ, d.b)
	if n < 0 {
		return d.fail("field %d: %v", num, protowire.ParseError(n))
	}
	d.b = d.b[n:]
	return nil
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}
