// Package codec reads and writes the binary record format.
//
// A record is the 4-byte Magic followed by one protobuf-wire message
// (google.golang.org/protobuf/encoding/protowire). Field order is fixed so
// encoding is deterministic; unknown fields are skipped on read.
//
// Record message:
//
//	1 kind        varint
//	2 name        string
//	3 super       string
//	4 interface   string (repeated)
//	5 flags       varint
//	6 field       message {1 name, 2 type, 3 flags}
//	7 method      message {1 name, 2 type, 3 flags, 4 code}
//	8 attribute   message {1 name, 2 payload}
//
// Code is a sequence of field-1 instruction messages, one per instruction.
package codec
