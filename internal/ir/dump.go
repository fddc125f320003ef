package ir

import (
	"encoding/hex"
	"fmt"
	"strings"
)

var flagNames = []struct {
	flag AccessFlags
	name string
}{
	{AccPublic, "public"},
	{AccPrivate, "private"},
	{AccProtected, "protected"},
	{AccStatic, "static"},
	{AccFinal, "final"},
	{AccSynthetic, "synthetic"},
	{AccInterface, "interface"},
	{AccAbstract, "abstract"},
}

func (f AccessFlags) String() string {
	var names []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, " ")
}

// Dump converts a record into the value tree accepted by MarshalCanonical.
func Dump(r *Record) map[string]any {
	ifaces := make([]string, len(r.Interfaces))
	for i, t := range r.Interfaces {
		ifaces[i] = string(t)
	}

	fields := make([]any, len(r.Fields))
	for i, f := range r.Fields {
		fields[i] = map[string]any{
			"name":  f.Name,
			"type":  string(f.Type),
			"flags": int(f.Flags),
		}
	}

	methods := make([]any, len(r.Methods))
	for i, m := range r.Methods {
		entry := map[string]any{
			"name":  m.Name,
			"type":  m.Type.String(),
			"flags": int(m.Flags),
		}
		if m.Code != nil {
			code := make([]string, len(m.Code))
			for j, in := range m.Code {
				code[j] = in.String()
			}
			entry["code"] = code
		}
		methods[i] = entry
	}

	attrs := make([]any, len(r.Attributes))
	for i, a := range r.Attributes {
		attrs[i] = map[string]any{
			"name":  a.AttributeName(),
			"value": attributeValue(a),
		}
	}

	return map[string]any{
		"kind":       r.Kind.String(),
		"name":       string(r.Name),
		"super":      string(r.Super),
		"interfaces": ifaces,
		"flags":      int(r.Flags),
		"fields":     fields,
		"methods":    methods,
		"attributes": attrs,
	}
}

func attributeValue(a Attribute) any {
	switch v := a.(type) {
	case GroupHost:
		return string(v.Host)
	case GroupMembers:
		members := make([]string, len(v.Members))
		for i, m := range v.Members {
			members[i] = string(m)
		}
		return members
	case SourceFile:
		return v.Name
	case UnknownAttribute:
		return hex.EncodeToString(v.Data)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Disassemble renders a record as a stable, line-oriented listing.
func Disassemble(r *Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", r.Kind, r.Name)
	if r.Flags != 0 {
		fmt.Fprintf(&b, "  flags %s\n", r.Flags)
	}
	if r.Super != "" {
		fmt.Fprintf(&b, "  super %s\n", r.Super)
	}
	for _, t := range r.Interfaces {
		fmt.Fprintf(&b, "  implements %s\n", t)
	}
	for _, f := range r.Fields {
		fmt.Fprintf(&b, "  field %s %s", f.Name, f.Type)
		if f.Flags != 0 {
			fmt.Fprintf(&b, " [%s]", f.Flags)
		}
		b.WriteByte('\n')
	}
	for _, m := range r.Methods {
		fmt.Fprintf(&b, "  method %s", m.Signature())
		if m.Flags != 0 {
			fmt.Fprintf(&b, " [%s]", m.Flags)
		}
		b.WriteByte('\n')
		for i, in := range m.Code {
			fmt.Fprintf(&b, "    %d: %s\n", i, in)
		}
	}
	for _, a := range r.Attributes {
		switch v := a.(type) {
		case GroupMembers:
			members := make([]string, len(v.Members))
			for i, m := range v.Members {
				members[i] = string(m)
			}
			fmt.Fprintf(&b, "  attr %s %s\n", v.AttributeName(), strings.Join(members, " "))
		case UnknownAttribute:
			fmt.Fprintf(&b, "  attr %s %d bytes\n", v.Name, len(v.Data))
		default:
			fmt.Fprintf(&b, "  attr %s %v\n", a.AttributeName(), attributeValue(a))
		}
	}
	return b.String()
}
