package harness

import (
	"fmt"

	"github.com/roach88/pregen/internal/codec"
	"github.com/roach88/pregen/internal/ir"
	"github.com/roach88/pregen/internal/pool"
	"github.com/roach88/pregen/internal/testutil"
)

// BuildInput assembles the scenario's input set: records in declaration
// order, then resources.
func BuildInput(s *Scenario) (*pool.Pool, error) {
	entries := make([]pool.Entry, 0, len(s.Records)+len(s.Resources))
	for _, spec := range s.Records {
		rec, err := buildRecord(spec)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", spec.Name, err)
		}
		content, err := codec.Encode(rec)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", spec.Name, err)
		}
		e, err := pool.NewEntry(pool.RecordPath(s.moduleOf(spec), rec.Name), content)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	for _, r := range s.Resources {
		e, err := pool.NewEntry(r.Path, []byte(r.Content))
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return pool.New(entries...)
}

func (s *Scenario) moduleOf(r RecordSpec) string {
	if r.Module != "" {
		return r.Module
	}
	return s.Module
}

func buildRecord(spec RecordSpec) (*ir.Record, error) {
	rec := &ir.Record{Kind: ir.KindClass, Name: ir.TypeDesc(spec.Name), Super: ir.TypeObject}
	if spec.Host != "" {
		rec.Attributes = append(rec.Attributes, ir.GroupHost{Host: ir.TypeDesc(spec.Host)})
	}
	if len(spec.Members) > 0 {
		rec.Attributes = append(rec.Attributes, ir.GroupMembers{Members: typeDescs(spec.Members)})
	}
	for _, ms := range spec.Methods {
		m, err := buildMethod(ms)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", ms.Name, err)
		}
		rec.Methods = append(rec.Methods, m)
	}
	return rec, nil
}

func buildMethod(ms MethodSpec) (ir.Method, error) {
	mt, err := ir.ParseMethodType(ms.Type)
	if err != nil {
		return ir.Method{}, err
	}
	flags, err := parseFlags(ms.Flags)
	if err != nil {
		return ir.Method{}, err
	}
	m := ir.Method{Name: ms.Name, Type: mt, Flags: flags}
	for _, in := range ms.Code {
		m.Code = append(m.Code, buildInsn(in))
	}
	return m, nil
}

// buildInsn converts a validated instruction spec.
func buildInsn(in InsnSpec) ir.Instruction {
	switch {
	case in.Lambda != nil:
		l := in.Lambda
		return testutil.Lambda(l.Name, l.Type, l.Iface, l.Impl, l.Dynamic)
	case in.AltLambda != nil:
		l := in.AltLambda
		return testutil.AltLambda(l.Name, l.Type, l.Iface, l.Impl, l.Dynamic, l.Flags)
	case in.Load != nil:
		return ir.Load{Slot: in.Load.Slot, Type: ir.TypeDesc(in.Load.Type)}
	case in.Const != nil:
		return ir.Const{Value: ir.StringConst(*in.Const)}
	case in.Dup:
		return ir.Dup{}
	default:
		return ir.Return{Type: ir.TypeDesc(*in.Return)}
	}
}

func typeDescs(names []string) []ir.TypeDesc {
	if len(names) == 0 {
		return nil
	}
	out := make([]ir.TypeDesc, len(names))
	for i, n := range names {
		out[i] = ir.TypeDesc(n)
	}
	return out
}
