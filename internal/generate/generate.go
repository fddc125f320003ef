package generate

import (
	"fmt"
	"log/slog"

	"github.com/roach88/pregen/internal/codec"
	"github.com/roach88/pregen/internal/group"
	"github.com/roach88/pregen/internal/ir"
	"github.com/roach88/pregen/internal/pool"
	"github.com/roach88/pregen/internal/scan"
	"github.com/roach88/pregen/internal/synth"
)

// Bootstrap argument positions of the standard factory.
const (
	argInterfaceType  = 0
	argImplementation = 1
	argDynamicType    = 2
	standardArgCount  = 3
)

// SynthesizeFunc turns a request into encoded record bytes.
type SynthesizeFunc func(synth.Request) ([]byte, error)

// Synthetic is a generated record and where it came from.
type Synthetic struct {
	// Name is the generated record's internal name.
	Name ir.TypeDesc
	// Entry is the pool entry emitted for it.
	Entry pool.Entry
	// Record is the generated record, GroupHost included.
	Record *ir.Record
	// Site is the originating call site.
	Site scan.CallSite
	// Interfaces are the capability interfaces implemented.
	Interfaces []ir.TypeDesc
	// Serializable is set only for the variadic factory form.
	Serializable bool
	// AccidentallySerializable is always false: the type hierarchy is not
	// available when records are generated.
	AccidentallySerializable bool
}

// Owner is the record that holds the call sites.
type Owner struct {
	Module string
	Record *ir.Record
	// Names allocates generated names across the owner's call sites. When
	// nil, a record is named after its call site's index.
	Names  *Namer
}

func (o Owner) name(site scan.CallSite) ir.TypeDesc {
	if o.Names == nil {
		return Name(o.Record.Name, site.Index)
	}
	return o.Names.Next(site.Index)
}

// Generator builds one record per call site.
type Generator struct {
	entryMethod string
	synthesize  SynthesizeFunc
	logger      *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithSynthesizer replaces synth.Synthesize.
func WithSynthesizer(fn SynthesizeFunc) Option {
	return func(g *Generator) { g.synthesize = fn }
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// New returns a generator whose records expose entryMethod. An empty name
// selects synth.DefaultEntryMethod.
func New(entryMethod string, opts ...Option) *Generator {
	if entryMethod == "" {
		entryMethod = synth.DefaultEntryMethod
	}
	g := &Generator{
		entryMethod: entryMethod,
		synthesize:  synth.Synthesize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// EntryMethod returns the name of the static operation generated records
// expose.
func (g *Generator) EntryMethod() string {
	return g.entryMethod
}

func describe(c ir.Constant) string {
	if c == nil {
		return "nothing"
	}
	return c.ConstTag().String()
}

// Generate synthesizes the record for site and adds it to sink.
//
// Failures tied to the call site are returned as *CallSiteError and leave
// sink untouched. Any other error, such as the sink rejecting the entry,
// is not recoverable.
func (g *Generator) Generate(site scan.CallSite, owner Owner, sink pool.Sink) (*Synthetic, error) {
	if site.Variant == scan.Alternate {
		return nil, &CallSiteError{
			Code:    CodeUnsupported,
			Site:    site,
			Message: "variadic factory form",
			Err:     ErrUnsupportedVariant,
		}
	}

	args := site.Insn.Args
	if len(args) != standardArgCount {
		return nil, malformed(site, "want %d bootstrap arguments, got %d", standardArgCount, len(args))
	}
	ifaceType, ok := args[argInterfaceType].(ir.MethodType)
	if !ok {
		return nil, malformed(site, "argument %d: want method type, got %s", argInterfaceType, describe(args[argInterfaceType]))
	}
	impl, ok := args[argImplementation].(ir.MethodHandle)
	if !ok {
		return nil, malformed(site, "argument %d: want method handle, got %s", argImplementation, describe(args[argImplementation]))
	}
	dynType, ok := args[argDynamicType].(ir.MethodType)
	if !ok {
		return nil, malformed(site, "argument %d: want method type, got %s", argDynamicType, describe(args[argDynamicType]))
	}
	capability := site.Capability()
	if !capability.IsReference() {
		return nil, malformed(site, "invoked type %s does not produce a reference", site.InvokedType())
	}

	name := owner.name(site)
	req := synth.Request{
		Name:                name,
		InterfaceMethodName: site.Insn.Name,
		InterfaceMethodType: ifaceType,
		DynamicMethodType:   dynType,
		Target:              owner.Record.Name,
		Interfaces:          []ir.TypeDesc{capability},
		FactoryType:         site.InvokedType(),
		Implementation:      impl,
		EntryMethod:         g.entryMethod,
	}
	content, err := g.synthesize(req)
	if err != nil {
		return nil, &CallSiteError{Code: CodeSynthesis, Site: site, Message: "synthesis failed", Err: err}
	}

	// Generated records join the caller's group.
	gen, err := codec.Parse(content)
	if err != nil {
		return nil, &CallSiteError{Code: CodeSynthesis, Site: site, Message: "synthesized record is unreadable", Err: err}
	}
	gen = gen.WithAttribute(ir.GroupHost{Host: group.HostOf(owner.Record)})
	content, err = codec.Encode(gen)
	if err != nil {
		return nil, &CallSiteError{Code: CodeSynthesis, Site: site, Message: "encode generated record", Err: err}
	}

	entry, err := pool.NewEntry(pool.RecordPath(owner.Module, gen.Name), content)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", gen.Name, err)
	}
	if err := sink.Add(entry); err != nil {
		return nil, fmt.Errorf("generate %s: %w", gen.Name, err)
	}
	g.logger.Debug("generated record",
		"path", entry.Path(),
		"owner", owner.Record.Name,
		"method", site.Method.Signature(),
		"capability", capability)

	return &Synthetic{
		Name:       gen.Name,
		Entry:      entry,
		Record:     gen,
		Site:       site,
		Interfaces: req.Interfaces,
	}, nil
}
