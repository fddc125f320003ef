package transform

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/pregen/internal/codec"
	"github.com/roach88/pregen/internal/generate"
	"github.com/roach88/pregen/internal/group"
	"github.com/roach88/pregen/internal/ir"
	"github.com/roach88/pregen/internal/pool"
	"github.com/roach88/pregen/internal/rewrite"
	"github.com/roach88/pregen/internal/scan"
)

// Config selects what the transform recognizes and produces.
type Config struct {
	// FactoryOwner is the factory type whose bootstrap methods mark call
	// sites. Empty selects scan.DefaultFactoryOwner.
	FactoryOwner ir.TypeDesc
	// EntryMethod names the static operation on generated records. Empty
	// selects synth.DefaultEntryMethod.
	EntryMethod string
	// Workers bounds the goroutines of each pass. Zero or less selects
	// GOMAXPROCS.
	Workers int
}

// Transformer runs the two-pass pregeneration over a record set.
// A Transformer holds no per-run state and may be reused.
type Transformer struct {
	scanner *scan.Scanner
	gen     *generate.Generator
	workers int
	logger  *slog.Logger
	runIDs  RunIDGenerator
	now     func() time.Time
	genOpts []generate.Option
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Transformer) { t.logger = l }
}

// WithRunIDGenerator replaces the UUIDv7 run ID generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(t *Transformer) { t.runIDs = g }
}

// WithClock replaces time.Now for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Transformer) { t.now = now }
}

// WithGeneratorOptions passes options to the record generator.
func WithGeneratorOptions(opts ...generate.Option) Option {
	return func(t *Transformer) { t.genOpts = append(t.genOpts, opts...) }
}

// New creates a Transformer.
func New(cfg Config, opts ...Option) *Transformer {
	t := &Transformer{
		scanner: scan.New(cfg.FactoryOwner),
		workers: cfg.Workers,
		logger:  slog.Default(),
		runIDs:  UUIDv7Generator{},
		now:     time.Now,
	}
	if t.workers <= 0 {
		t.workers = runtime.GOMAXPROCS(0)
	}
	for _, opt := range opts {
		opt(t)
	}
	genOpts := append([]generate.Option{generate.WithLogger(t.logger)}, t.genOpts...)
	t.gen = generate.New(cfg.EntryMethod, genOpts...)
	return t
}

// run is the state of one Transform call.
type run struct {
	id      string
	in      *pool.Pool
	out     *pool.Builder
	mid     *pool.Holder
	pending *group.Pending
	col     *collector
}

// Transform pregenerates every recognized call site in the input set and
// returns the new set.
//
// Per-call-site failures are listed in the report and the call site is
// left as it was. Group conflicts, staging misuse, unreadable records and
// cancellation abort the transform: the returned pool and report are nil.
func (t *Transformer) Transform(ctx context.Context, in *pool.Pool) (*pool.Pool, *Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, NewCanceledError(err)
	}
	r := &run{
		id:      t.runIDs.Generate(),
		in:      in,
		out:     pool.NewBuilder(),
		mid:     pool.NewHolder(),
		pending: group.NewPending(),
		col:     &collector{},
	}
	report := &Report{RunID: r.id, StartedAt: t.now(), InputEntries: in.Len()}
	logger := t.logger.With("run_id", r.id)
	logger.Debug("transform started", "entries", in.Len(), "workers", t.workers)

	if err := t.firstPass(ctx, r, in); err != nil {
		return nil, nil, err
	}

	frozen, err := r.pending.Freeze()
	if err != nil {
		return nil, nil, NewStagingError(err)
	}

	if err := t.secondPass(ctx, r, frozen); err != nil {
		return nil, nil, err
	}

	for _, host := range frozen.Remaining() {
		logger.Warn("staged group additions have no host record",
			"module", host.Module,
			"host", host.Name,
			"from", frozen.Sources(host))
		report.Unresolved = append(report.Unresolved, host.Name)
	}
	slices.Sort(report.Unresolved)
	report.Unresolved = slices.Compact(report.Unresolved)

	result := r.out.Build()
	r.col.fill(report)
	report.OutputEntries = result.Len()
	if report.InputDigest, err = Digest(in); err != nil {
		return nil, nil, err
	}
	if report.OutputDigest, err = Digest(result); err != nil {
		return nil, nil, err
	}
	report.FinishedAt = t.now()

	logger.Info("transform complete",
		"rewritten", len(report.Rewritten),
		"generated", len(report.Generated),
		"failures", len(report.Failures),
		"host_updates", len(report.HostUpdates))
	return result, report, nil
}

func (t *Transformer) firstPass(ctx context.Context, r *run, in *pool.Pool) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	order := 0
	for e := range in.Entries() {
		i := order
		order++
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return t.processEntry(r, i, e)
		})
	}
	return wait(ctx, g)
}

// processEntry is pass 1 for one entry: scan, generate, rewrite, and
// either extend the record's own member list or stage the additions under
// its host. Everything it emits besides generated records goes through
// the staging buffer.
func (t *Transformer) processEntry(r *run, order int, e pool.Entry) error {
	if !e.IsRecord() || e.IsModuleDescriptor() {
		return stage(r.mid, e)
	}
	rec, err := codec.Parse(e.Content())
	if err != nil {
		return NewMalformedRecordError(e.Path(), err)
	}
	owner := generate.Owner{
		Module: e.Module(),
		Record: rec,
		Names:  generate.NewNamer(e.Module(), rec.Name, r.occupied),
	}
	host := group.HostOf(rec)

	var repls []rewrite.Replacement
	var added []ir.TypeDesc
	for site := range t.scanner.CallSites(rec) {
		syn, err := t.gen.Generate(site, owner, r.out)
		if err != nil {
			var ce *generate.CallSiteError
			if !errors.As(err, &ce) {
				return NewEmitError(e.Path(), err)
			}
			t.logger.Warn("call site left unrewritten",
				"run_id", r.id,
				"record", rec.Name,
				"method", site.Method.Signature(),
				"position", site.Location.Position,
				"code", ce.Code,
				"error", err)
			r.col.addFailure(Failure{
				Code:     ce.Code,
				Record:   rec.Name,
				Method:   site.Method.Signature(),
				Position: site.Location.Position,
				Message:  err.Error(),
			})
			continue
		}
		repls = append(repls, rewrite.Replacement{
			Location:    site.Location,
			Target:      syn.Name,
			EntryMethod: t.gen.EntryMethod(),
		})
		added = append(added, syn.Name)
		r.col.addGenerated(GeneratedRecord{
			Name:       syn.Name,
			Path:       syn.Entry.Path(),
			Owner:      rec.Name,
			Method:     site.Method.Signature(),
			Position:   site.Location.Position,
			Capability: site.Capability(),
			Host:       host,
		})
	}
	if len(repls) == 0 {
		return stage(r.mid, e)
	}

	out, err := rewrite.Rewrite(rec, repls)
	if err != nil {
		return NewMalformedRecordError(e.Path(), err)
	}
	if group.IsSelfHosted(rec) {
		out = group.ExtendMembers(out, added)
		r.col.addUpdate(HostUpdate{Host: rec.Name, Pass: 1, Added: added})
	} else if err := r.pending.Stage(group.Key(e.Module(), host), order, rec.Name, added); err != nil {
		return NewStagingError(err)
	}
	r.col.addRewritten(rec.Name)

	content, err := codec.Encode(out)
	if err != nil {
		return NewMalformedRecordError(e.Path(), err)
	}
	t.logger.Debug("record rewritten",
		"run_id", r.id,
		"record", rec.Name,
		"call_sites", len(repls),
		"host", host)
	return stage(r.mid, e.CopyWithContent(content))
}

// secondPass drains the staging buffer into the output, applying staged
// member additions to their hosts.
func (t *Transformer) secondPass(ctx context.Context, r *run, frozen *group.Frozen) error {
	if frozen.IsEmpty() {
		if err := r.mid.Drain(r.out.Add); err != nil {
			return drainError(err)
		}
		return nil
	}

	var staged []pool.Entry
	if err := r.mid.Drain(func(e pool.Entry) error {
		staged = append(staged, e)
		return nil
	}); err != nil {
		return drainError(err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	for _, e := range staged {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return t.reconcileEntry(r, frozen, e)
		})
	}
	return wait(ctx, g)
}

func (t *Transformer) reconcileEntry(r *run, frozen *group.Frozen, e pool.Entry) error {
	if !e.IsRecord() || e.IsModuleDescriptor() {
		return emit(r.out, e)
	}
	_, name, err := codec.Peek(e.Content())
	if err != nil {
		return NewMalformedRecordError(e.Path(), err)
	}
	members, ok := frozen.Take(group.Key(e.Module(), name))
	if !ok {
		return emit(r.out, e)
	}

	rec, err := codec.Parse(e.Content())
	if err != nil {
		return NewMalformedRecordError(e.Path(), err)
	}
	updated, err := group.Reconcile(rec, members)
	if err != nil {
		t.logger.Error("group conflict", "run_id", r.id, "record", name, "error", err)
		return NewConflictError(e.Path(), err)
	}
	content, err := codec.Encode(updated)
	if err != nil {
		return NewMalformedRecordError(e.Path(), err)
	}
	r.col.addUpdate(HostUpdate{Host: name, Pass: 2, Added: members})
	t.logger.Debug("host updated", "run_id", r.id, "host", name, "added", len(members))
	return emit(r.out, e.CopyWithContent(content))
}

// occupied reports whether an input entry already sits at path, so a
// generated record cannot take its name.
func (r *run) occupied(path string) bool {
	_, ok := r.in.Find(path)
	return ok
}

func stage(h *pool.Holder, e pool.Entry) error {
	if err := h.Add(e); err != nil {
		if errors.Is(err, pool.ErrAlreadyDrained) {
			return NewStagingError(err)
		}
		return NewEmitError(e.Path(), err)
	}
	return nil
}

func emit(b *pool.Builder, e pool.Entry) error {
	if err := b.Add(e); err != nil {
		return NewEmitError(e.Path(), err)
	}
	return nil
}

func drainError(err error) error {
	var te *TransformError
	if errors.As(err, &te) {
		return err
	}
	if errors.Is(err, pool.ErrAlreadyDrained) {
		return NewStagingError(err)
	}
	return NewEmitError("", err)
}

// wait returns the group's first error. A cancellation of the caller's
// context is reported as such rather than as the error of whichever
// worker noticed it.
func wait(ctx context.Context, g *errgroup.Group) error {
	err := g.Wait()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return NewCanceledError(ctxErr)
	}
	var te *TransformError
	if errors.As(err, &te) {
		return err
	}
	return NewCanceledError(err)
}
