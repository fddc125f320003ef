package transform

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pregen/internal/generate"
	"github.com/roach88/pregen/internal/ir"
	"github.com/roach88/pregen/internal/pool"
	"github.com/roach88/pregen/internal/testutil"
)

const module = "app.base"

func newTransformer(workers int) *Transformer {
	return New(Config{Workers: workers},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithRunIDGenerator(testutil.NewFixedRunIDGenerator("run-1")),
		WithClock(testutil.NewStepClock().Now),
	)
}

func find(t *testing.T, p *pool.Pool, name ir.TypeDesc) *ir.Record {
	t.Helper()
	e, ok := p.Find(pool.RecordPath(module, name))
	require.True(t, ok, "missing %s", name)
	return testutil.MustParse(t, e.Content())
}

func members(t *testing.T, r *ir.Record) []ir.TypeDesc {
	t.Helper()
	gm, ok := r.GroupMembers()
	if !ok {
		return nil
	}
	return gm.Members
}

func TestTransform_SingleCallSite(t *testing.T) {
	main := testutil.Class("app/Main").
		Method("run", "()fn/Supplier", testutil.Supplier("app/Main", "lambda$run$0"), ir.Return{Type: "fn/Supplier"}).
		StaticMethod("lambda$run$0", "()lang/String", ir.Const{Value: ir.StringConst("hi")}, ir.Return{Type: "lang/String"})
	in := testutil.Pool(t, main.Entry(t, module))

	out, report, err := newTransformer(2).Transform(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 2, out.Len())
	rewritten := find(t, out, "app/Main")
	assert.Equal(t, ir.Invoke{
		Kind:  ir.InvokeStatic,
		Owner: "app/Main$$Lambda$0",
		Name:  "create",
		Type:  ir.MustParseMethodType("()fn/Supplier"),
	}, rewritten.Methods[0].Code[0])
	assert.Equal(t, []ir.TypeDesc{"app/Main$$Lambda$0"}, members(t, rewritten))
	_, hasHost := rewritten.GroupHost()
	assert.False(t, hasHost, "record stays its own host")

	gen := find(t, out, "app/Main$$Lambda$0")
	assert.Equal(t, []ir.TypeDesc{"fn/Supplier"}, gen.Interfaces)
	host, _ := gen.GroupHost()
	assert.Equal(t, ir.TypeDesc("app/Main"), host.Host)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, []ir.TypeDesc{"app/Main"}, report.Rewritten)
	require.Len(t, report.Generated, 1)
	assert.Equal(t, ir.TypeDesc("fn/Supplier"), report.Generated[0].Capability)
	assert.Equal(t, []HostUpdate{{Host: "app/Main", Pass: 1, Added: []ir.TypeDesc{"app/Main$$Lambda$0"}}}, report.HostUpdates)
	assert.Empty(t, report.Failures)
	assert.True(t, report.Changed())
	assert.True(t, report.FinishedAt.After(report.StartedAt))
}

func TestTransform_StagedUnderOtherHost(t *testing.T) {
	a := testutil.Class("app/A").
		Host("app/B").
		Method("run", "()void", testutil.Supplier("app/A", "l0"), ir.Return{Type: ir.TypeVoid})
	b := testutil.Class("app/B").Members("app/A")
	in := testutil.Pool(t, a.Entry(t, module), b.Entry(t, module))

	out, report, err := newTransformer(4).Transform(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, []ir.TypeDesc{"app/A", "app/A$$Lambda$0"}, members(t, find(t, out, "app/B")))

	ra := find(t, out, "app/A")
	assert.Nil(t, members(t, ra), "member of another group carries no member list")
	assert.IsType(t, ir.Invoke{}, ra.Methods[0].Code[0])

	gen := find(t, out, "app/A$$Lambda$0")
	host, _ := gen.GroupHost()
	assert.Equal(t, ir.TypeDesc("app/B"), host.Host)

	assert.Equal(t, []HostUpdate{{Host: "app/B", Pass: 2, Added: []ir.TypeDesc{"app/A$$Lambda$0"}}}, report.HostUpdates)
	assert.Empty(t, report.Unresolved)
}

func TestTransform_Conflict(t *testing.T) {
	c := testutil.Class("app/C").
		Host("app/A").
		Method("run", "()void", testutil.Supplier("app/C", "l0"))
	a := testutil.Class("app/A").Host("app/B").Members("app/X")
	b := testutil.Class("app/B")
	in := testutil.Pool(t, c.Entry(t, module), a.Entry(t, module), b.Entry(t, module))

	out, report, err := newTransformer(2).Transform(context.Background(), in)

	require.Error(t, err)
	assert.Nil(t, out, "no partial output")
	assert.Nil(t, report)
	assert.True(t, IsConflict(err))
	assert.Contains(t, err.Error(), "app/A")
	assert.Contains(t, err.Error(), "[app/X]")
	assert.Contains(t, err.Error(), "[app/C$$Lambda$0]")
}

func TestTransform_UnchangedRecordsKeepBytes(t *testing.T) {
	plain := testutil.Class("app/Plain").
		Method("m", "()void", ir.Dup{}, ir.Return{Type: ir.TypeVoid}).
		Entry(t, module)
	resource := pool.MustEntry("/app.base/META/notes.txt", []byte("not a record"))
	descriptor := testutil.ModuleInfo().Entry(t, module)
	caller := testutil.Class("app/Main").Method("m", "()void", testutil.Supplier("app/Main", "l0")).Entry(t, module)
	in := testutil.Pool(t, plain, resource, descriptor, caller)

	out, _, err := newTransformer(3).Transform(context.Background(), in)
	require.NoError(t, err)

	for _, want := range []pool.Entry{plain, resource, descriptor} {
		got, ok := out.Find(want.Path())
		require.True(t, ok, want.Path())
		assert.True(t, bytes.Equal(want.Content(), got.Content()), "content of %s changed", want.Path())
	}
}

func TestTransform_Idempotent(t *testing.T) {
	a := testutil.Class("app/A").Host("app/B").Method("m", "()void", testutil.Supplier("app/A", "l0"))
	b := testutil.Class("app/B").Method("m", "()void", testutil.Supplier("app/B", "l0"), testutil.Supplier("app/B", "l1"))
	in := testutil.Pool(t, a.Entry(t, module), b.Entry(t, module))
	tr := newTransformer(4)

	once, _, err := tr.Transform(context.Background(), in)
	require.NoError(t, err)
	twice, report, err := tr.Transform(context.Background(), once)
	require.NoError(t, err)

	assert.False(t, report.Changed())
	assert.Empty(t, report.Generated)
	if diff := cmp.Diff(paths(once), paths(twice)); diff != "" {
		t.Errorf("paths differ (-once +twice):\n%s", diff)
	}
	for e := range once.Entries() {
		got, _ := twice.Find(e.Path())
		assert.True(t, bytes.Equal(e.Content(), got.Content()), e.Path())
	}
}

func TestTransform_MemberOrderIsDeterministic(t *testing.T) {
	host := testutil.Class("app/H").Members("app/H$Inner")
	a1 := testutil.Class("app/A1").Host("app/H").
		Method("m", "()void", testutil.Supplier("app/A1", "l0"), testutil.Supplier("app/A1", "l1"))
	a2 := testutil.Class("app/A2").Host("app/H").
		Method("m", "()void", testutil.Supplier("app/A2", "l0"))
	a3 := testutil.Class("app/A3").Host("app/H").
		Method("m", "()void", testutil.Supplier("app/A3", "l0"))
	// Input order, not name order, decides member order.
	in := testutil.Pool(t, a3.Entry(t, module), host.Entry(t, module), a1.Entry(t, module), a2.Entry(t, module))

	want := []ir.TypeDesc{
		"app/H$Inner",
		"app/A3$$Lambda$0",
		"app/A1$$Lambda$0",
		"app/A1$$Lambda$1",
		"app/A2$$Lambda$0",
	}
	for range 10 {
		out, _, err := newTransformer(8).Transform(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, want, members(t, find(t, out, "app/H")))
	}
}

func TestTransform_SelfHostAlsoStagedFor(t *testing.T) {
	b := testutil.Class("app/B").Members("app/B$Inner", "app/A").
		Method("m", "()void", testutil.Supplier("app/B", "l0"))
	a := testutil.Class("app/A").Host("app/B").
		Method("m", "()void", testutil.Supplier("app/A", "l0"))
	in := testutil.Pool(t, b.Entry(t, module), a.Entry(t, module))

	out, report, err := newTransformer(2).Transform(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t,
		[]ir.TypeDesc{"app/B$Inner", "app/A", "app/B$$Lambda$0", "app/A$$Lambda$0"},
		members(t, find(t, out, "app/B")))
	assert.Equal(t, []HostUpdate{
		{Host: "app/B", Pass: 1, Added: []ir.TypeDesc{"app/B$$Lambda$0"}},
		{Host: "app/B", Pass: 2, Added: []ir.TypeDesc{"app/A$$Lambda$0"}},
	}, report.HostUpdates)
}

func TestTransform_CallSiteFailureIsReported(t *testing.T) {
	alt := testutil.AltLambda("get", "()fn/Supplier", "()lang/Object", "static/app/Main::l0()lang/String", "()lang/String", 1)
	mixed := testutil.Class("app/Main").
		Method("m", "()void", alt, testutil.Supplier("app/Main", "l1"))
	only := testutil.Class("app/Alt").Method("m", "()void", alt)
	onlyEntry := only.Entry(t, module)
	in := testutil.Pool(t, mixed.Entry(t, module), onlyEntry)

	out, report, err := newTransformer(2).Transform(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, report.Failures, 2)
	assert.Equal(t, generate.CodeUnsupported, report.Failures[0].Code)
	assert.Equal(t, ir.TypeDesc("app/Alt"), report.Failures[0].Record)
	assert.Contains(t, report.Failures[0].Message, "not yet supported")

	got, _ := out.Find(onlyEntry.Path())
	assert.True(t, bytes.Equal(onlyEntry.Content(), got.Content()), "record with only failed sites is untouched")

	m := find(t, out, "app/Main")
	assert.IsType(t, ir.InvokeDynamic{}, m.Methods[0].Code[0], "failed site stays dynamic")
	assert.IsType(t, ir.Invoke{}, m.Methods[0].Code[1])
	// The generated name follows discovery order, failed sites included.
	assert.Equal(t, []ir.TypeDesc{"app/Main$$Lambda$1"}, members(t, m))
}

func TestTransform_UnresolvedHost(t *testing.T) {
	a := testutil.Class("app/A").Host("app/Elsewhere").
		Method("m", "()void", testutil.Supplier("app/A", "l0"))
	in := testutil.Pool(t, a.Entry(t, module))

	out, report, err := newTransformer(1).Transform(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, []ir.TypeDesc{"app/Elsewhere"}, report.Unresolved)
	assert.Equal(t, 2, out.Len())
}

func TestTransform_GeneratedNameSkipsInputRecord(t *testing.T) {
	main := testutil.Class("app/Main").
		Method("m", "()void", testutil.Supplier("app/Main", "l0"), testutil.Supplier("app/Main", "l1"))
	existing := testutil.Class("app/Main$$Lambda$0").Entry(t, module)
	in := testutil.Pool(t, main.Entry(t, module), existing)

	out, report, err := newTransformer(2).Transform(context.Background(), in)
	require.NoError(t, err)

	assert.Empty(t, report.Failures)
	got, ok := out.Find(existing.Path())
	require.True(t, ok)
	assert.True(t, bytes.Equal(existing.Content(), got.Content()), "input record keeps its bytes")

	m := find(t, out, "app/Main")
	assert.Equal(t, ir.TypeDesc("app/Main$$Lambda$1"), m.Methods[0].Code[0].(ir.Invoke).Owner)
	assert.Equal(t, ir.TypeDesc("app/Main$$Lambda$2"), m.Methods[0].Code[1].(ir.Invoke).Owner)
	assert.Equal(t, []ir.TypeDesc{"app/Main$$Lambda$1", "app/Main$$Lambda$2"}, members(t, m))
	assert.Equal(t, 4, out.Len())
}

func TestTransform_SameHostNameInTwoModules(t *testing.T) {
	a := testutil.Class("app/A").Host("app/B").
		Method("m", "()void", testutil.Supplier("app/A", "l0"))
	b1 := testutil.Class("app/B").Members("app/A")
	b2 := testutil.Class("app/B").Members("app/Other").Entry(t, "m2")
	// Put the other module's host first so a name-only lookup would hit it.
	in := testutil.Pool(t, b2, a.Entry(t, "m1"), b1.Entry(t, "m1"))

	for range 10 {
		out, report, err := newTransformer(8).Transform(context.Background(), in)
		require.NoError(t, err)

		e, ok := out.Find(pool.RecordPath("m1", "app/B"))
		require.True(t, ok)
		assert.Equal(t, []ir.TypeDesc{"app/A", "app/A$$Lambda$0"}, members(t, testutil.MustParse(t, e.Content())))

		other, ok := out.Find(b2.Path())
		require.True(t, ok)
		assert.True(t, bytes.Equal(b2.Content(), other.Content()), "host in another module is untouched")

		assert.Equal(t, []HostUpdate{{Host: "app/B", Pass: 2, Added: []ir.TypeDesc{"app/A$$Lambda$0"}}}, report.HostUpdates)
		assert.Empty(t, report.Unresolved)
	}
}

func TestTransform_UnresolvedHostInOtherModuleOnly(t *testing.T) {
	a := testutil.Class("app/A").Host("app/B").
		Method("m", "()void", testutil.Supplier("app/A", "l0"))
	b := testutil.Class("app/B").Entry(t, "m2")
	in := testutil.Pool(t, a.Entry(t, "m1"), b)

	out, report, err := newTransformer(2).Transform(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, []ir.TypeDesc{"app/B"}, report.Unresolved)
	got, _ := out.Find(b.Path())
	assert.True(t, bytes.Equal(b.Content(), got.Content()))
}

func TestStage_AfterDrainIsStagingMisuse(t *testing.T) {
	h := pool.NewHolder()
	require.NoError(t, h.Drain(func(pool.Entry) error { return nil }))

	err := stage(h, pool.MustEntry("/app.base/app/A.rec", []byte("x")))

	var te *TransformError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrCodeStagingMisuse, te.Code)
	assert.True(t, IsStagingMisuse(err))
	assert.ErrorIs(t, err, pool.ErrAlreadyDrained)
}

func TestDrainError(t *testing.T) {
	h := pool.NewHolder()
	require.NoError(t, h.Drain(func(pool.Entry) error { return nil }))
	err := drainError(h.Drain(func(pool.Entry) error { return nil }))
	var te *TransformError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrCodeStagingMisuse, te.Code, "second drain")
	assert.ErrorIs(t, err, pool.ErrAlreadyDrained)

	conflict := NewConflictError("/app.base/app/B.rec", errors.New("mismatch"))
	assert.Same(t, conflict, drainError(conflict))

	require.ErrorAs(t, drainError(errors.New("disk full")), &te)
	assert.Equal(t, ErrCodeEmitFailed, te.Code)
}

func TestTransform_NoCallSites(t *testing.T) {
	in := testutil.Pool(t,
		testutil.Class("app/A").Entry(t, module),
		testutil.Class("app/B").Host("app/A").Entry(t, module),
	)

	out, report, err := newTransformer(2).Transform(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, in.Len(), out.Len())
	assert.False(t, report.Changed())
	assert.Empty(t, report.HostUpdates)
}

func TestTransform_MalformedRecord(t *testing.T) {
	in := testutil.Pool(t, pool.MustEntry("/app.base/app/Broken.rec", []byte("garbage")))

	_, _, err := newTransformer(1).Transform(context.Background(), in)

	var te *TransformError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrCodeMalformedRecord, te.Code)
	assert.Equal(t, "/app.base/app/Broken.rec", te.Path)
}

func TestTransform_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := testutil.Pool(t, testutil.Class("app/A").Entry(t, module))

	out, _, err := newTransformer(1).Transform(ctx, in)

	assert.Nil(t, out)
	assert.True(t, IsCanceled(err))
}

func TestTransform_CustomConfig(t *testing.T) {
	site := testutil.Supplier("app/Main", "l0")
	site.Bootstrap.Owner = "custom/Factory"
	in := testutil.Pool(t, testutil.Class("app/Main").Method("m", "()void", site).Entry(t, module))
	tr := New(Config{FactoryOwner: "custom/Factory", EntryMethod: "thunk", Workers: 1},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	out, report, err := tr.Transform(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, report.Generated, 1)
	call := find(t, out, "app/Main").Methods[0].Code[0].(ir.Invoke)
	assert.Equal(t, "thunk", call.Name)
	assert.Len(t, report.RunID, 36, "UUIDv7 by default")
}

func paths(p *pool.Pool) []string {
	var out []string
	for e := range p.Entries() {
		out = append(out, e.Path())
	}
	return out
}
