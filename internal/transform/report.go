package transform

import (
	"cmp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/roach88/pregen/internal/generate"
	"github.com/roach88/pregen/internal/ir"
	"github.com/roach88/pregen/internal/pool"
)

// GeneratedRecord describes one record produced in pass 1.
type GeneratedRecord struct {
	Name       ir.TypeDesc `json:"name"`
	Path       string      `json:"path"`
	Owner      ir.TypeDesc `json:"owner"`
	Method     string      `json:"method"`
	Position   int         `json:"position"`
	Capability ir.TypeDesc `json:"capability"`
	Host       ir.TypeDesc `json:"host"`
}

// Failure is a call site left unrewritten.
type Failure struct {
	Code     generate.CallSiteErrorCode `json:"code"`
	Record   ir.TypeDesc                `json:"record"`
	Method   string                     `json:"method"`
	Position int                        `json:"position"`
	Message  string                     `json:"message"`
}

// HostUpdate records members added to a host's member list.
type HostUpdate struct {
	Host  ir.TypeDesc   `json:"host"`
	Pass  int           `json:"pass"`
	Added []ir.TypeDesc `json:"added"`
}

// Report summarizes one transform run. Every list is sorted, so two runs
// over the same input produce equal reports apart from the run ID and
// timestamps.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	InputEntries  int    `json:"input_entries"`
	OutputEntries int    `json:"output_entries"`
	InputDigest   string `json:"input_digest"`
	OutputDigest  string `json:"output_digest"`

	Rewritten   []ir.TypeDesc     `json:"rewritten"`
	Generated   []GeneratedRecord `json:"generated"`
	Failures    []Failure         `json:"failures"`
	HostUpdates []HostUpdate      `json:"host_updates"`
	// Unresolved names the hosts with staged additions that no record of
	// the contributing module answered to.
	Unresolved []ir.TypeDesc `json:"unresolved"`
}

// Changed reports whether the run altered the record set.
func (r *Report) Changed() bool {
	return r.InputDigest != r.OutputDigest
}

// collector gathers report rows from concurrent workers.
type collector struct {
	mu        sync.Mutex
	rewritten []ir.TypeDesc
	generated []GeneratedRecord
	failures  []Failure
	updates   []HostUpdate
}

func (c *collector) addRewritten(name ir.TypeDesc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rewritten = append(c.rewritten, name)
}

func (c *collector) addGenerated(g GeneratedRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generated = append(c.generated, g)
}

func (c *collector) addFailure(f Failure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, f)
}

func (c *collector) addUpdate(u HostUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, u)
}

func (c *collector) fill(r *Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r.Rewritten = slices.Sorted(slices.Values(c.rewritten))
	r.Generated = slices.SortedFunc(slices.Values(c.generated), func(a, b GeneratedRecord) int {
		return strings.Compare(a.Path, b.Path)
	})
	r.Failures = slices.SortedFunc(slices.Values(c.failures), func(a, b Failure) int {
		return cmp.Or(
			strings.Compare(string(a.Record), string(b.Record)),
			strings.Compare(a.Method, b.Method),
			cmp.Compare(a.Position, b.Position),
		)
	})
	r.HostUpdates = slices.SortedFunc(slices.Values(c.updates), func(a, b HostUpdate) int {
		return cmp.Or(
			cmp.Compare(a.Pass, b.Pass),
			strings.Compare(string(a.Host), string(b.Host)),
		)
	})
}

// Digest summarizes a pool's paths and contents. Equal digests mean equal
// record sets.
func Digest(p *pool.Pool) (string, error) {
	m := make(map[string]any, p.Len())
	for e := range p.Entries() {
		m[e.Path()] = ir.ContentHash(e.Content())
	}
	return ir.Digest(m)
}
