package group

import (
	"cmp"
	"slices"
	"sync"

	"github.com/roach88/pregen/internal/ir"
)

// HostKey names a host record within its module. Group membership never
// crosses a module boundary, so two modules may each have a host of the
// same name.
type HostKey struct {
	Module string      `json:"module"`
	Name   ir.TypeDesc `json:"name"`
}

// Key returns the key of host in module.
func Key(module string, host ir.TypeDesc) HostKey {
	return HostKey{Module: module, Name: host}
}

func (k HostKey) String() string {
	if k.Module == "" {
		return string(k.Name)
	}
	return k.Module + ":" + string(k.Name)
}

// Compare orders keys by module, then name.
func (k HostKey) Compare(o HostKey) int {
	if c := cmp.Compare(k.Module, o.Module); c != 0 {
		return c
	}
	return cmp.Compare(k.Name, o.Name)
}

// Contribution is one record's staged additions for a host.
type Contribution struct {
	// Order is the contributing record's position in the input set.
	Order int
	// From is the contributing record.
	From ir.TypeDesc
	// Members are the generated records, in discovery order.
	Members []ir.TypeDesc
}

type bucket struct {
	mu       sync.Mutex
	contribs []Contribution
}

// Pending accumulates member additions keyed by module and host during the first
// pass. Appends for one host are serialized by that host's bucket; there
// is no table-wide lock on the write path.
//
// A Pending is created empty, written concurrently, then frozen exactly
// once. It is never shared across transforms.
type Pending struct {
	// gate is held shared by Stage and exclusively by Freeze so no append
	// can land after the snapshot.
	gate    sync.RWMutex
	frozen  bool
	buckets sync.Map // HostKey -> *bucket
}

// NewPending returns an empty table.
func NewPending() *Pending {
	return &Pending{}
}

// Stage records that the record at input position order, named from,
// contributes members to host.
func (p *Pending) Stage(host HostKey, order int, from ir.TypeDesc, members []ir.TypeDesc) error {
	if len(members) == 0 {
		return nil
	}
	p.gate.RLock()
	defer p.gate.RUnlock()
	if p.frozen {
		return ErrFrozen
	}

	v, _ := p.buckets.LoadOrStore(host, &bucket{})
	b := v.(*bucket)
	b.mu.Lock()
	b.contribs = append(b.contribs, Contribution{
		Order:   order,
		From:    from,
		Members: slices.Clone(members),
	})
	b.mu.Unlock()
	return nil
}

// Freeze closes the table to writes and returns the read view. Each
// host's contributions are ordered by input position, so the view does not
// depend on worker scheduling.
func (p *Pending) Freeze() (*Frozen, error) {
	p.gate.Lock()
	defer p.gate.Unlock()
	if p.frozen {
		return nil, ErrAlreadyFrozen
	}
	p.frozen = true

	f := &Frozen{
		additions: make(map[HostKey][]ir.TypeDesc),
		sources:   make(map[HostKey][]ir.TypeDesc),
	}
	p.buckets.Range(func(k, v any) bool {
		host := k.(HostKey)
		b := v.(*bucket)
		contribs := slices.Clone(b.contribs)
		slices.SortStableFunc(contribs, func(x, y Contribution) int {
			return cmp.Compare(x.Order, y.Order)
		})
		for _, c := range contribs {
			f.additions[host] = append(f.additions[host], c.Members...)
			f.sources[host] = append(f.sources[host], c.From)
		}
		return true
	})
	return f, nil
}

// Frozen is the read view of a Pending table. Each host is consumed at
// most once. Safe for concurrent use.
type Frozen struct {
	mu        sync.Mutex
	additions map[HostKey][]ir.TypeDesc
	sources   map[HostKey][]ir.TypeDesc
	taken     map[HostKey]bool
}

// Len returns the number of hosts with staged additions.
func (f *Frozen) Len() int {
	return len(f.additions)
}

// IsEmpty reports whether nothing was staged.
func (f *Frozen) IsEmpty() bool {
	return len(f.additions) == 0
}

// Hosts returns every host with staged additions, sorted.
func (f *Frozen) Hosts() []HostKey {
	hosts := make([]HostKey, 0, len(f.additions))
	for h := range f.additions {
		hosts = append(hosts, h)
	}
	slices.SortFunc(hosts, HostKey.Compare)
	return hosts
}

// Sources returns the records that staged additions for host, in input
// order.
func (f *Frozen) Sources(host HostKey) []ir.TypeDesc {
	return slices.Clone(f.sources[host])
}

// Take consumes host's additions. It reports false when the host has none
// or was already taken.
func (f *Frozen) Take(host HostKey) ([]ir.TypeDesc, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	members, ok := f.additions[host]
	if !ok || f.taken[host] {
		return nil, false
	}
	if f.taken == nil {
		f.taken = make(map[HostKey]bool)
	}
	f.taken[host] = true
	return slices.Clone(members), true
}

// Remaining returns the hosts not yet taken, sorted.
func (f *Frozen) Remaining() []HostKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	var left []HostKey
	for h := range f.additions {
		if !f.taken[h] {
			left = append(left, h)
		}
	}
	slices.SortFunc(left, HostKey.Compare)
	return left
}
