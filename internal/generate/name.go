package generate

import (
	"fmt"

	"github.com/roach88/pregen/internal/ir"
	"github.com/roach88/pregen/internal/pool"
)

// Name returns the generated record name for the n-th call site of owner.
func Name(owner ir.TypeDesc, n int) ir.TypeDesc {
	return ir.TypeDesc(fmt.Sprintf("%s$$Lambda$%d", owner, n))
}

// Namer hands out generated names for one owner's call sites, visited in
// discovery order. A call site gets the first name at or after its own
// index whose entry path is free; names already handed out are never
// reused. Not safe for concurrent use.
type Namer struct {
	module string
	owner  ir.TypeDesc
	taken  func(path string) bool
	next   int
}

// NewNamer returns a namer for owner in module. taken reports whether an
// entry path is already occupied, typically by an input record.
func NewNamer(module string, owner ir.TypeDesc, taken func(path string) bool) *Namer {
	return &Namer{module: module, owner: owner, taken: taken}
}

// Next returns the name for the call site at index.
func (n *Namer) Next(index int) ir.TypeDesc {
	i := max(index, n.next)
	for {
		name := Name(n.owner, i)
		i++
		if n.taken == nil || !n.taken(pool.RecordPath(n.module, name)) {
			n.next = i
			return name
		}
	}
}
