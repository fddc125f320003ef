package pool

import (
	"errors"
	"fmt"
	"iter"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/pregen/internal/ir"
)

// RecordExt is the path suffix of record entries.
const RecordExt = ".rec"

// ModuleDescriptor is the base name of a module's descriptor record.
const ModuleDescriptor = "module-info"

// EntryType classifies a pool entry.
type EntryType int

const (
	// EntryRecord is a binary record.
	EntryRecord EntryType = iota + 1
	// EntryResource is any other file; it is carried through untouched.
	EntryResource
)

func (t EntryType) String() string {
	switch t {
	case EntryRecord:
		return "record"
	case EntryResource:
		return "resource"
	default:
		return "unknown"
	}
}

// ErrDuplicateEntry is returned when a path is added twice.
var ErrDuplicateEntry = errors.New("pool: duplicate entry")

// Entry is one file of a record set. Entries are values; content must not
// be modified after construction.
type Entry struct {
	path    string
	module  string
	typ     EntryType
	content []byte
}

// NewEntry creates an entry. Paths have the form "/<module>/<rest>".
func NewEntry(p string, content []byte) (Entry, error) {
	if !strings.HasPrefix(p, "/") {
		return Entry{}, fmt.Errorf("pool: entry path %q must start with '/'", p)
	}
	rest := p[1:]
	slash := strings.IndexByte(rest, '/')
	if slash <= 0 || slash == len(rest)-1 {
		return Entry{}, fmt.Errorf("pool: entry path %q: want /<module>/<name>", p)
	}
	typ := EntryResource
	if strings.HasSuffix(p, RecordExt) {
		typ = EntryRecord
	}
	return Entry{path: p, module: rest[:slash], typ: typ, content: content}, nil
}

// MustEntry is like NewEntry but panics on error.
// Use only in tests or with literal paths.
func MustEntry(p string, content []byte) Entry {
	e, err := NewEntry(p, content)
	if err != nil {
		panic(err)
	}
	return e
}

// RecordPath returns the entry path of a record in a module.
func RecordPath(module string, name ir.TypeDesc) string {
	return "/" + module + "/" + string(name) + RecordExt
}

func (e Entry) Path() string    { return e.path }
func (e Entry) Module() string  { return e.module }
func (e Entry) Type() EntryType { return e.typ }
func (e Entry) Content() []byte { return e.content }
func (e Entry) IsRecord() bool  { return e.typ == EntryRecord }
func (e Entry) String() string  { return e.path }

// IsModuleDescriptor reports whether the entry is a module descriptor
// record. Descriptors never carry code.
func (e Entry) IsModuleDescriptor() bool {
	return e.typ == EntryRecord && path.Base(e.path) == ModuleDescriptor+RecordExt
}

// CopyWithContent returns an entry with the same path and new content.
func (e Entry) CopyWithContent(content []byte) Entry {
	e.content = content
	return e
}

// Pool is an ordered, read-only record set.
type Pool struct {
	entries []Entry
	index   map[string]int
}

// New builds a pool preserving the given order. Duplicate paths fail.
func New(entries ...Entry) (*Pool, error) {
	p := &Pool{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if _, dup := p.index[e.path]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntry, e.path)
		}
		p.index[e.path] = len(p.entries)
		p.entries = append(p.entries, e)
	}
	return p, nil
}

// Len returns the number of entries.
func (p *Pool) Len() int {
	return len(p.entries)
}

// Entries yields entries in pool order.
func (p *Pool) Entries() iter.Seq[Entry] {
	return slices.Values(p.entries)
}

// All returns a copy of the entry slice.
func (p *Pool) All() []Entry {
	return slices.Clone(p.entries)
}

// Find returns the entry with the given path.
func (p *Pool) Find(path string) (Entry, bool) {
	i, ok := p.index[path]
	if !ok {
		return Entry{}, false
	}
	return p.entries[i], true
}

// Sink receives entries. Builder and Holder implement it.
type Sink interface {
	Add(e Entry) error
}

// Builder accumulates output entries. Safe for concurrent use.
type Builder struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{entries: make(map[string]Entry)}
}

// Add stores an entry. Adding the same path twice fails.
func (b *Builder) Add(e Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.entries[e.path]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateEntry, e.path)
	}
	b.entries[e.path] = e
	return nil
}

// Len returns the number of entries added so far.
func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Build returns the accumulated entries as a pool ordered by path, so the
// output does not depend on the order concurrent workers added entries.
func (b *Builder) Build() *Pool {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(x, y Entry) int {
		return strings.Compare(x.path, y.path)
	})
	p, _ := New(entries...) // paths are unique by construction
	return p
}
