package testutil

// FixedRunIDGenerator returns the same run ID every time.
//
// Runs that share a generator produce byte-identical reports and ledger rows,
// which is what golden comparisons need.
//
// Thread-safety: stateless, safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a fixed generator. An empty id selects
// "test-run-default".
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run ID.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
