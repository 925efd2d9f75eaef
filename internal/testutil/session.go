package testutil

// FixedSessionGenerator returns the same session ID every time.
//
// This enables deterministic test execution and golden snapshot comparison.
// The same scenario with the same FixedSessionGenerator produces byte-identical
// snapshots.
//
// Unlike history.SequenceGenerator which returns IDs in sequence, this
// generator never runs out.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a new fixed session ID generator.
//
// The ID is typically set in the scenario YAML:
//
//	session_id: "test-session-00000000-0000-0000-0000-000000000001"
//
// If id is empty, Generate() returns "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session ID.
//
// Implements history.SessionIDGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
