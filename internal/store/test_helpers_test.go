package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/weavelog/internal/ir"
)

// createTestStore creates a new on-disk store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// parseRows parses JSON object literals into rows.
func parseRows(t *testing.T, lines ...string) []*ir.Dict {
	t.Helper()
	rows := make([]*ir.Dict, len(lines))
	for i, l := range lines {
		d, err := ir.ParseDict([]byte(l))
		if err != nil {
			t.Fatalf("ParseDict(%q) failed: %v", l, err)
		}
		rows[i] = d
	}
	return rows
}

// rowJSON marshals a row for comparison.
func rowJSON(t *testing.T, row *ir.Dict) string {
	t.Helper()
	data, err := ir.MarshalValue(row)
	if err != nil {
		t.Fatalf("MarshalValue() failed: %v", err)
	}
	return string(data)
}
