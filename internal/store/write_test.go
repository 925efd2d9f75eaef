package store

import (
	"context"
	"errors"
	"testing"

	"github.com/roach88/weavelog/internal/ir"
)

func TestAppendRows_AssignsSequentialSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, last, err := s.AppendRows(ctx, "events", parseRows(t, `{"a": 1}`, `{"a": 2}`))
	if err != nil {
		t.Fatalf("AppendRows() failed: %v", err)
	}
	if first != 1 || last != 2 {
		t.Errorf("seq range = [%d, %d], want [1, 2]", first, last)
	}

	first, last, err = s.AppendRows(ctx, "events", parseRows(t, `{"a": 3}`))
	if err != nil {
		t.Fatalf("second AppendRows() failed: %v", err)
	}
	if first != 3 || last != 3 {
		t.Errorf("seq range = [%d, %d], want [3, 3]", first, last)
	}
}

func TestAppendRows_SeqIsPerTable(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, _, err := s.AppendRows(ctx, "a", parseRows(t, `{"x": 1}`, `{"x": 2}`)); err != nil {
		t.Fatalf("AppendRows(a) failed: %v", err)
	}
	first, _, err := s.AppendRows(ctx, "b", parseRows(t, `{"x": 1}`))
	if err != nil {
		t.Fatalf("AppendRows(b) failed: %v", err)
	}
	if first != 1 {
		t.Errorf("first seq in new table = %d, want 1", first)
	}
}

func TestAppendRows_StoresKeyOrderAndHash(t *testing.T) {
	s := createTestStore(t)
	row := parseRows(t, `{"zeta": 1, "alpha": {"_type": "", "_weave_type": "int", "_val": 2}}`)[0]

	if _, _, err := s.AppendRows(context.Background(), "events", []*ir.Dict{row}); err != nil {
		t.Fatalf("AppendRows() failed: %v", err)
	}

	var data, hash string
	err := s.db.QueryRow(`SELECT row_json, row_hash FROM log_rows WHERE table_name = ?`, "events").Scan(&data, &hash)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	want := `{"zeta":1,"alpha":{"_type":"","_weave_type":"int","_val":2}}`
	if data != want {
		t.Errorf("row_json = %s, want %s", data, want)
	}

	wantHash, err := ir.RowHash(row)
	if err != nil {
		t.Fatalf("RowHash() failed: %v", err)
	}
	if hash != wantHash {
		t.Errorf("row_hash = %s, want %s", hash, wantHash)
	}
}

func TestAppendRows_Empty(t *testing.T) {
	s := createTestStore(t)

	first, last, err := s.AppendRows(context.Background(), "events", nil)
	if err != nil {
		t.Fatalf("AppendRows(nil) failed: %v", err)
	}
	if first != 0 || last != 0 {
		t.Errorf("seq range = [%d, %d], want [0, 0]", first, last)
	}
}

func TestAppendRows_EmptyTableName(t *testing.T) {
	s := createTestStore(t)

	_, _, err := s.AppendRows(context.Background(), "", parseRows(t, `{"a": 1}`))
	if !errors.Is(err, ErrEmptyTableName) {
		t.Errorf("err = %v, want ErrEmptyTableName", err)
	}
}

func TestAppendRows_NormalizesTableName(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	decomposed := "cafe\u0301"
	composed := "caf\u00e9"

	if _, _, err := s.AppendRows(ctx, decomposed, parseRows(t, `{"a": 1}`)); err != nil {
		t.Fatalf("AppendRows() failed: %v", err)
	}
	rows, err := s.ReadRows(ctx, composed)
	if err != nil {
		t.Fatalf("ReadRows() failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("len(rows) = %d, want 1", len(rows))
	}
}

func TestAppendRows_CancelledContextWritesNothing(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := s.AppendRows(ctx, "events", parseRows(t, `{"a": 1}`)); err == nil {
		t.Fatal("expected error for cancelled context")
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM log_rows`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestSaveColumns_ReplacesSchema(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	old := ir.NewFields(ir.F("gone", ir.IntType{}))
	if err := s.SaveColumns(ctx, "events", "s-1", old); err != nil {
		t.Fatalf("SaveColumns() failed: %v", err)
	}

	cols := ir.NewFields(
		ir.F("zeta", ir.Optional(ir.StringType{})),
		ir.F("alpha", ir.NewList(ir.IntType{})),
	)
	if err := s.SaveColumns(ctx, "events", "s-2", cols); err != nil {
		t.Fatalf("SaveColumns() failed: %v", err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM column_schemas WHERE table_name = ?`, "events").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("stored columns = %d, want 2", count)
	}

	var tree, fp, session string
	err := s.db.QueryRow(`
		SELECT type_tree, fingerprint, session_id FROM column_schemas
		WHERE table_name = ? AND column_name = ?
	`, "events", "alpha").Scan(&tree, &fp, &session)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if tree != `{"type":"list","objectType":{"type":"int"}}` {
		t.Errorf("type_tree = %s", tree)
	}
	if fp != ir.Fingerprint(ir.NewList(ir.IntType{})) {
		t.Errorf("fingerprint = %s", fp)
	}
	if session != "s-2" {
		t.Errorf("session_id = %q, want s-2", session)
	}
}
