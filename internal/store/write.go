package store

import (
	"context"
	"fmt"

	"github.com/roach88/weavelog/internal/ir"
)

// AppendRows appends rows to a table in a single transaction.
// Each row gets the next seq for the table; the first and last assigned seq
// are returned. Appending no rows is a no-op that returns (0, 0, nil).
func (s *Store) AppendRows(ctx context.Context, table string, rows []*ir.Dict) (first, last int64, err error) {
	name, err := normalizeTable(table)
	if err != nil {
		return 0, 0, fmt.Errorf("append rows: %w", err)
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("append rows: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var maxSeq int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM log_rows WHERE table_name = ?
	`, name).Scan(&maxSeq)
	if err != nil {
		return 0, 0, fmt.Errorf("append rows: current seq: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO log_rows (table_name, seq, row_json, row_hash)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("append rows: prepare: %w", err)
	}
	defer stmt.Close()

	seq := maxSeq
	for i, row := range rows {
		data, hash, err := marshalRow(row)
		if err != nil {
			return 0, 0, fmt.Errorf("append rows: row %d: %w", i, err)
		}
		seq++
		if _, err := stmt.ExecContext(ctx, name, seq, data, hash); err != nil {
			return 0, 0, fmt.Errorf("append rows: insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("append rows: commit: %w", err)
	}

	return maxSeq + 1, seq, nil
}

// SaveColumns replaces the stored column schema of a table.
// Columns are stored in order together with the session that produced them.
func (s *Store) SaveColumns(ctx context.Context, table, sessionID string, cols ir.Fields) error {
	name, err := normalizeTable(table)
	if err != nil {
		return fmt.Errorf("save columns: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save columns: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM column_schemas WHERE table_name = ?`, name); err != nil {
		return fmt.Errorf("save columns: clear: %w", err)
	}

	for pos, f := range cols.List() {
		tree, fp := marshalColumn(f.Type)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO column_schemas
			(table_name, position, column_name, type_tree, fingerprint, session_id)
			VALUES (?, ?, ?, ?, ?, ?)
		`, name, pos, f.Name, tree, fp, sessionID)
		if err != nil {
			return fmt.Errorf("save columns: insert %q: %w", f.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save columns: commit: %w", err)
	}
	return nil
}
