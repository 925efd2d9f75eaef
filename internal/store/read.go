package store

import (
	"context"
	"fmt"

	"github.com/roach88/weavelog/internal/ir"
)

// TableInfo summarises one logical table.
type TableInfo struct {
	Name string
	Rows int64
}

// StoredColumn is one column of a saved schema.
type StoredColumn struct {
	Name        string
	Type        ir.Type
	Fingerprint string
	SessionID   string
}

// ReadRows returns all rows of a table ordered by seq ASC.
// Every row is checked against its stored hash.
//
// Returns an empty slice (not nil) if the table has no rows.
func (s *Store) ReadRows(ctx context.Context, table string) ([]*ir.Dict, error) {
	name, err := normalizeTable(table)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, row_json, row_hash
		FROM log_rows
		WHERE table_name = ?
		ORDER BY seq ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	out := []*ir.Dict{}
	for rows.Next() {
		var (
			seq        int64
			data, hash string
		)
		if err := rows.Scan(&seq, &data, &hash); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row, err := unmarshalRow(data, hash)
		if err != nil {
			return nil, fmt.Errorf("table %q seq %d: %w", name, seq, err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return out, nil
}

// Tables lists the logical tables with their row counts, ordered by name.
func (s *Store) Tables(ctx context.Context) ([]TableInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT table_name, COUNT(*)
		FROM log_rows
		GROUP BY table_name
		ORDER BY table_name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	out := []TableInfo{}
	for rows.Next() {
		var info TableInfo
		if err := rows.Scan(&info.Name, &info.Rows); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		out = append(out, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	return out, nil
}

// ReadColumns returns the saved schema of a table in column order.
// reg must accept every custom type name used in the stored trees.
//
// Returns an empty slice (not nil) if no schema was saved.
func (s *Store) ReadColumns(ctx context.Context, table string, reg *ir.Registry) ([]StoredColumn, error) {
	name, err := normalizeTable(table)
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT column_name, type_tree, fingerprint, session_id
		FROM column_schemas
		WHERE table_name = ?
		ORDER BY position ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	out := []StoredColumn{}
	for rows.Next() {
		var col StoredColumn
		var tree string
		if err := rows.Scan(&col.Name, &tree, &col.Fingerprint, &col.SessionID); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		col.Type, err = unmarshalColumn(tree, col.Fingerprint, reg)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		out = append(out, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	return out, nil
}

// Fields converts stored columns to ordered Fields.
func Fields(cols []StoredColumn) ir.Fields {
	fields := make([]ir.Field, len(cols))
	for i, c := range cols {
		fields[i] = ir.F(c.Name, c.Type)
	}
	return ir.NewFields(fields...)
}
