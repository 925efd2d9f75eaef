package store

import (
	"fmt"

	"github.com/roach88/weavelog/internal/ir"
)

// marshalRow converts a row to JSON TEXT for storage, keeping its key order,
// and returns the row's content hash.
func marshalRow(row *ir.Dict) (data string, hash string, err error) {
	b, err := ir.MarshalValue(row)
	if err != nil {
		return "", "", fmt.Errorf("marshal row: %w", err)
	}
	hash, err = ir.RowHash(row)
	if err != nil {
		return "", "", fmt.Errorf("marshal row: %w", err)
	}
	return string(b), hash, nil
}

// unmarshalRow parses stored JSON TEXT and checks it against the stored hash.
func unmarshalRow(data, hash string) (*ir.Dict, error) {
	row, err := ir.ParseDict([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal row: %w", err)
	}
	got, err := ir.RowHash(row)
	if err != nil {
		return nil, fmt.Errorf("unmarshal row: %w", err)
	}
	if got != hash {
		return nil, fmt.Errorf("unmarshal row: hash mismatch: stored %s, computed %s", hash, got)
	}
	return row, nil
}

// marshalColumn converts a column type to its canonical tree JSON and
// fingerprint.
func marshalColumn(t ir.Type) (tree string, fingerprint string) {
	return ir.TypeString(t), ir.Fingerprint(t)
}

// unmarshalColumn parses a stored type tree and checks its fingerprint.
func unmarshalColumn(tree, fingerprint string, reg *ir.Registry) (ir.Type, error) {
	t, err := ir.ParseTypeTreeJSON([]byte(tree), ir.ParseOptions{Registry: reg})
	if err != nil {
		return nil, fmt.Errorf("unmarshal column: %w", err)
	}
	if got := ir.Fingerprint(t); got != fingerprint {
		return nil, fmt.Errorf("unmarshal column: fingerprint mismatch: stored %s, computed %s", fingerprint, got)
	}
	return t, nil
}
