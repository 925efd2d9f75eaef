package history

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/weavelog/internal/ir"
)

// ReadJSONL reads one JSON object per line. Blank lines are skipped.
// Lines have no length limit.
func ReadJSONL(r io.Reader) ([]*ir.Dict, error) {
	br := bufio.NewReader(r)
	var rows []*ir.Dict

	for lineNo := 1; ; lineNo++ {
		line, err := br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read line %d: %w", lineNo, err)
		}

		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			row, perr := ir.ParseDict(trimmed)
			if perr != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, perr)
			}
			rows = append(rows, row)
		}

		if errors.Is(err, io.EOF) {
			return rows, nil
		}
	}
}

// DecodeJSONL reads rows from r and decodes them as one table.
func DecodeJSONL(ctx context.Context, d *Decoder, r io.Reader) (*Table, error) {
	rows, err := ReadJSONL(r)
	if err != nil {
		return nil, err
	}
	return d.DecodeTable(ctx, rows)
}
