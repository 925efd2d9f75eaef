package history

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/roach88/weavelog/internal/codec"
	"github.com/roach88/weavelog/internal/ir"
	"github.com/roach88/weavelog/internal/typing"
)

// CellError records a cell that could not be decoded as declared.
//
// A non-fatal CellError means the cell's _weave_type could not be parsed and
// the cell was decoded structurally from its raw JSON instead. A fatal one
// means the cell could not be decoded at all (nesting too deep) and was
// dropped from the decoded row.
type CellError struct {
	Row    int
	Column string
	Cause  error
	Fatal  bool
}

// Error implements the error interface.
func (e CellError) Error() string {
	kind := "fallback"
	if e.Fatal {
		kind = "dropped"
	}
	return fmt.Sprintf("row %d column %q (%s): %v", e.Row, e.Column, kind, e.Cause)
}

// Unwrap returns the underlying decode error.
func (e CellError) Unwrap() error {
	return e.Cause
}

// Table is a decoded row sequence with reconciled column types.
type Table struct {
	SessionID string

	// Rows holds the decoded rows in input order, wrappers stripped.
	Rows []*ir.Dict

	// Columns maps each column to the merge of its type over every row, in
	// first-seen order. A column missing from any row is optional.
	Columns ir.Fields

	// Warnings is sorted by row, then by column order within the row.
	Warnings []CellError
}

// Fatal returns the warnings for dropped cells.
func (t *Table) Fatal() []CellError {
	var out []CellError
	for _, w := range t.Warnings {
		if w.Fatal {
			out = append(out, w)
		}
	}
	return out
}

// Decoder reconciles column types across historic rows.
// A Decoder is safe for concurrent use.
type Decoder struct {
	codec   *codec.Codec
	workers int
	logger  *slog.Logger
	ids     SessionIDGenerator
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithWorkers sets the number of goroutines used to decode rows.
// Values below 1 select runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(d *Decoder) {
		d.workers = n
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) {
		d.logger = l
	}
}

// WithSessionIDs sets the session ID generator. Defaults to UUIDv7Generator.
func WithSessionIDs(g SessionIDGenerator) Option {
	return func(d *Decoder) {
		d.ids = g
	}
}

// New creates a Decoder. Cells are always decoded leniently, whatever mode c
// was built with.
func New(c *codec.Codec, opts ...Option) *Decoder {
	d := &Decoder{
		codec:  c.WithMode(codec.Lenient),
		logger: slog.Default(),
		ids:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.workers < 1 {
		d.workers = runtime.GOMAXPROCS(0)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// partial is one chunk's share of the table.
type partial struct {
	rows     []*ir.Dict
	order    []string
	types    map[string]ir.Type
	present  map[string]int
	warnings []CellError
}

// DecodeTable decodes every cell of rows and reconciles the column types.
//
// Cells are decoded independently, so one bad cell never aborts the table.
// Rows are split into contiguous chunks decoded in parallel. Each chunk folds
// its own column types and the partial results are merged in chunk order,
// which is exact because Merge is associative and commutative.
//
// The only error returned is ctx.Err() after cancellation.
func (d *Decoder) DecodeTable(ctx context.Context, rows []*ir.Dict) (*Table, error) {
	sessionID := d.ids.Generate()
	workers := min(d.workers, max(len(rows), 1))
	chunk := (len(rows) + workers - 1) / workers

	d.logger.Debug("decoding table",
		"session", sessionID,
		"rows", len(rows),
		"workers", workers,
	)

	parts := make([]partial, workers)
	if workers == 1 {
		parts[0] = d.decodeChunk(ctx, rows, 0)
	} else {
		var wg sync.WaitGroup
		for w := range workers {
			start := min(w*chunk, len(rows))
			end := min(start+chunk, len(rows))
			wg.Add(1)
			go func() {
				defer wg.Done()
				parts[w] = d.decodeChunk(ctx, rows[start:end], start)
			}()
		}
		wg.Wait()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table := reduce(parts, len(rows))
	table.SessionID = sessionID

	for _, w := range table.Warnings {
		d.logger.Warn("cell decode failed",
			"session", sessionID,
			"row", w.Row,
			"column", w.Column,
			"fatal", w.Fatal,
			"error", w.Cause,
		)
	}
	d.logger.Info("decoded table",
		"session", sessionID,
		"rows", len(table.Rows),
		"columns", table.Columns.Len(),
		"warnings", len(table.Warnings),
	)
	return table, nil
}

func (d *Decoder) decodeChunk(ctx context.Context, rows []*ir.Dict, offset int) partial {
	p := partial{
		rows:    make([]*ir.Dict, 0, len(rows)),
		types:   make(map[string]ir.Type),
		present: make(map[string]int),
	}

	for i, row := range rows {
		if ctx.Err() != nil {
			return p
		}
		decoded, errs := d.decodeRow(row, offset+i, &p)
		p.rows = append(p.rows, decoded)
		p.warnings = append(p.warnings, errs...)
	}
	return p
}

func (d *Decoder) decodeRow(row *ir.Dict, index int, p *partial) (*ir.Dict, []CellError) {
	var errs []CellError
	pairs := make([]ir.Pair, 0, row.Len())

	for _, cell := range row.Pairs() {
		res, err := d.codec.Decode(cell.Value)
		if err != nil {
			errs = append(errs, CellError{Row: index, Column: cell.Key, Cause: err, Fatal: true})
			continue
		}
		if res.Fallback != nil {
			errs = append(errs, CellError{Row: index, Column: cell.Key, Cause: res.Fallback})
		}

		pairs = append(pairs, ir.P(cell.Key, res.Value))
		if prev, ok := p.types[cell.Key]; ok {
			p.types[cell.Key] = typing.Merge(prev, res.Type)
		} else {
			p.order = append(p.order, cell.Key)
			p.types[cell.Key] = res.Type
		}
		p.present[cell.Key]++
	}
	return ir.NewDict(pairs...), errs
}

// reduce merges chunk partials in order. A column seen in fewer than total
// rows is made optional.
func reduce(parts []partial, total int) *Table {
	table := &Table{Rows: make([]*ir.Dict, 0, total)}

	var order []string
	types := make(map[string]ir.Type)
	present := make(map[string]int)

	for _, p := range parts {
		table.Rows = append(table.Rows, p.rows...)
		table.Warnings = append(table.Warnings, p.warnings...)
		for _, name := range p.order {
			if prev, ok := types[name]; ok {
				types[name] = typing.Merge(prev, p.types[name])
			} else {
				order = append(order, name)
				types[name] = p.types[name]
			}
			present[name] += p.present[name]
		}
	}

	fields := make([]ir.Field, 0, len(order))
	for _, name := range order {
		t := types[name]
		if present[name] < total {
			t = typing.Merge(t, ir.NoneType{})
		}
		fields = append(fields, ir.F(name, t))
	}
	table.Columns = ir.NewFields(fields...)
	return table
}
