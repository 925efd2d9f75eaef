// Package history decodes tables of logged rows.
//
// Rows may mix the wrapper encoding with plain JSON written before wrappers
// existed; each cell is decoded on its own by package codec in lenient mode.
// The per-column types of all rows are reconciled into one schema with
// typing.Merge, and cells whose declared types cannot be read are reported as
// CellError warnings instead of failing the table.
package history
