// Package store provides SQLite-backed storage for typed log rows.
//
// The store keeps two tables:
//   - log_rows: append-only JSON rows, one sequence per logical table
//   - column_schemas: the reconciled column types of a table, as canonical
//     type trees with their fingerprints
//
// # Ordering
//
// Rows are read back ORDER BY seq ASC. seq is assigned inside the append
// transaction as one past the table's current maximum, so it is gap-free for
// a single writer and never depends on wall time.
//
// # Integrity
//
// Rows are stored as JSON text in their original key order, together with
// ir.RowHash of the row. ReadRows recomputes the hash and rejects rows that
// no longer match.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Table names are NFC-normalized before use, so visually identical names
// written with different Unicode compositions address the same table.
package store
