// Package store provides SQLite-backed storage for finished scan tables.
//
// Each successful scan can be saved as a run. A run holds the table in
// normalized form:
//   - runs: one row per saved table with its digest and versions
//   - points: scan-point identifiers in column order
//   - parameters: the parameter set of every point, in file order
//   - histograms, bins, bin_values: the aggregated histograms
//
// # Ordering
//
// Every query orders by an explicit position column (column index, bin
// index, histogram position), never by rowid, so a table read back is
// identical to the one written. ReadTable recomputes the table digest and
// fails if it differs from the stored one.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
