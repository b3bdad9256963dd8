// Package ir provides the shared data model for yodascan.
//
// This package contains type definitions and the canonical encoding of a
// finished Table. All other internal packages import ir; ir imports nothing
// internal. This keeps the data model the foundational layer with no
// circular dependencies.
//
// Key constraints:
//   - A histogram's identity is its name; there is no pointer identity.
//   - Value columns are indexed by scan-point processing order. Column i of
//     every bin belongs to Table.Points[i].
//   - Bin edges are compared exactly; no tolerance is ever applied.
//   - All JSON tags use snake_case.
package ir
