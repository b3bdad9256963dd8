// Package scan drives a whole scan: it discovers scan-point directories,
// checks their input files, extracts each point and folds it into the
// aggregator in directory-name order.
//
// Missing inputs skip a point and the scan continues. Every other failure
// aborts the run and no table is returned. Diagnostics are reported as
// structured ir.Diagnostic values; formatting belongs to the Reporter.
package scan
