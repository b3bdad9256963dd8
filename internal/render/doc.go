// Package render writes a finished ir.Table to an output file.
//
// Renderers only read the table. The output format is chosen from the file
// extension: .json, .csv, .xlsx or .txt. The XLSX workbook holds one sheet
// and one overlay line chart per histogram, with one series per scan point.
package render
