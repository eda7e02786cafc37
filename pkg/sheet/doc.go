// Package sheet is the tabular data source: a CSV file addressed by
// spreadsheet-style column letters and 1-based row positions.
package sheet
