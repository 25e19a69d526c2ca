// Package tabular loads spreadsheet-style metadata tables under uncertain
// text encoding.
//
// Delimited text is decoded through a fixed cascade (UTF-8 strict, UTF-8 with
// BOM stripped, Latin-1) with the winning attempt recorded on the Source so
// fallback decodes can be surfaced to the user. The delimiter is detected
// from a short sample, headers are trimmed and de-duplicated, and rows whose
// cell count mismatches the header count are dropped with a recorded warning
// rather than failing the load. XLSX workbooks are supported through the same
// Source type. Sources are immutable once built.
package tabular
