package excel

import "propztest/domain/stats"

// RawRowData represents a row of raw spreadsheet data as header/value pairs
type RawRowData map[string]string

// SheetData represents the rows read from one sheet or CSV file
type SheetData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// ColumnSpec names the two outcome columns that form a sample pair.
// Under ConventionCounts each sample carries its success count; otherwise
// it carries the observed proportion.
type ColumnSpec struct {
	ColumnA    string
	ColumnB    string
	Sheet      string // xlsx only; empty means the first sheet
	Convention stats.Convention
}
