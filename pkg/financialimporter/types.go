package financialimporter

import "context"

type Source string

const (
	SourceCSV     Source = "csv"
	SourceXLSX    Source = "xlsx"
	SourceBankAPI Source = "bank-api"
)

// Spreadsheet sources are capped at the configured row limit.
func (s Source) Spreadsheet() bool {
	return s == SourceCSV || s == SourceXLSX
}

// RawRow is one unparsed line from a CSV, a spreadsheet or a bank API payload.
type RawRow struct {
	// 1-based position in the source, used in logs only
	Line        int
	Date        any
	Amount      any
	Description string
	Reference   string
	// credit/debit indicator, only set by bank API payloads
	Indicator string
	Pending   bool
}

type ImportStats struct {
	BatchID     string `json:"batchId"`
	Source      Source `json:"source"`
	Rows        int    `json:"rows"`
	Imported    int    `json:"imported"`
	Duplicates  int    `json:"duplicates"`
	Skipped     int    `json:"skipped"`
	Truncated   int    `json:"truncated"`
	Reconciled  int    `json:"reconciled"`
	Categorized int    `json:"categorized"`
}

// StatsRecorder receives the statistics of every finished import.
type StatsRecorder interface {
	RecordImport(ctx context.Context, stats ImportStats) error
}
