package csvimporter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"k8s.io/klog"

	"github.com/bcaldwell/bistroledger/pkg/apperror"
	"github.com/bcaldwell/bistroledger/pkg/financialimporter"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Read parses a bank CSV export. French banks use ';' so it is tried first,
// files where that yields a single column are re-read with ','.
func Read(r io.Reader) ([]financialimporter.RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperror.Wrap(apperror.Validation, err, "failed to read csv file")
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	records, err := readRecords(data, ';')
	if err != nil {
		return nil, err
	}

	if singleColumn(records) {
		commaRecords, err := readRecords(data, ',')
		if err == nil && !singleColumn(commaRecords) {
			records = commaRecords
		}
	}

	return financialimporter.RowsFromTable(records)
}

func readRecords(data []byte, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(bufio.NewReader(bytes.NewReader(data)))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperror.Wrap(apperror.Validation, err, "failed to parse csv file")
	}
	return records, nil
}

func singleColumn(records [][]string) bool {
	for i, record := range records {
		if i >= 20 {
			break
		}
		if len(record) > 1 {
			return false
		}
	}
	return true
}

// ImportCSVRunner imports a csv file from disk, used by the import-csv task.
type ImportCSVRunner struct {
	importer *financialimporter.TransactionImporter
	csvFile  string
}

func NewImportCSVRunner(importer *financialimporter.TransactionImporter, csvFile string) *ImportCSVRunner {
	return &ImportCSVRunner{importer: importer, csvFile: csvFile}
}

func (i *ImportCSVRunner) Run() error {
	csvFile, err := os.Open(i.csvFile)
	if err != nil {
		return fmt.Errorf("failed to open %s csv file %w", i.csvFile, err)
	}
	defer csvFile.Close()

	rows, err := Read(csvFile)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", i.csvFile, err)
	}

	stats, err := i.importer.Import(context.Background(), rows, financialimporter.SourceCSV)
	if err != nil {
		return err
	}

	klog.Infof("Wrote %d transactions from csv file %s (%d duplicates, %d skipped)", stats.Imported, i.csvFile, stats.Duplicates, stats.Skipped)
	return nil
}
