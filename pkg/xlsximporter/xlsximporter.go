package xlsximporter

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
	"k8s.io/klog"

	"github.com/bcaldwell/bistroledger/pkg/apperror"
	"github.com/bcaldwell/bistroledger/pkg/financialimporter"
)

// Read parses the first sheet of a workbook. Cells are read raw so dates come
// back as serial numbers and amounts without display formatting.
func Read(r io.Reader) ([]financialimporter.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperror.Wrap(apperror.Validation, err, "failed to open workbook")
	}
	defer func() {
		if err := f.Close(); err != nil {
			klog.Warningf("failed to close workbook: %v", err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperror.New(apperror.Validation, "workbook has no sheets")
	}

	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperror.Wrap(apperror.Validation, err, fmt.Sprintf("failed to read sheet %s", sheets[0]))
	}

	return financialimporter.RowsFromTable(records)
}

// ImportXLSXRunner imports a workbook from disk, used by the import-xlsx task.
type ImportXLSXRunner struct {
	importer *financialimporter.TransactionImporter
	file     string
}

func NewImportXLSXRunner(importer *financialimporter.TransactionImporter, file string) *ImportXLSXRunner {
	return &ImportXLSXRunner{importer: importer, file: file}
}

func (i *ImportXLSXRunner) Run() error {
	f, err := os.Open(i.file)
	if err != nil {
		return fmt.Errorf("failed to open %s workbook %w", i.file, err)
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", i.file, err)
	}

	stats, err := i.importer.Import(context.Background(), rows, financialimporter.SourceXLSX)
	if err != nil {
		return err
	}

	klog.Infof("Wrote %d transactions from workbook %s (%d duplicates, %d skipped, %d over the row limit)",
		stats.Imported, i.file, stats.Duplicates, stats.Skipped, stats.Truncated)
	return nil
}
