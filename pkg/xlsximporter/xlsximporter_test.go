package xlsximporter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bcaldwell/bistroledger/pkg/apperror"
	"github.com/bcaldwell/bistroledger/pkg/config"
	"github.com/bcaldwell/bistroledger/pkg/financialimporter"
	"github.com/bcaldwell/bistroledger/pkg/ledger"
)

func workbook(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadWorkbook(t *testing.T) {
	data := workbook(t,
		[]interface{}{"Relevé de compte"},
		[]interface{}{"Date", "Libellé", "Montant"},
		[]interface{}{time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), "PRLV EDF", -45.5},
		[]interface{}{"06/01/2024", "CB METRO", "-12,30"},
	)

	rows, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	date, ok := financialimporter.ParseDate(rows[0].Date)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), date)
	assert.Equal(t, -45.5, financialimporter.ParseAmount(rows[0].Amount))
	assert.Equal(t, "PRLV EDF", rows[0].Description)

	date, ok = financialimporter.ParseDate(rows[1].Date)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), date)
	assert.Equal(t, -12.3, financialimporter.ParseAmount(rows[1].Amount))
}

func TestReadRejectsInvalidFiles(t *testing.T) {
	_, err := Read(strings.NewReader("not a workbook"))
	require.Error(t, err)
	assert.Equal(t, apperror.Validation, apperror.KindOf(err))

	_, err = Read(bytes.NewReader(workbook(t, []interface{}{"Date", "Montant"}, []interface{}{"05/01/2024", 10})))
	require.Error(t, err)
	assert.Equal(t, apperror.Validation, apperror.KindOf(err))
}

func TestImportXLSXRunnerCapsRows(t *testing.T) {
	rows := [][]interface{}{{"Date", "Libellé", "Montant"}}
	for i := 1; i <= 5; i++ {
		rows = append(rows, []interface{}{"05/01/2024", "CB METRO", -float64(i)})
	}
	path := filepath.Join(t.TempDir(), "releve.xlsx")
	require.NoError(t, os.WriteFile(path, workbook(t, rows...), 0o600))

	store := ledger.NewMemoryStore()
	importer := financialimporter.NewTransactionImporter(store, financialimporter.NewRules(config.FinanceConfig{}), 15, financialimporter.WithMaxRows(3))
	require.NoError(t, NewImportXLSXRunner(importer, path).Run())

	txs, err := store.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Len(t, txs, 3)
}
