package csvimporter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcaldwell/bistroledger/pkg/apperror"
	"github.com/bcaldwell/bistroledger/pkg/config"
	"github.com/bcaldwell/bistroledger/pkg/financialimporter"
	"github.com/bcaldwell/bistroledger/pkg/ledger"
)

func TestReadSemicolonWithBOM(t *testing.T) {
	data := "\xEF\xBB\xBFCompte;12345\n\nDate;Libellé;Montant\n05/01/2024;PRLV EDF;-45,00\n06/01/2024;\"CB METRO; PARIS\";-1 234,56\n"

	rows, err := Read(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "PRLV EDF", rows[0].Description)
	assert.Equal(t, "CB METRO; PARIS", rows[1].Description)
	assert.Equal(t, -1234.56, financialimporter.ParseAmount(rows[1].Amount))
}

func TestReadCommaFallback(t *testing.T) {
	data := "Date,Description,Debit,Credit\n2024-01-05,PRLV EDF,45.00,\n2024-01-06,REMISE CB,,120.00\n"

	rows, err := Read(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, -45.0, rows[0].Amount)
	assert.Equal(t, 120.0, rows[1].Amount)
}

func TestReadMissingColumns(t *testing.T) {
	_, err := Read(strings.NewReader("foo;bar\n1;2\n"))
	require.Error(t, err)
	assert.Equal(t, apperror.Validation, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "missing required columns")
}

func TestImportCSVEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	require.NoError(t, store.InsertTransaction(ctx, &ledger.BankTransaction{
		Date:        time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.RequireFromString("-45"),
		Description: "PRLV EDF",
	}))
	po := store.AddPurchaseOrder(ledger.PurchaseOrder{
		Date:        time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		TotalAmount: decimal.RequireFromString("310.20"),
	})

	data := "Date;Libellé;Montant\n" +
		"05/01/2024;PRLV EDF;-45,00\n" +
		"08/01/2024;VIR TRANSGOURMET;-310,20\n" +
		"not a date;CB METRO;-12,00\n"

	rows, err := Read(strings.NewReader(data))
	require.NoError(t, err)

	rules := financialimporter.NewRules(config.FinanceConfig{})
	stats, err := financialimporter.NewTransactionImporter(store, rules, 15).Import(ctx, rows, financialimporter.SourceCSV)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Imported)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Reconciled)

	txs, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "VIR TRANSGOURMET", txs[1].Description)
	assert.Equal(t, ledger.StatusReconciled, txs[1].Status)
	require.NotNil(t, txs[1].PurchaseOrderID)
	assert.Equal(t, po.ID, *txs[1].PurchaseOrderID)
	for _, tx := range txs {
		assert.NotEqual(t, "CB METRO", tx.Description)
	}
}

func TestImportCSVRunner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "releve.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date;Libellé;Montant\n05/01/2024;LOYER JANVIER;-1500,00\n"), 0o600))

	store := ledger.NewMemoryStore()
	importer := financialimporter.NewTransactionImporter(store, financialimporter.NewRules(config.FinanceConfig{}), 15)
	require.NoError(t, NewImportCSVRunner(importer, path).Run())

	txs, err := store.ListTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "-1500", txs[0].Amount.String())

	assert.Error(t, NewImportCSVRunner(importer, filepath.Join(t.TempDir(), "missing.csv")).Run())
}
