package financialimporter

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"k8s.io/klog"

	"github.com/bcaldwell/bistroledger/pkg/apperror"
	"github.com/bcaldwell/bistroledger/pkg/config"
	"github.com/bcaldwell/bistroledger/pkg/ledger"
)

type Option func(*TransactionImporter)

func WithMaxRows(n int) Option {
	return func(i *TransactionImporter) {
		if n > 0 {
			i.maxRows = n
		}
	}
}

func WithStatsRecorder(r StatsRecorder) Option {
	return func(i *TransactionImporter) {
		i.recorder = r
	}
}

func NewTransactionImporter(store ledger.Store, rules Rules, reconcileWindowDays int, opts ...Option) *TransactionImporter {
	importer := &TransactionImporter{
		store:      store,
		matcher:    NewCategoryMatcher(rules, store),
		reconciler: NewReconciler(store, reconcileWindowDays),
		maxRows:    config.DefaultMaxImportRows,
	}
	for _, opt := range opts {
		opt(importer)
	}
	return importer
}

// TransactionImporter runs parsed rows through dedup, reconciliation and
// categorization and stores what is new. Rows are handled one at a time; rows
// committed before a failure stay committed.
type TransactionImporter struct {
	store      ledger.Store
	matcher    *CategoryMatcher
	reconciler *Reconciler
	recorder   StatsRecorder
	maxRows    int
}

func (importer *TransactionImporter) Import(ctx context.Context, rows []RawRow, source Source) (ImportStats, error) {
	stats := ImportStats{BatchID: uuid.NewString(), Source: source, Rows: len(rows)}

	if source.Spreadsheet() && len(rows) > importer.maxRows {
		stats.Truncated = len(rows) - importer.maxRows
		rows = rows[:importer.maxRows]
		klog.Warningf("[%s] %s import capped at %d rows, ignoring %d", stats.BatchID, source, importer.maxRows, stats.Truncated)
	}

	fixedCosts, err := importer.store.ActiveFixedCosts(ctx)
	if err != nil {
		return stats, apperror.Wrap(apperror.Persistence, err, "failed to load fixed costs")
	}

	for _, row := range rows {
		t, reason := importer.normalize(row, source)
		if t == nil {
			stats.Skipped++
			klog.V(2).Infof("[%s] skipping line %d: %s", stats.BatchID, row.Line, reason)
			continue
		}
		t.ImportBatch = stats.BatchID

		duplicate, err := IsDuplicate(ctx, *t, importer.store)
		if err != nil {
			return importer.finish(ctx, stats, apperror.Wrap(apperror.Persistence, err, "failed to check for duplicates"))
		}
		if duplicate {
			stats.Duplicates++
			continue
		}

		reconciled, err := importer.reconciler.Apply(ctx, t)
		if err != nil {
			return importer.finish(ctx, stats, apperror.Wrap(apperror.Persistence, err, "failed to search purchase orders"))
		}

		t.CategoryID, err = importer.matcher.AssignCategory(ctx, t.Description, fixedCosts)
		if err != nil {
			return importer.finish(ctx, stats, apperror.Wrap(apperror.Persistence, err, "failed to categorize transaction"))
		}

		if err := importer.store.InsertTransaction(ctx, t); err != nil {
			return importer.finish(ctx, stats, apperror.Wrap(apperror.Persistence, err, fmt.Sprintf("failed to save transaction on line %d", row.Line)))
		}

		stats.Imported++
		if reconciled {
			stats.Reconciled++
		}
		if t.CategoryID != nil {
			stats.Categorized++
		}
	}

	return importer.finish(ctx, stats, nil)
}

func (importer *TransactionImporter) finish(ctx context.Context, stats ImportStats, err error) (ImportStats, error) {
	if err != nil {
		klog.Errorf("[%s] %s import stopped after %d rows: %v", stats.BatchID, stats.Source, stats.Imported+stats.Duplicates+stats.Skipped, err)
	}

	klog.Infof("[%s] %s import: %d imported, %d duplicates, %d skipped, %d reconciled, %d categorized",
		stats.BatchID, stats.Source, stats.Imported, stats.Duplicates, stats.Skipped, stats.Reconciled, stats.Categorized)

	if importer.recorder != nil {
		if recordErr := importer.recorder.RecordImport(ctx, stats); recordErr != nil {
			klog.Warningf("[%s] failed to record import stats: %v", stats.BatchID, recordErr)
		}
	}

	return stats, err
}

// normalize parses a raw row into a transaction. A nil transaction comes with the reason it was skipped.
func (importer *TransactionImporter) normalize(row RawRow, source Source) (*ledger.BankTransaction, string) {
	date, ok := ParseDate(row.Date)
	if !ok {
		return nil, fmt.Sprintf("invalid date %v", row.Date)
	}

	amount := ParseAmount(row.Amount)
	if !ValidAmount(amount) {
		return nil, fmt.Sprintf("invalid or zero amount %v", row.Amount)
	}

	description := strings.TrimSpace(row.Description)
	if description == "" {
		return nil, "empty description"
	}

	if source == SourceBankAPI {
		amount = applyIndicator(amount, row.Indicator)
	}

	status := ledger.StatusCompleted
	if row.Pending {
		status = ledger.StatusPending
	}

	return &ledger.BankTransaction{
		Date:        date,
		Amount:      ToMoney(amount),
		Description: description,
		Reference:   strings.TrimSpace(row.Reference),
		Status:      status,
	}, ""
}

// applyIndicator makes the sign agree with an explicit credit/debit indicator.
func applyIndicator(amount float64, indicator string) float64 {
	switch strings.ToUpper(strings.TrimSpace(indicator)) {
	case "DBIT", "DEBIT", "D":
		if amount > 0 {
			return -amount
		}
	case "CRDT", "CREDIT", "C":
		if amount < 0 {
			return -amount
		}
	}
	return amount
}
