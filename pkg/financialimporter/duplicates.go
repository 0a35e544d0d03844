package financialimporter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"k8s.io/klog"

	"github.com/bcaldwell/bistroledger/pkg/apperror"
	"github.com/bcaldwell/bistroledger/pkg/ledger"
)

// ExistingLookup answers the exact-match duplicate question against the ledger.
type ExistingLookup interface {
	TransactionExists(ctx context.Context, date time.Time, amount decimal.Decimal, description string) (bool, error)
}

// IsDuplicate is the live import check: a candidate is a duplicate when a stored
// transaction has the same full timestamp, the same amount and the same description.
func IsDuplicate(ctx context.Context, candidate ledger.BankTransaction, lookup ExistingLookup) (bool, error) {
	return lookup.TransactionExists(ctx, candidate.Date, candidate.Amount, candidate.Description)
}

// DuplicateKey is the grouping key of the bulk audit: calendar day, amount and description.
func DuplicateKey(t ledger.BankTransaction) string {
	return strings.Join([]string{
		t.Date.UTC().Format("2006-01-02"),
		t.Amount.StringFixed(2),
		t.Description,
	}, "|")
}

type DuplicateGroup struct {
	Key    string  `json:"key"`
	Keep   int64   `json:"keep"`
	Remove []int64 `json:"remove"`
}

// FindDuplicateGroups groups txs by DuplicateKey in a single pass. The first
// transaction seen for a key is kept, every later one is flagged. Groups are
// returned in the order their key was first seen.
func FindDuplicateGroups(txs []ledger.BankTransaction) []DuplicateGroup {
	index := make(map[string]int)
	var groups []DuplicateGroup

	for _, t := range txs {
		key := DuplicateKey(t)
		i, seen := index[key]
		if !seen {
			index[key] = len(groups)
			groups = append(groups, DuplicateGroup{Key: key, Keep: t.ID})
			continue
		}
		groups[i].Remove = append(groups[i].Remove, t.ID)
	}

	duplicated := groups[:0]
	for _, g := range groups {
		if len(g.Remove) > 0 {
			duplicated = append(duplicated, g)
		}
	}
	return duplicated
}

// DuplicateIDsToRemove flattens FindDuplicateGroups into the ids to delete.
func DuplicateIDsToRemove(txs []ledger.BankTransaction) []int64 {
	var ids []int64
	for _, g := range FindDuplicateGroups(txs) {
		ids = append(ids, g.Remove...)
	}
	return ids
}

type CleanupReport struct {
	Groups  int `json:"groups"`
	Flagged int `json:"flagged"`
	Deleted int `json:"deleted"`
}

// Deduplicator runs the grouping audit over the whole ledger.
type Deduplicator struct {
	store ledger.Store
}

func NewDeduplicator(store ledger.Store) *Deduplicator {
	return &Deduplicator{store: store}
}

func (d *Deduplicator) Audit(ctx context.Context) ([]DuplicateGroup, error) {
	txs, err := d.store.ListTransactions(ctx)
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, err, "failed to load transactions")
	}
	return FindDuplicateGroups(txs), nil
}

// Cleanup deletes every flagged duplicate. Rows that are already gone are not an error.
func (d *Deduplicator) Cleanup(ctx context.Context) (CleanupReport, error) {
	groups, err := d.Audit(ctx)
	if err != nil {
		return CleanupReport{}, err
	}

	report := CleanupReport{Groups: len(groups)}
	var ids []int64
	for _, g := range groups {
		klog.V(2).Infof("Removing duplicates %s", g.String())
		ids = append(ids, g.Remove...)
	}
	report.Flagged = len(ids)

	report.Deleted, err = d.store.DeleteTransactions(ctx, ids)
	if err != nil {
		return report, apperror.Wrap(apperror.Persistence, err, "failed to delete duplicate transactions")
	}

	if report.Deleted < report.Flagged {
		klog.Warningf("%d of %d duplicate transactions were already deleted", report.Flagged-report.Deleted, report.Flagged)
	}
	klog.Infof("Removed %d duplicate transactions across %d groups", report.Deleted, report.Groups)

	return report, nil
}

func (g DuplicateGroup) String() string {
	return fmt.Sprintf("%s keep=%d remove=%v", g.Key, g.Keep, g.Remove)
}
