package financialimporter

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"k8s.io/klog"

	"github.com/bcaldwell/bistroledger/pkg/apperror"
	"github.com/bcaldwell/bistroledger/pkg/config"
	"github.com/bcaldwell/bistroledger/pkg/ledger"
)

type PurchaseOrderFinder interface {
	UnpaidPurchaseOrders(ctx context.Context, amount decimal.Decimal, from, to time.Time) ([]ledger.PurchaseOrder, error)
}

// Reconciler links outgoing bank transactions to the unpaid purchase order they settle.
type Reconciler struct {
	finder     PurchaseOrderFinder
	windowDays int
}

func NewReconciler(finder PurchaseOrderFinder, windowDays int) *Reconciler {
	if windowDays <= 0 {
		windowDays = config.DefaultReconcileWindowDays
	}
	return &Reconciler{finder: finder, windowDays: windowDays}
}

// Window returns the inclusive date range searched for a transaction dated date.
// It spans whole calendar days.
func (r *Reconciler) Window(date time.Time) (time.Time, time.Time) {
	d := date.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	from := start.AddDate(0, 0, -r.windowDays)
	to := start.AddDate(0, 0, r.windowDays+1).Add(-time.Nanosecond)
	return from, to
}

// Reconcile returns the id of the purchase order t pays, or nil. Only outgoing
// transactions are considered. When several unpaid orders have the exact amount
// inside the window, the one dated closest to the transaction wins, then the
// earlier one, then the lower id.
func (r *Reconciler) Reconcile(ctx context.Context, t ledger.BankTransaction) (*int64, error) {
	if !t.Outgoing() {
		return nil, nil
	}

	from, to := r.Window(t.Date)
	orders, err := r.finder.UnpaidPurchaseOrders(ctx, t.Amount.Abs(), from, to)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}

	best := closestOrder(orders, t.Date)
	return &best.ID, nil
}

// Apply reconciles t in place, setting the purchase order link and RECONCILED status on a match.
func (r *Reconciler) Apply(ctx context.Context, t *ledger.BankTransaction) (bool, error) {
	id, err := r.Reconcile(ctx, *t)
	if err != nil || id == nil {
		return false, err
	}
	t.PurchaseOrderID = id
	t.Status = ledger.StatusReconciled
	return true, nil
}

func closestOrder(orders []ledger.PurchaseOrder, date time.Time) ledger.PurchaseOrder {
	sorted := append([]ledger.PurchaseOrder(nil), orders...)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := absDuration(sorted[i].Date.Sub(date)), absDuration(sorted[j].Date.Sub(date))
		if di != dj {
			return di < dj
		}
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted[0]
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// ReconcilePending retries reconciliation for stored outgoing transactions that
// are not linked yet, oldest first. Returns how many were linked.
func ReconcilePending(ctx context.Context, store ledger.Store, windowDays int) (int, error) {
	txs, err := store.UnreconciledOutgoing(ctx)
	if err != nil {
		return 0, apperror.Wrap(apperror.Persistence, err, "failed to load unreconciled transactions")
	}

	reconciler := NewReconciler(store, windowDays)
	linked := 0
	for _, t := range txs {
		id, err := reconciler.Reconcile(ctx, t)
		if err != nil {
			return linked, apperror.Wrap(apperror.Persistence, err, "failed to search purchase orders")
		}
		if id == nil {
			continue
		}

		err = store.LinkPurchaseOrder(ctx, t.ID, *id)
		if errors.Is(err, ledger.ErrNotFound) {
			klog.V(2).Infof("transaction %d deleted while reconciling, skipping", t.ID)
			continue
		}
		if err != nil {
			return linked, apperror.Wrap(apperror.Persistence, err, "failed to link purchase order")
		}
		klog.V(2).Infof("linked transaction %d to purchase order %d", t.ID, *id)
		linked++
	}

	klog.Infof("Reconciled %d of %d pending outgoing transactions", linked, len(txs))
	return linked, nil
}
