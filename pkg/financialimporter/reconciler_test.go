package financialimporter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcaldwell/bistroledger/pkg/ledger"
)

func TestReconcileWithinWindow(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	po := store.AddPurchaseOrder(ledger.PurchaseOrder{Date: day(2024, 3, 10), TotalAmount: money("123.45")})
	r := NewReconciler(store, 15)

	id, err := r.Reconcile(ctx, ledger.BankTransaction{Date: day(2024, 3, 20), Amount: money("-123.45"), Description: "VIR FOURNISSEUR"})
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, po.ID, *id)

	id, err = r.Reconcile(ctx, ledger.BankTransaction{Date: day(2024, 4, 20), Amount: money("-123.45"), Description: "VIR FOURNISSEUR"})
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestReconcileWindowEdges(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	store.AddPurchaseOrder(ledger.PurchaseOrder{Date: day(2024, 3, 10), TotalAmount: money("50")})
	r := NewReconciler(store, 15)

	for _, tc := range []struct {
		name  string
		tx    ledger.BankTransaction
		match bool
	}{
		{"fifteen days after", ledger.BankTransaction{Date: day(2024, 3, 25), Amount: money("-50")}, true},
		{"fifteen days before", ledger.BankTransaction{Date: day(2024, 2, 24), Amount: money("-50")}, true},
		{"sixteen days after", ledger.BankTransaction{Date: day(2024, 3, 26), Amount: money("-50")}, false},
		{"different cents", ledger.BankTransaction{Date: day(2024, 3, 10), Amount: money("-50.01")}, false},
		{"incoming", ledger.BankTransaction{Date: day(2024, 3, 10), Amount: money("50")}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			id, err := r.Reconcile(ctx, tc.tx)
			require.NoError(t, err)
			assert.Equal(t, tc.match, id != nil)
		})
	}
}

func TestReconcileTieBreakClosestDate(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	store.AddPurchaseOrder(ledger.PurchaseOrder{Date: day(2024, 5, 1), TotalAmount: money("80")})
	closest := store.AddPurchaseOrder(ledger.PurchaseOrder{Date: day(2024, 5, 12), TotalAmount: money("80")})
	store.AddPurchaseOrder(ledger.PurchaseOrder{Date: day(2024, 5, 20), TotalAmount: money("80")})

	id, err := NewReconciler(store, 15).Reconcile(ctx, ledger.BankTransaction{Date: day(2024, 5, 14), Amount: money("-80")})
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, closest.ID, *id)
}

func TestReconcileTieBreakEarlierDate(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	later := store.AddPurchaseOrder(ledger.PurchaseOrder{Date: day(2024, 5, 16), TotalAmount: money("80")})
	earlier := store.AddPurchaseOrder(ledger.PurchaseOrder{Date: day(2024, 5, 12), TotalAmount: money("80")})

	id, err := NewReconciler(store, 15).Reconcile(ctx, ledger.BankTransaction{Date: day(2024, 5, 14), Amount: money("-80")})
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, earlier.ID, *id)
	assert.NotEqual(t, later.ID, *id)
}

func TestReconcilePending(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	po := store.AddPurchaseOrder(ledger.PurchaseOrder{Date: day(2024, 6, 1), TotalAmount: money("300")})

	first := &ledger.BankTransaction{Date: day(2024, 6, 3), Amount: money("-300"), Description: "VIR A"}
	second := &ledger.BankTransaction{Date: day(2024, 6, 4), Amount: money("-300"), Description: "VIR B"}
	require.NoError(t, store.InsertTransaction(ctx, first))
	require.NoError(t, store.InsertTransaction(ctx, second))

	linked, err := ReconcilePending(ctx, store, 15)
	require.NoError(t, err)
	assert.Equal(t, 1, linked)

	stored, _ := store.Transaction(first.ID)
	require.NotNil(t, stored.PurchaseOrderID)
	assert.Equal(t, po.ID, *stored.PurchaseOrderID)
	assert.Equal(t, ledger.StatusReconciled, stored.Status)

	// a linked purchase order is never linked twice
	stored, _ = store.Transaction(second.ID)
	assert.Nil(t, stored.PurchaseOrderID)

	linked, err = ReconcilePending(ctx, store, 15)
	require.NoError(t, err)
	assert.Equal(t, 0, linked)
}
