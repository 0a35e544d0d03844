package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when an update targets a row that no longer exists.
var ErrNotFound = errors.New("record not found")

// Store is the system of record for the reconciliation pipeline.
// Every call is a single read or write; nothing spans a database transaction.
type Store interface {
	Migrate(ctx context.Context) error

	// TransactionExists reports whether a transaction with exactly this date,
	// amount and description is already stored.
	TransactionExists(ctx context.Context, date time.Time, amount decimal.Decimal, description string) (bool, error)
	InsertTransaction(ctx context.Context, t *BankTransaction) error
	// ListTransactions returns every transaction ordered by id.
	ListTransactions(ctx context.Context) ([]BankTransaction, error)
	// DeleteTransactions removes the given ids and returns how many rows were actually deleted.
	DeleteTransactions(ctx context.Context, ids []int64) (int, error)
	SetTransactionCategory(ctx context.Context, id int64, categoryID int64) error
	LinkPurchaseOrder(ctx context.Context, id int64, purchaseOrderID int64) error
	// UncategorizedTransactions returns transactions without a category, ordered by id.
	UncategorizedTransactions(ctx context.Context) ([]BankTransaction, error)
	// UnreconciledOutgoing returns outgoing transactions not linked to any purchase order, ordered by date.
	UnreconciledOutgoing(ctx context.Context) ([]BankTransaction, error)
	// RecentOutgoingByCategory returns at most limit outgoing transactions of a category, newest first.
	RecentOutgoingByCategory(ctx context.Context, categoryID int64, limit int) ([]BankTransaction, error)
	// OutgoingTransactions returns every outgoing transaction, newest first.
	OutgoingTransactions(ctx context.Context) ([]BankTransaction, error)

	// UnpaidPurchaseOrders returns purchase orders with no linked transaction whose
	// total equals amount and whose date is within [from, to].
	UnpaidPurchaseOrders(ctx context.Context, amount decimal.Decimal, from, to time.Time) ([]PurchaseOrder, error)

	FindCategory(ctx context.Context, name string) (*FinanceCategory, error)
	// EnsureCategory returns the category called name, creating it with categoryType when missing.
	EnsureCategory(ctx context.Context, name string, categoryType CategoryType) (*FinanceCategory, error)

	ActiveFixedCosts(ctx context.Context) ([]FixedCost, error)
	FixedCostExists(ctx context.Context, name string) (bool, error)
	InsertFixedCost(ctx context.Context, c *FixedCost) error
}
