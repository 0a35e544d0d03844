package ledger

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// newRenderStore never connects, queries are only rendered.
func newRenderStore(t *testing.T) *SQLStore {
	sqldb := sql.OpenDB(pgdriver.NewConnector())
	t.Cleanup(func() { sqldb.Close() })
	return NewSQLStore(bun.NewDB(sqldb, pgdialect.New()))
}

func TestSQLStoreUnpaidPurchaseOrdersQuery(t *testing.T) {
	s := newRenderStore(t)
	from := day(2024, 3, 5)
	to := day(2024, 3, 21).Add(-time.Nanosecond)

	var orders []PurchaseOrder
	query := s.unpaidPurchaseOrdersQuery(&orders, decimal.RequireFromString("123.45"), from, to).String()

	assert.Contains(t, query, `FROM "purchase_orders" AS "po"`)
	assert.Contains(t, query, `(po.total_amount = '123.45')`)
	assert.Contains(t, query, `(po.date >= '2024-03-05 00:00:00+00:00')`)
	assert.Contains(t, query, `(po.date <= '2024-03-20 23:59:59.999999+00:00')`)
	assert.Contains(t, query, `(NOT EXISTS (SELECT 1 FROM "bank_transactions" AS "bt" WHERE (bt.purchase_order_id = po.id)))`)
	assert.Contains(t, query, `ORDER BY "po"."date" ASC, "po"."id" ASC`)
}

func TestSQLStoreUnreconciledOutgoingQuery(t *testing.T) {
	s := newRenderStore(t)

	var txs []BankTransaction
	query := s.unreconciledOutgoingQuery(&txs).String()

	assert.Contains(t, query, `FROM "bank_transactions" AS "bt"`)
	assert.Contains(t, query, `(bt.amount < 0)`)
	assert.Contains(t, query, `(bt.purchase_order_id IS NULL)`)
	assert.Contains(t, query, `(bt.status != 'RECONCILED')`)
	assert.Contains(t, query, `ORDER BY "bt"."date" ASC, "bt"."id" ASC`)
}

func TestSQLStoreRecentOutgoingByCategoryQuery(t *testing.T) {
	s := newRenderStore(t)

	var txs []BankTransaction
	query := s.recentOutgoingByCategoryQuery(&txs, 7, 5).String()

	assert.Contains(t, query, `(bt.category_id = 7)`)
	assert.Contains(t, query, `(bt.amount < 0)`)
	assert.Contains(t, query, `ORDER BY "bt"."date" DESC, "bt"."id" DESC LIMIT 5`)
}

func TestSQLStoreTransactionExistsQuery(t *testing.T) {
	s := newRenderStore(t)
	at := time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC)

	query := s.transactionExistsQuery(at, decimal.RequireFromString("-45"), "PRLV EDF").String()

	assert.Contains(t, query, `(bt.date = '2024-01-05 10:30:00+00:00')`)
	assert.Contains(t, query, `(bt.amount = '-45')`)
	assert.Contains(t, query, `(bt.description = 'PRLV EDF')`)
}
