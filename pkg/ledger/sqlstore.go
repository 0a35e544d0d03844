package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"k8s.io/klog"
)

type SQLStore struct {
	db *bun.DB
}

func NewSQLStore(db *bun.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Migrate(ctx context.Context) error {
	models := []interface{}{
		(*FinanceCategory)(nil),
		(*PurchaseOrder)(nil),
		(*PurchaseOrderItem)(nil),
		(*FixedCost)(nil),
		(*BankTransaction)(nil),
	}

	for _, model := range models {
		_, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}

	_, err := s.db.NewCreateIndex().
		Model((*BankTransaction)(nil)).
		Index("bank_transactions_natural_key_idx").
		Column("date", "amount").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create natural key index: %w", err)
	}

	_, err = s.db.NewCreateIndex().
		Model((*BankTransaction)(nil)).
		Index("bank_transactions_purchase_order_idx").
		Column("purchase_order_id").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create purchase order index: %w", err)
	}

	klog.V(1).Infof("ledger tables migrated")
	return nil
}

func (s *SQLStore) TransactionExists(ctx context.Context, date time.Time, amount decimal.Decimal, description string) (bool, error) {
	return s.transactionExistsQuery(date, amount, description).Exists(ctx)
}

func (s *SQLStore) transactionExistsQuery(date time.Time, amount decimal.Decimal, description string) *bun.SelectQuery {
	return s.db.NewSelect().
		Model((*BankTransaction)(nil)).
		Where("bt.date = ?", date).
		Where("bt.amount = ?", amount).
		Where("bt.description = ?", description)
}

func (s *SQLStore) InsertTransaction(ctx context.Context, t *BankTransaction) error {
	_, err := s.db.NewInsert().Model(t).Exec(ctx)
	return err
}

func (s *SQLStore) ListTransactions(ctx context.Context) ([]BankTransaction, error) {
	var txs []BankTransaction
	err := s.db.NewSelect().Model(&txs).Order("bt.id ASC").Scan(ctx)
	return txs, err
}

func (s *SQLStore) DeleteTransactions(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := s.db.NewDelete().
		Model((*BankTransaction)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQLStore) SetTransactionCategory(ctx context.Context, id int64, categoryID int64) error {
	res, err := s.db.NewUpdate().
		Model((*BankTransaction)(nil)).
		Set("category_id = ?", categoryID).
		Where("id = ?", id).
		Exec(ctx)
	return checkAffected(res, err)
}

func (s *SQLStore) LinkPurchaseOrder(ctx context.Context, id int64, purchaseOrderID int64) error {
	res, err := s.db.NewUpdate().
		Model((*BankTransaction)(nil)).
		Set("purchase_order_id = ?", purchaseOrderID).
		Set("status = ?", StatusReconciled).
		Where("id = ?", id).
		Exec(ctx)
	return checkAffected(res, err)
}

func (s *SQLStore) UncategorizedTransactions(ctx context.Context) ([]BankTransaction, error) {
	var txs []BankTransaction
	err := s.db.NewSelect().
		Model(&txs).
		Where("bt.category_id IS NULL").
		Order("bt.id ASC").
		Scan(ctx)
	return txs, err
}

func (s *SQLStore) UnreconciledOutgoing(ctx context.Context) ([]BankTransaction, error) {
	var txs []BankTransaction
	err := s.unreconciledOutgoingQuery(&txs).Scan(ctx)
	return txs, err
}

func (s *SQLStore) unreconciledOutgoingQuery(txs *[]BankTransaction) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(txs).
		Where("bt.amount < 0").
		Where("bt.purchase_order_id IS NULL").
		Where("bt.status != ?", StatusReconciled).
		Order("bt.date ASC", "bt.id ASC")
}

func (s *SQLStore) RecentOutgoingByCategory(ctx context.Context, categoryID int64, limit int) ([]BankTransaction, error) {
	var txs []BankTransaction
	err := s.recentOutgoingByCategoryQuery(&txs, categoryID, limit).Scan(ctx)
	return txs, err
}

func (s *SQLStore) recentOutgoingByCategoryQuery(txs *[]BankTransaction, categoryID int64, limit int) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(txs).
		Where("bt.category_id = ?", categoryID).
		Where("bt.amount < 0").
		Order("bt.date DESC", "bt.id DESC").
		Limit(limit)
}

func (s *SQLStore) OutgoingTransactions(ctx context.Context) ([]BankTransaction, error) {
	var txs []BankTransaction
	err := s.db.NewSelect().
		Model(&txs).
		Where("bt.amount < 0").
		Order("bt.date DESC", "bt.id DESC").
		Scan(ctx)
	return txs, err
}

func (s *SQLStore) UnpaidPurchaseOrders(ctx context.Context, amount decimal.Decimal, from, to time.Time) ([]PurchaseOrder, error) {
	var orders []PurchaseOrder
	err := s.unpaidPurchaseOrdersQuery(&orders, amount, from, to).Scan(ctx)
	return orders, err
}

// unpaidPurchaseOrdersQuery selects orders of exactly amount dated within [from, to]
// that no bank transaction links to yet.
func (s *SQLStore) unpaidPurchaseOrdersQuery(orders *[]PurchaseOrder, amount decimal.Decimal, from, to time.Time) *bun.SelectQuery {
	linked := s.db.NewSelect().
		Model((*BankTransaction)(nil)).
		ColumnExpr("1").
		Where("bt.purchase_order_id = po.id")

	return s.db.NewSelect().
		Model(orders).
		Where("po.total_amount = ?", amount).
		Where("po.date >= ?", from).
		Where("po.date <= ?", to).
		Where("NOT EXISTS (?)", linked).
		Order("po.date ASC", "po.id ASC")
}

func (s *SQLStore) FindCategory(ctx context.Context, name string) (*FinanceCategory, error) {
	category := new(FinanceCategory)
	err := s.db.NewSelect().Model(category).Where("fc.name = ?", name).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *SQLStore) EnsureCategory(ctx context.Context, name string, categoryType CategoryType) (*FinanceCategory, error) {
	category := &FinanceCategory{Name: name, Type: categoryType}
	_, err := s.db.NewInsert().
		Model(category).
		On("CONFLICT (name) DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create category %q: %w", name, err)
	}

	found, err := s.FindCategory(ctx, name)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("category %q missing after insert", name)
	}
	return found, nil
}

func (s *SQLStore) ActiveFixedCosts(ctx context.Context) ([]FixedCost, error) {
	var costs []FixedCost
	err := s.db.NewSelect().
		Model(&costs).
		Where("fx.is_active").
		Order("fx.id ASC").
		Scan(ctx)
	return costs, err
}

func (s *SQLStore) FixedCostExists(ctx context.Context, name string) (bool, error) {
	return s.db.NewSelect().Model((*FixedCost)(nil)).Where("fx.name = ?", name).Exists(ctx)
}

func (s *SQLStore) InsertFixedCost(ctx context.Context, c *FixedCost) error {
	_, err := s.db.NewInsert().Model(c).Exec(ctx)
	return err
}

func checkAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
