package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemoryStore keeps the ledger in process. It backs dry runs and tests.
type MemoryStore struct {
	mu           sync.Mutex
	nextID       int64
	transactions []BankTransaction
	orders       []PurchaseOrder
	categories   []FinanceCategory
	fixedCosts   []FixedCost
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) Migrate(ctx context.Context) error {
	return nil
}

// AddPurchaseOrder stores a purchase order, assigning an id when it has none.
func (m *MemoryStore) AddPurchaseOrder(po PurchaseOrder) PurchaseOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	if po.ID == 0 {
		po.ID = m.id()
	}
	m.orders = append(m.orders, po)
	return po
}

func (m *MemoryStore) TransactionExists(ctx context.Context, date time.Time, amount decimal.Decimal, description string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.transactions {
		if t.Date.Equal(date) && t.Amount.Equal(amount) && t.Description == description {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) InsertTransaction(ctx context.Context, t *BankTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == 0 {
		t.ID = m.id()
	}
	if t.Status == "" {
		t.Status = StatusCompleted
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	m.transactions = append(m.transactions, *t)
	return nil
}

// Transaction returns a copy of the stored transaction with the given id.
func (m *MemoryStore) Transaction(id int64) (BankTransaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.transactions {
		if t.ID == id {
			return t, true
		}
	}
	return BankTransaction{}, false
}

func (m *MemoryStore) ListTransactions(ctx context.Context) ([]BankTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txs := append([]BankTransaction(nil), m.transactions...)
	sort.Slice(txs, func(i, j int) bool { return txs[i].ID < txs[j].ID })
	return txs, nil
}

func (m *MemoryStore) DeleteTransactions(ctx context.Context, ids []int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	remove := make(map[int64]bool, len(ids))
	for _, id := range ids {
		remove[id] = true
	}

	kept := m.transactions[:0]
	deleted := 0
	for _, t := range m.transactions {
		if remove[t.ID] {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	m.transactions = kept
	return deleted, nil
}

func (m *MemoryStore) update(id int64, fn func(t *BankTransaction)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.transactions {
		if m.transactions[i].ID == id {
			fn(&m.transactions[i])
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) SetTransactionCategory(ctx context.Context, id int64, categoryID int64) error {
	return m.update(id, func(t *BankTransaction) {
		t.CategoryID = &categoryID
	})
}

func (m *MemoryStore) LinkPurchaseOrder(ctx context.Context, id int64, purchaseOrderID int64) error {
	return m.update(id, func(t *BankTransaction) {
		t.PurchaseOrderID = &purchaseOrderID
		t.Status = StatusReconciled
	})
}

func (m *MemoryStore) filter(keep func(t BankTransaction) bool) []BankTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var txs []BankTransaction
	for _, t := range m.transactions {
		if keep(t) {
			txs = append(txs, t)
		}
	}
	return txs
}

func (m *MemoryStore) UncategorizedTransactions(ctx context.Context) ([]BankTransaction, error) {
	txs := m.filter(func(t BankTransaction) bool { return t.CategoryID == nil })
	sort.Slice(txs, func(i, j int) bool { return txs[i].ID < txs[j].ID })
	return txs, nil
}

func (m *MemoryStore) UnreconciledOutgoing(ctx context.Context) ([]BankTransaction, error) {
	txs := m.filter(func(t BankTransaction) bool {
		return t.Outgoing() && t.PurchaseOrderID == nil && t.Status != StatusReconciled
	})
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].ID < txs[j].ID
	})
	return txs, nil
}

func newestFirst(txs []BankTransaction) {
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID > txs[j].ID
	})
}

func (m *MemoryStore) RecentOutgoingByCategory(ctx context.Context, categoryID int64, limit int) ([]BankTransaction, error) {
	txs := m.filter(func(t BankTransaction) bool {
		return t.Outgoing() && t.CategoryID != nil && *t.CategoryID == categoryID
	})
	newestFirst(txs)
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func (m *MemoryStore) OutgoingTransactions(ctx context.Context) ([]BankTransaction, error) {
	txs := m.filter(func(t BankTransaction) bool { return t.Outgoing() })
	newestFirst(txs)
	return txs, nil
}

func (m *MemoryStore) UnpaidPurchaseOrders(ctx context.Context, amount decimal.Decimal, from, to time.Time) ([]PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	linked := make(map[int64]bool)
	for _, t := range m.transactions {
		if t.PurchaseOrderID != nil {
			linked[*t.PurchaseOrderID] = true
		}
	}

	var orders []PurchaseOrder
	for _, po := range m.orders {
		if linked[po.ID] || !po.TotalAmount.Equal(amount) {
			continue
		}
		if po.Date.Before(from) || po.Date.After(to) {
			continue
		}
		orders = append(orders, po)
	}

	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].Date.Equal(orders[j].Date) {
			return orders[i].Date.Before(orders[j].Date)
		}
		return orders[i].ID < orders[j].ID
	})
	return orders, nil
}

func (m *MemoryStore) FindCategory(ctx context.Context, name string) (*FinanceCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Name == name {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) EnsureCategory(ctx context.Context, name string, categoryType CategoryType) (*FinanceCategory, error) {
	found, err := m.FindCategory(ctx, name)
	if err != nil || found != nil {
		return found, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c := FinanceCategory{ID: m.id(), Name: name, Type: categoryType}
	m.categories = append(m.categories, c)
	return &c, nil
}

// Categories returns every stored category ordered by id.
func (m *MemoryStore) Categories() []FinanceCategory {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FinanceCategory(nil), m.categories...)
}

func (m *MemoryStore) ActiveFixedCosts(ctx context.Context) ([]FixedCost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var costs []FixedCost
	for _, c := range m.fixedCosts {
		if c.IsActive {
			costs = append(costs, c)
		}
	}
	return costs, nil
}

func (m *MemoryStore) FixedCostExists(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.fixedCosts {
		if c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) InsertFixedCost(ctx context.Context, c *FixedCost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.id()
	}
	m.fixedCosts = append(m.fixedCosts, *c)
	return nil
}

// FixedCosts returns every stored fixed cost, active or not.
func (m *MemoryStore) FixedCosts() []FixedCost {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FixedCost(nil), m.fixedCosts...)
}
