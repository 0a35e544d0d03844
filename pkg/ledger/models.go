package ledger

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type TransactionStatus string

const (
	StatusPending    TransactionStatus = "PENDING"
	StatusCompleted  TransactionStatus = "COMPLETED"
	StatusReconciled TransactionStatus = "RECONCILED"
)

type CategoryType string

const (
	FixedCostCategory    CategoryType = "FIXED_COST"
	VariableCostCategory CategoryType = "VARIABLE_COST"
	RevenueCategory      CategoryType = "REVENUE"
	TaxCategory          CategoryType = "TAX"
	FinancialCategory    CategoryType = "FINANCIAL"
	InvestmentCategory   CategoryType = "INVESTMENT"
	SalaryCategory       CategoryType = "SALARY"
)

// ParseCategoryType maps a config string onto a CategoryType, defaulting to VARIABLE_COST.
func ParseCategoryType(s string) CategoryType {
	switch t := CategoryType(s); t {
	case FixedCostCategory, VariableCostCategory, RevenueCategory, TaxCategory,
		FinancialCategory, InvestmentCategory, SalaryCategory:
		return t
	}
	return VariableCostCategory
}

type Frequency string

const (
	Monthly   Frequency = "MONTHLY"
	Quarterly Frequency = "QUARTERLY"
	Yearly    Frequency = "YEARLY"
)

// BankTransaction amount is signed: positive is inbound, negative is outbound.
// Date, amount and description never change once the row exists.
type BankTransaction struct {
	bun.BaseModel   `bun:"table:bank_transactions,alias:bt"`
	ID              int64             `bun:",pk,autoincrement"`
	Date            time.Time         `bun:",notnull"`
	Amount          decimal.Decimal   `bun:"type:numeric(14,2),notnull"`
	Description     string            `bun:"type:text,notnull"`
	Reference       string            `bun:",nullzero"`
	Status          TransactionStatus `bun:",notnull,default:'COMPLETED'"`
	CategoryID      *int64
	PurchaseOrderID *int64
	ImportBatch     string    `bun:",nullzero"`
	CreatedAt       time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

func (t *BankTransaction) Outgoing() bool {
	return t.Amount.IsNegative()
}

type PurchaseOrder struct {
	bun.BaseModel `bun:"table:purchase_orders,alias:po"`
	ID            int64           `bun:",pk,autoincrement"`
	Date          time.Time       `bun:",notnull"`
	TotalAmount   decimal.Decimal `bun:"type:numeric(14,2),notnull"`
	SupplierID    *int64
	InvoiceNo     string              `bun:",nullzero"`
	Status        string              `bun:",nullzero"`
	Items         []PurchaseOrderItem `bun:"rel:has-many,join:id=purchase_order_id"`
}

type PurchaseOrderItem struct {
	bun.BaseModel   `bun:"table:purchase_order_items,alias:poi"`
	ID              int64 `bun:",pk,autoincrement"`
	PurchaseOrderID int64 `bun:",notnull"`
	Name            string
	Quantity        decimal.Decimal `bun:"type:numeric(12,3)"`
	UnitPrice       decimal.Decimal `bun:"type:numeric(14,2)"`
}

type FinanceCategory struct {
	bun.BaseModel `bun:"table:finance_categories,alias:fc"`
	ID            int64        `bun:",pk,autoincrement"`
	Name          string       `bun:",unique,notnull"`
	Type          CategoryType `bun:",notnull"`
}

// FixedCost names are unique by convention only.
type FixedCost struct {
	bun.BaseModel `bun:"table:fixed_costs,alias:fx"`
	ID            int64           `bun:",pk,autoincrement"`
	Name          string          `bun:",notnull"`
	Amount        decimal.Decimal `bun:"type:numeric(14,2),notnull"`
	DayOfMonth    int             `bun:",notnull"`
	Frequency     Frequency       `bun:",notnull"`
	IsActive      bool            `bun:",notnull"`
	CategoryID    *int64
}
