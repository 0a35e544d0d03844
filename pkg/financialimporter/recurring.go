package financialimporter

import (
	"context"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"k8s.io/klog"

	"github.com/bcaldwell/bistroledger/pkg/apperror"
	"github.com/bcaldwell/bistroledger/pkg/ledger"
)

type Outcome string

const (
	OutcomeCreated      Outcome = "created"
	OutcomeExists       Outcome = "exists"
	OutcomeInsufficient Outcome = "insufficient"
	OutcomeNoCategory   Outcome = "no_category"
)

type Detection struct {
	Name      string            `json:"name"`
	Outcome   Outcome           `json:"outcome"`
	FixedCost *ledger.FixedCost `json:"fixedCost,omitempty"`
}

type DetectionReport struct {
	Detections []Detection `json:"detections"`
}

func (r DetectionReport) Created() []ledger.FixedCost {
	var created []ledger.FixedCost
	for _, d := range r.Detections {
		if d.Outcome == OutcomeCreated && d.FixedCost != nil {
			created = append(created, *d.FixedCost)
		}
	}
	return created
}

// RecurringDetector infers monthly fixed costs from transaction history. It only
// ever creates fixed costs, and only when none with the same name exists, so it is
// safe to run repeatedly.
type RecurringDetector struct {
	store ledger.Store
	rules Rules
}

func NewRecurringDetector(store ledger.Store, rules Rules) *RecurringDetector {
	return &RecurringDetector{store: store, rules: rules}
}

// DetectCategory looks at the latest outgoing payments of target's category.
func (d *RecurringDetector) DetectCategory(ctx context.Context, target DetectionTarget) (*ledger.FixedCost, Outcome, error) {
	category, err := d.store.FindCategory(ctx, target.CatName)
	if err != nil {
		return nil, "", err
	}
	if category == nil {
		return nil, OutcomeNoCategory, nil
	}

	txs, err := d.store.RecentOutgoingByCategory(ctx, category.ID, d.rules.recurringSample)
	if err != nil {
		return nil, "", err
	}
	if len(txs) < d.rules.recurringMinCount {
		return nil, OutcomeInsufficient, nil
	}

	return d.create(ctx, ledger.FixedCost{
		Name:       target.Name,
		Amount:     averageAbs(txs),
		DayOfMonth: txs[0].Date.Day(),
		CategoryID: &category.ID,
	})
}

// DetectSalary looks for outgoing payments mentioning keyword. Salaries are
// assumed to be paid on a fixed day instead of the observed one.
func (d *RecurringDetector) DetectSalary(ctx context.Context, keyword string) (*ledger.FixedCost, Outcome, error) {
	salary := d.rules.Salary()

	outgoing, err := d.store.OutgoingTransactions(ctx)
	if err != nil {
		return nil, "", err
	}

	var matches []ledger.BankTransaction
	for _, t := range outgoing {
		if matchesKeyword(t.Description, keyword) {
			matches = append(matches, t)
		}
	}
	if len(matches) < salary.MinOccurrences {
		return nil, OutcomeInsufficient, nil
	}
	if len(matches) > salary.SampleSize {
		matches = matches[:salary.SampleSize]
	}

	category, err := d.store.EnsureCategory(ctx, salary.CategoryName, ledger.SalaryCategory)
	if err != nil {
		return nil, "", err
	}

	return d.create(ctx, ledger.FixedCost{
		Name:       SalaryCostName(keyword),
		Amount:     averageAbs(matches),
		DayOfMonth: salary.DayOfMonth,
		CategoryID: &category.ID,
	})
}

func (d *RecurringDetector) create(ctx context.Context, cost ledger.FixedCost) (*ledger.FixedCost, Outcome, error) {
	exists, err := d.store.FixedCostExists(ctx, cost.Name)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, OutcomeExists, nil
	}

	cost.Frequency = ledger.Monthly
	cost.IsActive = true
	if err := d.store.InsertFixedCost(ctx, &cost); err != nil {
		return nil, "", err
	}

	klog.Infof("Created fixed cost %q: %s on day %d", cost.Name, cost.Amount.StringFixed(2), cost.DayOfMonth)
	return &cost, OutcomeCreated, nil
}

// Run sweeps every detection target and salary keyword once.
func (d *RecurringDetector) Run(ctx context.Context) (DetectionReport, error) {
	report := DetectionReport{}

	for _, target := range d.rules.detectionTargets {
		cost, outcome, err := d.DetectCategory(ctx, target)
		if err != nil {
			return report, apperror.Wrap(apperror.Persistence, err, "failed to detect fixed cost "+target.Name)
		}
		report.Detections = append(report.Detections, Detection{Name: target.Name, Outcome: outcome, FixedCost: cost})
	}

	for _, keyword := range d.rules.Salary().Keywords {
		cost, outcome, err := d.DetectSalary(ctx, keyword)
		if err != nil {
			return report, apperror.Wrap(apperror.Persistence, err, "failed to detect salary "+keyword)
		}
		report.Detections = append(report.Detections, Detection{Name: SalaryCostName(keyword), Outcome: outcome, FixedCost: cost})
	}

	klog.Infof("Recurring cost sweep done: %d created out of %d targets", len(report.Created()), len(report.Detections))
	return report, nil
}

// SalaryCostName builds "Salaire - Dupont" from "dupont".
func SalaryCostName(keyword string) string {
	return "Salaire - " + capitalize(strings.TrimSpace(keyword))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func averageAbs(txs []ledger.BankTransaction) decimal.Decimal {
	if len(txs) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, t := range txs {
		sum = sum.Add(t.Amount.Abs())
	}
	return sum.Div(decimal.NewFromInt(int64(len(txs)))).Round(2)
}
