package financialimporter

import (
	"github.com/bcaldwell/bistroledger/pkg/config"
	"github.com/bcaldwell/bistroledger/pkg/ledger"
)

type CategoryRule struct {
	CategoryName string
	CategoryType ledger.CategoryType
	Keywords     []string
}

// DetectionTarget names a category whose outgoing payments should become a fixed cost called Name.
type DetectionTarget struct {
	CatName string
	Name    string
}

type SalaryRule struct {
	Keywords       []string
	CategoryName   string
	DayOfMonth     int
	MinOccurrences int
	SampleSize     int
}

// Rules is the categorization and detection configuration. It is built once and
// never mutated; accessors hand out copies.
type Rules struct {
	categoryRules     []CategoryRule
	detectionTargets  []DetectionTarget
	salary            SalaryRule
	recurringSample   int
	recurringMinCount int
}

func NewRules(c config.FinanceConfig) Rules {
	r := Rules{
		recurringSample:   c.Recurring.SampleSize,
		recurringMinCount: c.Recurring.MinOccurrences,
		salary: SalaryRule{
			Keywords:       append([]string(nil), c.Salary.Keywords...),
			CategoryName:   c.Salary.CategoryName,
			DayOfMonth:     c.Salary.DayOfMonth,
			MinOccurrences: c.Salary.MinOccurrences,
			SampleSize:     c.Salary.SampleSize,
		},
	}

	for _, rule := range c.CategoryRules {
		r.categoryRules = append(r.categoryRules, CategoryRule{
			CategoryName: rule.CategoryName,
			CategoryType: ledger.ParseCategoryType(rule.CategoryType),
			Keywords:     append([]string(nil), rule.Keywords...),
		})
	}

	for _, target := range c.DetectionTargets {
		r.detectionTargets = append(r.detectionTargets, DetectionTarget{CatName: target.CatName, Name: target.Name})
	}

	if r.recurringSample <= 0 {
		r.recurringSample = 5
	}
	if r.recurringMinCount <= 0 {
		r.recurringMinCount = 2
	}
	if r.salary.CategoryName == "" {
		r.salary.CategoryName = "Salaires"
	}
	if r.salary.DayOfMonth <= 0 {
		r.salary.DayOfMonth = config.DefaultSalaryDayOfMonth
	}
	if r.salary.MinOccurrences <= 0 {
		r.salary.MinOccurrences = 3
	}
	if r.salary.SampleSize <= 0 {
		r.salary.SampleSize = 5
	}

	return r
}

func (r Rules) CategoryRules() []CategoryRule {
	rules := make([]CategoryRule, len(r.categoryRules))
	for i, rule := range r.categoryRules {
		rule.Keywords = append([]string(nil), rule.Keywords...)
		rules[i] = rule
	}
	return rules
}

func (r Rules) DetectionTargets() []DetectionTarget {
	return append([]DetectionTarget(nil), r.detectionTargets...)
}

func (r Rules) Salary() SalaryRule {
	s := r.salary
	s.Keywords = append([]string(nil), s.Keywords...)
	return s
}
