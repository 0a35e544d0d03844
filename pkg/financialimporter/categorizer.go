package financialimporter

import (
	"context"
	"errors"
	"fmt"

	"k8s.io/klog"

	"github.com/bcaldwell/bistroledger/pkg/apperror"
	"github.com/bcaldwell/bistroledger/pkg/ledger"
)

// CategoryResolver turns a rule's category name into a stored category, creating it if needed.
type CategoryResolver interface {
	EnsureCategory(ctx context.Context, name string, categoryType ledger.CategoryType) (*ledger.FinanceCategory, error)
}

// AssignCategory picks a category for a transaction description. Active fixed
// costs are tried first (name contained in the description or the other way
// round), then the keyword rules in order. The first hit wins. A nil id with a
// nil error means the transaction stays uncategorized.
func AssignCategory(ctx context.Context, description string, fixedCosts []ledger.FixedCost, rules []CategoryRule, index CategoryResolver) (*int64, error) {
	if id := matchFixedCost(description, fixedCosts); id != nil {
		return id, nil
	}

	rule, ok := matchRule(description, rules)
	if !ok {
		return nil, nil
	}

	category, err := index.EnsureCategory(ctx, rule.CategoryName, rule.CategoryType)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve category %q: %w", rule.CategoryName, err)
	}
	return &category.ID, nil
}

func matchFixedCost(description string, fixedCosts []ledger.FixedCost) *int64 {
	desc := fold(description)
	if desc == "" {
		return nil
	}

	for _, cost := range fixedCosts {
		if !cost.IsActive || cost.CategoryID == nil {
			continue
		}
		name := fold(cost.Name)
		if name == "" {
			continue
		}
		if containsFold(desc, name) || containsFold(name, desc) {
			id := *cost.CategoryID
			return &id
		}
	}
	return nil
}

func matchRule(description string, rules []CategoryRule) (CategoryRule, bool) {
	for _, rule := range rules {
		for _, keyword := range rule.Keywords {
			if matchesKeyword(description, keyword) {
				return rule, true
			}
		}
	}
	return CategoryRule{}, false
}

type CategoryMatcher struct {
	rules    Rules
	resolver CategoryResolver
}

func NewCategoryMatcher(rules Rules, resolver CategoryResolver) *CategoryMatcher {
	return &CategoryMatcher{rules: rules, resolver: resolver}
}

func (m *CategoryMatcher) AssignCategory(ctx context.Context, description string, fixedCosts []ledger.FixedCost) (*int64, error) {
	return AssignCategory(ctx, description, fixedCosts, m.rules.categoryRules, m.resolver)
}

// CategorizeUncategorized back-fills categories on stored transactions that have none.
func CategorizeUncategorized(ctx context.Context, store ledger.Store, rules Rules) (int, error) {
	fixedCosts, err := store.ActiveFixedCosts(ctx)
	if err != nil {
		return 0, apperror.Wrap(apperror.Persistence, err, "failed to load fixed costs")
	}

	txs, err := store.UncategorizedTransactions(ctx)
	if err != nil {
		return 0, apperror.Wrap(apperror.Persistence, err, "failed to load uncategorized transactions")
	}

	matcher := NewCategoryMatcher(rules, store)
	categorized := 0
	for _, t := range txs {
		categoryID, err := matcher.AssignCategory(ctx, t.Description, fixedCosts)
		if err != nil {
			return categorized, apperror.Wrap(apperror.Persistence, err, "failed to categorize transactions")
		}
		if categoryID == nil {
			continue
		}

		err = store.SetTransactionCategory(ctx, t.ID, *categoryID)
		if errors.Is(err, ledger.ErrNotFound) {
			klog.V(2).Infof("transaction %d deleted while categorizing, skipping", t.ID)
			continue
		}
		if err != nil {
			return categorized, apperror.Wrap(apperror.Persistence, err, "failed to save transaction category")
		}
		categorized++
	}

	klog.Infof("Categorized %d of %d uncategorized transactions", categorized, len(txs))
	return categorized, nil
}
