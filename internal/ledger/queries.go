package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"outlay/internal/model"
)

// Uncategorized is the grouping key for expenses whose category link cannot
// be resolved.
const Uncategorized = "Uncategorized"

// Read views. Each call computes its result fresh from the last committed
// state; nothing here is cached or incrementally maintained, and none of
// these operations raise notifications.

// CategoriesForPicker returns the names of active categories, alphabetically
// sorted, for the new-expense picker.
func (l *Ledger) CategoriesForPicker(ctx context.Context) ([]string, error) {
	return l.categoryNames(ctx, false)
}

// AllCategories returns category names, optionally including soft-deleted
// ones, for the editor's validation checks.
func (l *Ledger) AllCategories(ctx context.Context, includeDeleted bool) ([]string, error) {
	return l.categoryNames(ctx, includeDeleted)
}

func (l *Ledger) categoryNames(ctx context.Context, includeDeleted bool) ([]string, error) {
	categories, err := l.store.ListCategories(ctx, includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	seen := make(map[string]struct{}, len(categories))
	names := make([]string, 0, len(categories))
	for _, cat := range categories {
		if _, ok := seen[cat.Name]; ok {
			continue
		}
		seen[cat.Name] = struct{}{}
		names = append(names, cat.Name)
	}
	sort.Strings(names)
	return names, nil
}

// ExpensesByCategory returns a snapshot mapping of category name to its
// expenses. Soft-deleted categories are included; an expense with a dangling
// category link is grouped under Uncategorized.
func (l *Ledger) ExpensesByCategory(ctx context.Context) (map[string][]model.Expense, error) {
	expenses, err := l.store.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	categories, err := l.store.ListCategories(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	nameByID := make(map[int64]string, len(categories))
	for _, cat := range categories {
		nameByID[cat.ID] = cat.Name
	}

	grouped := make(map[string][]model.Expense)
	for _, e := range expenses {
		name, ok := nameByID[e.CategoryID]
		if !ok {
			name = Uncategorized
		}
		grouped[name] = append(grouped[name], e)
	}
	return grouped, nil
}

// CategoriesWithExpenses returns the active categories that currently have at
// least one expense, alphabetically sorted. This is the expense browser's
// section list.
func (l *Ledger) CategoriesWithExpenses(ctx context.Context) ([]string, error) {
	grouped, err := l.ExpensesByCategory(ctx)
	if err != nil {
		return nil, err
	}
	active, err := l.store.ListCategories(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	var names []string
	for _, cat := range active {
		if len(grouped[cat.Name]) > 0 {
			names = append(names, cat.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ExpensesFor returns the expenses recorded under a category name. The
// category may be soft-deleted; its history stays readable until it is
// hard-deleted. An unknown name yields an empty list.
func (l *Ledger) ExpensesFor(ctx context.Context, name string) ([]model.Expense, error) {
	cat, err := l.lookupCategory(ctx, name)
	if err != nil || cat == nil {
		return nil, err
	}

	expenses, err := l.store.GetExpensesByCategoryID(ctx, cat.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return expenses, nil
}

// TotalForCategory sums the amounts of a category's expenses. Unknown and
// empty categories total zero.
func (l *Ledger) TotalForCategory(ctx context.Context, name string) (float64, error) {
	cat, err := l.lookupCategory(ctx, name)
	if err != nil || cat == nil {
		return 0, err
	}

	total, err := l.store.GetCategoryTotal(ctx, cat.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return total, nil
}

func (l *Ledger) lookupCategory(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	cat, err := l.store.GetCategoryByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return cat, nil
}
