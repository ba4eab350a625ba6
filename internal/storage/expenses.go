package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"outlay/internal/model"
)

// CreateExpense inserts a new expense. The expense must carry a resolved
// category id; callers that accept category names go through
// ResolveOrCreateCategory first.
//
// Restoring a snapshotted expense reuses its original id; an insert that
// collides on id overwrites the row so a restore after a soft delete (where
// the rows still exist) is a no-op rather than a constraint violation.
func (s *SQLiteStorage) CreateExpense(ctx context.Context, expense *model.Expense) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return createExpense(ctx, s.db, expense)
}

func createExpense(ctx context.Context, q queryable, expense *model.Expense) error {
	if err := validateExpense(expense); err != nil {
		return err
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO expenses (id, amount, description, date, category_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			description = excluded.description,
			date = excluded.date,
			category_id = excluded.category_id`,
		expense.ID, expense.Amount, expense.Description, expense.Date, expense.CategoryID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense %s: %w", expense.ID, err)
	}

	slog.Debug("saved expense", "id", expense.ID, "amount", expense.Amount, "category_id", expense.CategoryID)
	return nil
}

// GetExpenseByID returns an expense by id, or nil without error when no such
// expense exists.
func (s *SQLiteStorage) GetExpenseByID(ctx context.Context, id string) (*model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getExpenseByID(ctx, s.db, id)
}

func getExpenseByID(ctx context.Context, q queryable, id string) (*model.Expense, error) {
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, amount, description, date, category_id
		FROM expenses
		WHERE id = ?`

	var e model.Expense
	err := q.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Amount, &e.Description, &e.Date, &e.CategoryID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query expense: %w", err)
	}

	return &e, nil
}

// DeleteExpense removes a single expense. Returns sql.ErrNoRows when the id
// has no live record.
func (s *SQLiteStorage) DeleteExpense(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return deleteExpense(ctx, s.db, id)
}

func deleteExpense(ctx context.Context, q queryable, id string) error {
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := q.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// ListExpenses returns every expense, most recent first.
func (s *SQLiteStorage) ListExpenses(ctx context.Context) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listExpenses(ctx, s.db)
}

func listExpenses(ctx context.Context, q queryable) ([]model.Expense, error) {
	query := `
		SELECT id, amount, description, date, category_id
		FROM expenses
		ORDER BY date DESC, id`

	return scanExpenses(ctx, q, query)
}

// GetExpensesByCategoryID returns every expense attached to a category,
// regardless of the category's soft-delete state, most recent first.
func (s *SQLiteStorage) GetExpensesByCategoryID(ctx context.Context, categoryID int64) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getExpensesByCategoryID(ctx, s.db, categoryID)
}

func getExpensesByCategoryID(ctx context.Context, q queryable, categoryID int64) ([]model.Expense, error) {
	query := `
		SELECT id, amount, description, date, category_id
		FROM expenses
		WHERE category_id = ?
		ORDER BY date DESC, id`

	return scanExpenses(ctx, q, query, categoryID)
}

func scanExpenses(ctx context.Context, q queryable, query string, args ...any) ([]model.Expense, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []model.Expense
	for rows.Next() {
		var e model.Expense
		if err := rows.Scan(&e.ID, &e.Amount, &e.Description, &e.Date, &e.CategoryID); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}

	return expenses, nil
}

// DeleteExpensesByCategoryID removes every expense attached to a category.
// Used by the cascade delete, always inside a transaction with the category
// row removal.
func (s *SQLiteStorage) DeleteExpensesByCategoryID(ctx context.Context, categoryID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return deleteExpensesByCategoryID(ctx, s.db, categoryID)
}

func deleteExpensesByCategoryID(ctx context.Context, q queryable, categoryID int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM expenses WHERE category_id = ?`, categoryID)
	if err != nil {
		return fmt.Errorf("failed to delete expenses: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil {
		slog.Debug("deleted expenses for category", "category_id", categoryID, "count", n)
	}

	return nil
}

// GetCategoryTotal sums the amounts of a category's expenses. An unknown or
// empty category totals zero.
func (s *SQLiteStorage) GetCategoryTotal(ctx context.Context, categoryID int64) (float64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return getCategoryTotal(ctx, s.db, categoryID)
}

func getCategoryTotal(ctx context.Context, q queryable, categoryID int64) (float64, error) {
	var total float64
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE category_id = ?`, categoryID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum expenses: %w", err)
	}

	return total, nil
}
