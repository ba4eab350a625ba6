package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"outlay/internal/model"
)

// ListCategories returns all categories ordered by name. Soft-deleted
// categories are included only when includeDeleted is true.
func (s *SQLiteStorage) ListCategories(ctx context.Context, includeDeleted bool) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listCategories(ctx, s.db, includeDeleted)
}

func listCategories(ctx context.Context, q queryable, includeDeleted bool) ([]model.Category, error) {
	query := `
		SELECT id, name, created_at, is_deleted
		FROM categories`
	if !includeDeleted {
		query += `
		WHERE is_deleted = 0`
	}
	query += `
		ORDER BY name`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.CreatedAt, &cat.IsDeleted); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// GetCategoryByName returns a category by its exact name, soft-deleted or
// not. Returns nil without error when no such category exists.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getCategoryByName(ctx, s.db, name)
}

func getCategoryByName(ctx context.Context, q queryable, name string) (*model.Category, error) {
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, created_at, is_deleted
		FROM categories
		WHERE name = ?
		ORDER BY is_deleted
		LIMIT 1`

	var cat model.Category
	err := q.QueryRowContext(ctx, query, name).Scan(
		&cat.ID, &cat.Name, &cat.CreatedAt, &cat.IsDeleted,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}

	return &cat, nil
}

// GetCategoryByID returns a category by its id, soft-deleted or not.
// Returns nil without error when no such category exists.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getCategoryByID(ctx, s.db, id)
}

func getCategoryByID(ctx context.Context, q queryable, id int64) (*model.Category, error) {
	query := `
		SELECT id, name, created_at, is_deleted
		FROM categories
		WHERE id = ?`

	var cat model.Category
	err := q.QueryRowContext(ctx, query, id).Scan(
		&cat.ID, &cat.Name, &cat.CreatedAt, &cat.IsDeleted,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}

	return &cat, nil
}

// ResolveOrCreateCategory returns the category with the given trimmed name,
// creating it if it does not exist. A soft-deleted category with a matching
// name is reactivated and returned with its original id; this is the only
// write path that clears the deleted flag implicitly.
func (s *SQLiteStorage) ResolveOrCreateCategory(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return resolveOrCreateCategory(ctx, s.db, name)
}

func resolveOrCreateCategory(ctx context.Context, q queryable, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	existing, err := getCategoryByName(ctx, q, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.IsDeleted {
			if err := setCategoryDeleted(ctx, q, existing.ID, false); err != nil {
				return nil, fmt.Errorf("failed to reactivate category: %w", err)
			}
			existing.IsDeleted = false
			slog.Info("reactivated category", "name", name, "id", existing.ID)
		}
		return existing, nil
	}

	now := time.Now()
	result, err := q.ExecContext(ctx,
		`INSERT INTO categories (name, created_at, is_deleted) VALUES (?, ?, 0)`,
		name, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get category ID: %w", err)
	}

	slog.Info("created category", "name", name, "id", id)
	return &model.Category{
		ID:        id,
		Name:      name,
		CreatedAt: now,
		IsDeleted: false,
	}, nil
}

// SetCategoryDeleted flips the soft-delete flag on a category.
func (s *SQLiteStorage) SetCategoryDeleted(ctx context.Context, id int64, deleted bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return setCategoryDeleted(ctx, s.db, id, deleted)
}

func setCategoryDeleted(ctx context.Context, q queryable, id int64, deleted bool) error {
	flag := 0
	if deleted {
		flag = 1
	}

	result, err := q.ExecContext(ctx,
		`UPDATE categories SET is_deleted = ? WHERE id = ?`, flag, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
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

// DeleteCategory removes a category row. It does not touch the category's
// expenses; callers cascade over them first, inside the same transaction.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return deleteCategory(ctx, s.db, id)
}

func deleteCategory(ctx context.Context, q queryable, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
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

// RestoreCategory writes a category back with its original id, clearing the
// deleted flag. If a row with that id still exists (the soft-delete case) it
// is updated in place, so restoring is safe after either delete flavor.
func (s *SQLiteStorage) RestoreCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return restoreCategory(ctx, s.db, category)
}

func restoreCategory(ctx context.Context, q queryable, category *model.Category) error {
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if err := validateString(category.Name, "category name"); err != nil {
		return err
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO categories (id, name, created_at, is_deleted)
		VALUES (?, ?, ?, 0)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, is_deleted = 0`,
		category.ID, category.Name, category.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to restore category: %w", err)
	}

	return nil
}
