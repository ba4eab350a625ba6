// Package testutil provides shared storage doubles for tests that exercise
// failure paths the real SQLite backend will not produce on demand.
package testutil

import (
	"context"

	"outlay/internal/model"
	"outlay/internal/service"
)

// FailingStorage implements service.Storage with every operation returning the
// configured error. It lets callers verify how their error handling reacts to
// a broken persistence layer.
type FailingStorage struct {
	Err error
}

// NewFailingStorage returns a storage whose operations all fail with err.
func NewFailingStorage(err error) *FailingStorage {
	return &FailingStorage{Err: err}
}

func (f *FailingStorage) CreateExpense(context.Context, *model.Expense) error { return f.Err }
func (f *FailingStorage) GetExpenseByID(context.Context, string) (*model.Expense, error) {
	return nil, f.Err
}
func (f *FailingStorage) DeleteExpense(context.Context, string) error { return f.Err }
func (f *FailingStorage) ListExpenses(context.Context) ([]model.Expense, error) {
	return nil, f.Err
}
func (f *FailingStorage) GetExpensesByCategoryID(context.Context, int64) ([]model.Expense, error) {
	return nil, f.Err
}
func (f *FailingStorage) DeleteExpensesByCategoryID(context.Context, int64) error { return f.Err }
func (f *FailingStorage) GetCategoryTotal(context.Context, int64) (float64, error) {
	return 0, f.Err
}

func (f *FailingStorage) ListCategories(context.Context, bool) ([]model.Category, error) {
	return nil, f.Err
}
func (f *FailingStorage) GetCategoryByName(context.Context, string) (*model.Category, error) {
	return nil, f.Err
}
func (f *FailingStorage) GetCategoryByID(context.Context, int64) (*model.Category, error) {
	return nil, f.Err
}
func (f *FailingStorage) ResolveOrCreateCategory(context.Context, string) (*model.Category, error) {
	return nil, f.Err
}
func (f *FailingStorage) SetCategoryDeleted(context.Context, int64, bool) error { return f.Err }
func (f *FailingStorage) DeleteCategory(context.Context, int64) error           { return f.Err }
func (f *FailingStorage) RestoreCategory(context.Context, *model.Category) error {
	return f.Err
}

func (f *FailingStorage) SaveSnapshot(context.Context, *model.DeletionSnapshot) error { return f.Err }
func (f *FailingStorage) GetSnapshot(context.Context) (*model.DeletionSnapshot, error) {
	return nil, f.Err
}
func (f *FailingStorage) ClearSnapshot(context.Context) error { return f.Err }

func (f *FailingStorage) Migrate(context.Context) error { return f.Err }
func (f *FailingStorage) BeginTx(context.Context) (service.Tx, error) {
	return nil, f.Err
}
func (f *FailingStorage) Close() error { return f.Err }

var _ service.Storage = (*FailingStorage)(nil)
