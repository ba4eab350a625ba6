// Package service defines the interfaces the ledger core is written against.
package service

import (
	"context"

	"outlay/internal/model"
)

// Storage defines the contract for the persistence layer.
//
// Read operations always observe the last committed state. Mutations issued
// directly on a Storage each commit on their own; multi-record mutations that
// must be atomic (the cascade delete, the undo restore) run on a Tx obtained
// from BeginTx, and become visible to readers only when the Tx commits.
type Storage interface {
	// Expense operations
	CreateExpense(ctx context.Context, expense *model.Expense) error
	GetExpenseByID(ctx context.Context, id string) (*model.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
	ListExpenses(ctx context.Context) ([]model.Expense, error)
	GetExpensesByCategoryID(ctx context.Context, categoryID int64) ([]model.Expense, error)
	DeleteExpensesByCategoryID(ctx context.Context, categoryID int64) error
	GetCategoryTotal(ctx context.Context, categoryID int64) (float64, error)

	// Category operations
	ListCategories(ctx context.Context, includeDeleted bool) ([]model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*model.Category, error)
	ResolveOrCreateCategory(ctx context.Context, name string) (*model.Category, error)
	SetCategoryDeleted(ctx context.Context, id int64, deleted bool) error
	DeleteCategory(ctx context.Context, id int64) error
	RestoreCategory(ctx context.Context, category *model.Category) error

	// Undo slot operations. The slot holds at most one deletion snapshot;
	// saving overwrites the previous one.
	SaveSnapshot(ctx context.Context, snapshot *model.DeletionSnapshot) error
	GetSnapshot(ctx context.Context) (*model.DeletionSnapshot, error)
	ClearSnapshot(ctx context.Context) error

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Tx, error)
	Close() error
}

// Tx represents a storage transaction. It exposes the full Storage contract;
// every operation performed through it is applied atomically on Commit and
// discarded on Rollback.
type Tx interface {
	Commit() error
	Rollback() error
	Storage
}
