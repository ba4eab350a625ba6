package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"outlay/internal/model"
	"outlay/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage implements the service.Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Tx, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTx{tx: tx}, nil
}

// queryable is an interface satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// sqliteTx wraps sql.Tx to implement service.Tx. Every Storage method is the
// same helper the main storage uses, run against the transaction handle.
type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) CreateExpense(ctx context.Context, expense *model.Expense) error {
	return createExpense(ctx, t.tx, expense)
}

func (t *sqliteTx) GetExpenseByID(ctx context.Context, id string) (*model.Expense, error) {
	return getExpenseByID(ctx, t.tx, id)
}

func (t *sqliteTx) DeleteExpense(ctx context.Context, id string) error {
	return deleteExpense(ctx, t.tx, id)
}

func (t *sqliteTx) ListExpenses(ctx context.Context) ([]model.Expense, error) {
	return listExpenses(ctx, t.tx)
}

func (t *sqliteTx) GetExpensesByCategoryID(ctx context.Context, categoryID int64) ([]model.Expense, error) {
	return getExpensesByCategoryID(ctx, t.tx, categoryID)
}

func (t *sqliteTx) DeleteExpensesByCategoryID(ctx context.Context, categoryID int64) error {
	return deleteExpensesByCategoryID(ctx, t.tx, categoryID)
}

func (t *sqliteTx) GetCategoryTotal(ctx context.Context, categoryID int64) (float64, error) {
	return getCategoryTotal(ctx, t.tx, categoryID)
}

func (t *sqliteTx) ListCategories(ctx context.Context, includeDeleted bool) ([]model.Category, error) {
	return listCategories(ctx, t.tx, includeDeleted)
}

func (t *sqliteTx) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	return getCategoryByName(ctx, t.tx, name)
}

func (t *sqliteTx) GetCategoryByID(ctx context.Context, id int64) (*model.Category, error) {
	return getCategoryByID(ctx, t.tx, id)
}

func (t *sqliteTx) ResolveOrCreateCategory(ctx context.Context, name string) (*model.Category, error) {
	return resolveOrCreateCategory(ctx, t.tx, name)
}

func (t *sqliteTx) SetCategoryDeleted(ctx context.Context, id int64, deleted bool) error {
	return setCategoryDeleted(ctx, t.tx, id, deleted)
}

func (t *sqliteTx) DeleteCategory(ctx context.Context, id int64) error {
	return deleteCategory(ctx, t.tx, id)
}

func (t *sqliteTx) RestoreCategory(ctx context.Context, category *model.Category) error {
	return restoreCategory(ctx, t.tx, category)
}

func (t *sqliteTx) SaveSnapshot(ctx context.Context, snapshot *model.DeletionSnapshot) error {
	return saveSnapshot(ctx, t.tx, snapshot)
}

func (t *sqliteTx) GetSnapshot(ctx context.Context) (*model.DeletionSnapshot, error) {
	return getSnapshot(ctx, t.tx)
}

func (t *sqliteTx) ClearSnapshot(ctx context.Context) error {
	return clearSnapshot(ctx, t.tx)
}

func (t *sqliteTx) Migrate(_ context.Context) error {
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *sqliteTx) BeginTx(_ context.Context) (service.Tx, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *sqliteTx) Close() error {
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}
