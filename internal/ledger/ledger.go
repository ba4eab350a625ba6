// Package ledger implements the expense ledger's consistency core: the
// category lifecycle state machine, the single-slot deletion undo, and the
// derived read views the presentation layer consumes.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"outlay/internal/model"
	"outlay/internal/notify"
	"outlay/internal/service"
)

// Ledger owns all mutations of expense and category records. Mutating
// operations are serialized: one user action completes, including its commit,
// before the next is accepted. Reads go straight to committed storage state
// and may run concurrently.
//
// The undo slot lives in storage and is written in the same transaction as
// the deletion it describes, so a deletion and its snapshot are never
// observable apart.
type Ledger struct {
	store    service.Storage
	notifier *notify.Notifier

	// writeMu is the single-writer rule.
	writeMu sync.Mutex
}

// New creates a Ledger on top of a migrated store.
func New(store service.Storage, notifier *notify.Notifier) *Ledger {
	return &Ledger{store: store, notifier: notifier}
}

// SubscribeToChanges registers a handler invoked after every committed
// mutation, once per logical user action, in commit order.
func (l *Ledger) SubscribeToChanges(h notify.Handler) {
	l.notifier.Subscribe(h)
}

// AddExpense records a new expense under the named category. An unknown
// category name is created on the fly; a soft-deleted one is reactivated.
func (l *Ledger) AddExpense(ctx context.Context, amount float64, categoryName, description string) (*model.Expense, error) {
	if amount < 0 {
		return nil, ErrNegativeAmount
	}
	categoryName = strings.TrimSpace(categoryName)
	if categoryName == "" {
		return nil, ErrEmptyCategoryName
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	tx, err := l.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	cat, err := tx.ResolveOrCreateCategory(ctx, categoryName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	expense := &model.Expense{
		ID:          uuid.NewString(),
		Amount:      amount,
		Description: description,
		Date:        time.Now(),
		CategoryID:  cat.ID,
	}
	if err := tx.CreateExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	slog.Info("added expense", "id", expense.ID, "category", cat.Name, "amount", amount)
	l.notifier.Notify()
	return expense, nil
}

// DeleteExpense removes a single expense by id.
func (l *Ledger) DeleteExpense(ctx context.Context, id string) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if err := l.store.DeleteExpense(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: expense %s", ErrNotFound, id)
		}
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	slog.Info("deleted expense", "id", id)
	l.notifier.Notify()
	return nil
}

// AddCategory explicitly creates a category. A name matching an active
// category is rejected; a name matching a soft-deleted category reactivates
// it instead, keeping its history.
func (l *Ledger) AddCategory(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyCategoryName
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	existing, err := l.store.GetCategoryByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if existing != nil && !existing.IsDeleted {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateCategory, name)
	}

	cat, err := l.store.ResolveOrCreateCategory(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	l.notifier.Notify()
	return cat, nil
}

// SoftDeleteCategory hides a category from pickers and grouped views without
// touching its expenses. The category plus copies of its current expenses are
// captured into the undo slot in the same transaction, so the deletion can be
// reverted. Soft-deleting an already soft-deleted category is a no-op.
func (l *Ledger) SoftDeleteCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyCategoryName
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	cat, err := l.store.GetCategoryByName(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if cat == nil {
		return fmt.Errorf("%w: category %q", ErrNotFound, name)
	}
	if cat.IsDeleted {
		return nil
	}

	snapshot, err := l.captureSnapshot(ctx, cat)
	if err != nil {
		return err
	}

	tx, err := l.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.SetCategoryDeleted(ctx, cat.ID, true); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := tx.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	slog.Info("soft-deleted category", "name", cat.Name, "id", cat.ID, "expenses", len(snapshot.Expenses))
	l.notifier.Notify()
	return nil
}

// HardDeleteCategory permanently removes a category and every expense
// attached to it. When the category still has expenses and confirmed is
// false, it returns ErrNeedsConfirmation without mutating anything; the
// caller confirms and retries. The removal is all-or-nothing: the expense
// cascade, the category row removal, and the undo snapshot commit together
// or not at all. Each hard delete overwrites the previous snapshot.
func (l *Ledger) HardDeleteCategory(ctx context.Context, name string, confirmed bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyCategoryName
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	cat, err := l.store.GetCategoryByName(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if cat == nil {
		return fmt.Errorf("%w: category %q", ErrNotFound, name)
	}

	snapshot, err := l.captureSnapshot(ctx, cat)
	if err != nil {
		return err
	}
	if len(snapshot.Expenses) > 0 && !confirmed {
		return ErrNeedsConfirmation
	}

	tx, err := l.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.DeleteExpensesByCategoryID(ctx, cat.ID); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := tx.DeleteCategory(ctx, cat.ID); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := tx.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	slog.Info("hard-deleted category", "name", cat.Name, "id", cat.ID, "expenses", len(snapshot.Expenses))
	l.notifier.Notify()
	return nil
}

// UndoLastCategoryDeletion restores the category and expenses captured by the
// most recent deletion. The restored records keep their original identities.
// With an empty undo slot this is a harmless no-op; the returned bool reports
// whether anything was restored. The slot is cleared in the same transaction
// as the restore.
//
// If a different category was created under the snapshot's name since the
// deletion, the restore would collide with it; that returns
// ErrDuplicateCategory and leaves the slot intact, so the caller can remove
// the newer category and retry.
func (l *Ledger) UndoLastCategoryDeletion(ctx context.Context) (bool, error) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	snapshot, err := l.store.GetSnapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if snapshot == nil {
		return false, nil
	}

	current, err := l.store.GetCategoryByName(ctx, snapshot.Category.Name)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if current != nil && !current.IsDeleted && current.ID != snapshot.Category.ID {
		return false, fmt.Errorf("%w: %q", ErrDuplicateCategory, snapshot.Category.Name)
	}

	tx, err := l.store.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	restored := snapshot.Category
	restored.IsDeleted = false
	if err := tx.RestoreCategory(ctx, &restored); err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	for _, snap := range snapshot.Expenses {
		expense := &model.Expense{
			ID:          snap.ID,
			Amount:      snap.Amount,
			Description: snap.Description,
			Date:        snap.Date,
			CategoryID:  restored.ID,
		}
		if err := tx.CreateExpense(ctx, expense); err != nil {
			return false, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	}

	if err := tx.ClearSnapshot(ctx); err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	slog.Info("restored category", "name", restored.Name, "id", restored.ID, "expenses", len(snapshot.Expenses))
	l.notifier.Notify()
	return true, nil
}

// UndoAvailable reports whether a deletion snapshot is waiting in the slot.
func (l *Ledger) UndoAvailable(ctx context.Context) (bool, error) {
	snapshot, err := l.store.GetSnapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return snapshot != nil, nil
}

// captureSnapshot copies a category and its current expenses into a fresh
// deletion snapshot. The snapshot records the category as deleted; the undo
// path clears the flag when restoring.
func (l *Ledger) captureSnapshot(ctx context.Context, cat *model.Category) (*model.DeletionSnapshot, error) {
	expenses, err := l.store.GetExpensesByCategoryID(ctx, cat.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	snapshot := &model.DeletionSnapshot{Category: *cat}
	snapshot.Category.IsDeleted = true
	for _, e := range expenses {
		snapshot.Expenses = append(snapshot.Expenses, model.SnapshotExpense(e))
	}
	return snapshot, nil
}
