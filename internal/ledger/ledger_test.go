package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outlay/internal/notify"
	"outlay/internal/storage"
	"outlay/internal/testutil"
)

func createTestLedger(t *testing.T) (*Ledger, *storage.SQLiteStorage) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	notifier := notify.New()
	t.Cleanup(func() {
		notifier.Close()
		_ = store.Close()
	})

	return New(store, notifier), store
}

func TestAddExpense(t *testing.T) {
	ctx := context.Background()

	t.Run("creates unknown categories on the fly", func(t *testing.T) {
		l, store := createTestLedger(t)

		expense, err := l.AddExpense(ctx, 12.50, "Travel", "airport coffee")
		require.NoError(t, err)
		assert.NotEmpty(t, expense.ID)
		assert.Equal(t, 12.50, expense.Amount)

		cat, err := store.GetCategoryByName(ctx, "Travel")
		require.NoError(t, err)
		require.NotNil(t, cat)
		assert.False(t, cat.IsDeleted)
		assert.Equal(t, cat.ID, expense.CategoryID)
	})

	t.Run("reactivates a soft-deleted category", func(t *testing.T) {
		l, store := createTestLedger(t)

		_, err := l.AddExpense(ctx, 10, "Travel", "")
		require.NoError(t, err)
		require.NoError(t, l.SoftDeleteCategory(ctx, "Travel"))

		_, err = l.AddExpense(ctx, 5, "Travel", "")
		require.NoError(t, err)

		cat, err := store.GetCategoryByName(ctx, "Travel")
		require.NoError(t, err)
		require.NotNil(t, cat)
		assert.False(t, cat.IsDeleted)

		picker, err := l.CategoriesForPicker(ctx)
		require.NoError(t, err)
		assert.Contains(t, picker, "Travel")

		// The earlier expense survived both the soft delete and the revival
		expenses, err := l.ExpensesFor(ctx, "Travel")
		require.NoError(t, err)
		assert.Len(t, expenses, 2)
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		l, _ := createTestLedger(t)

		_, err := l.AddExpense(ctx, -1, "Travel", "")
		assert.ErrorIs(t, err, ErrNegativeAmount)
	})

	t.Run("rejects blank category names", func(t *testing.T) {
		l, _ := createTestLedger(t)

		_, err := l.AddExpense(ctx, 1, "   ", "")
		assert.ErrorIs(t, err, ErrEmptyCategoryName)
	})

	t.Run("accepts a zero amount", func(t *testing.T) {
		l, _ := createTestLedger(t)

		_, err := l.AddExpense(ctx, 0, "Travel", "refunded")
		assert.NoError(t, err)
	})
}

func TestDeleteExpense(t *testing.T) {
	ctx := context.Background()
	l, _ := createTestLedger(t)

	expense, err := l.AddExpense(ctx, 5, "Travel", "")
	require.NoError(t, err)

	require.NoError(t, l.DeleteExpense(ctx, expense.ID))
	assert.ErrorIs(t, l.DeleteExpense(ctx, expense.ID), ErrNotFound)
}

func TestAddCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects an active duplicate", func(t *testing.T) {
		l, _ := createTestLedger(t)

		_, err := l.AddCategory(ctx, "Travel")
		require.NoError(t, err)

		_, err = l.AddCategory(ctx, "Travel")
		assert.ErrorIs(t, err, ErrDuplicateCategory)
	})

	t.Run("revives a soft-deleted name instead of duplicating it", func(t *testing.T) {
		l, _ := createTestLedger(t)

		first, err := l.AddCategory(ctx, "Travel")
		require.NoError(t, err)
		require.NoError(t, l.SoftDeleteCategory(ctx, "Travel"))

		revived, err := l.AddCategory(ctx, "Travel")
		require.NoError(t, err)
		assert.Equal(t, first.ID, revived.ID)
		assert.False(t, revived.IsDeleted)
	})

	t.Run("rejects blank names", func(t *testing.T) {
		l, _ := createTestLedger(t)

		_, err := l.AddCategory(ctx, "")
		assert.ErrorIs(t, err, ErrEmptyCategoryName)
	})
}

func TestSoftDeleteCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("hides the category but keeps its expenses", func(t *testing.T) {
		l, _ := createTestLedger(t)

		_, err := l.AddExpense(ctx, 50, "Travel", "flight")
		require.NoError(t, err)

		require.NoError(t, l.SoftDeleteCategory(ctx, "Travel"))

		picker, err := l.CategoriesForPicker(ctx)
		require.NoError(t, err)
		assert.NotContains(t, picker, "Travel")

		all, err := l.AllCategories(ctx, true)
		require.NoError(t, err)
		assert.Contains(t, all, "Travel")

		expenses, err := l.ExpensesFor(ctx, "Travel")
		require.NoError(t, err)
		assert.Len(t, expenses, 1)
	})

	t.Run("unknown category is an error", func(t *testing.T) {
		l, _ := createTestLedger(t)

		assert.ErrorIs(t, l.SoftDeleteCategory(ctx, "Nope"), ErrNotFound)
	})

	t.Run("repeating the delete is a no-op", func(t *testing.T) {
		l, _ := createTestLedger(t)

		_, err := l.AddCategory(ctx, "Travel")
		require.NoError(t, err)

		require.NoError(t, l.SoftDeleteCategory(ctx, "Travel"))
		require.NoError(t, l.SoftDeleteCategory(ctx, "Travel"))
	})
}

func TestHardDeleteCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("requires confirmation when expenses exist", func(t *testing.T) {
		l, _ := createTestLedger(t)

		_, err := l.AddExpense(ctx, 50, "Travel", "flight")
		require.NoError(t, err)

		err = l.HardDeleteCategory(ctx, "Travel", false)
		assert.ErrorIs(t, err, ErrNeedsConfirmation)

		// Nothing was mutated by the refused attempt
		expenses, err := l.ExpensesFor(ctx, "Travel")
		require.NoError(t, err)
		assert.Len(t, expenses, 1)

		available, err := l.UndoAvailable(ctx)
		require.NoError(t, err)
		assert.False(t, available)
	})

	t.Run("confirmed delete removes category and expenses together", func(t *testing.T) {
		l, store := createTestLedger(t)

		_, err := l.AddExpense(ctx, 50, "Travel", "flight")
		require.NoError(t, err)
		_, err = l.AddExpense(ctx, 120, "Travel", "hotel")
		require.NoError(t, err)

		require.NoError(t, l.HardDeleteCategory(ctx, "Travel", true))

		cat, err := store.GetCategoryByName(ctx, "Travel")
		require.NoError(t, err)
		assert.Nil(t, cat)

		expenses, err := l.ExpensesFor(ctx, "Travel")
		require.NoError(t, err)
		assert.Empty(t, expenses)
	})

	t.Run("an empty category needs no confirmation", func(t *testing.T) {
		l, _ := createTestLedger(t)

		_, err := l.AddCategory(ctx, "Travel")
		require.NoError(t, err)

		assert.NoError(t, l.HardDeleteCategory(ctx, "Travel", false))
	})

	t.Run("works on a soft-deleted category", func(t *testing.T) {
		l, store := createTestLedger(t)

		_, err := l.AddExpense(ctx, 50, "Travel", "flight")
		require.NoError(t, err)
		require.NoError(t, l.SoftDeleteCategory(ctx, "Travel"))

		require.NoError(t, l.HardDeleteCategory(ctx, "Travel", true))

		cat, err := store.GetCategoryByName(ctx, "Travel")
		require.NoError(t, err)
		assert.Nil(t, cat)
	})

	t.Run("unknown category is an error", func(t *testing.T) {
		l, _ := createTestLedger(t)

		assert.ErrorIs(t, l.HardDeleteCategory(ctx, "Nope", true), ErrNotFound)
	})
}

func TestUndoLastCategoryDeletion(t *testing.T) {
	ctx := context.Background()

	t.Run("empty slot is a harmless no-op", func(t *testing.T) {
		l, _ := createTestLedger(t)

		restored, err := l.UndoLastCategoryDeletion(ctx)
		require.NoError(t, err)
		assert.False(t, restored)
	})

	t.Run("restores a soft-deleted category", func(t *testing.T) {
		l, store := createTestLedger(t)

		_, err := l.AddExpense(ctx, 50, "Travel", "flight")
		require.NoError(t, err)
		require.NoError(t, l.SoftDeleteCategory(ctx, "Travel"))

		restored, err := l.UndoLastCategoryDeletion(ctx)
		require.NoError(t, err)
		assert.True(t, restored)

		cat, err := store.GetCategoryByName(ctx, "Travel")
		require.NoError(t, err)
		require.NotNil(t, cat)
		assert.False(t, cat.IsDeleted)
	})

	t.Run("restores a hard-deleted category with original identities", func(t *testing.T) {
		l, store := createTestLedger(t)

		expense, err := l.AddExpense(ctx, 50, "Travel", "flight")
		require.NoError(t, err)
		before, err := store.GetCategoryByName(ctx, "Travel")
		require.NoError(t, err)
		require.NotNil(t, before)

		require.NoError(t, l.HardDeleteCategory(ctx, "Travel", true))

		restored, err := l.UndoLastCategoryDeletion(ctx)
		require.NoError(t, err)
		assert.True(t, restored)

		after, err := store.GetCategoryByName(ctx, "Travel")
		require.NoError(t, err)
		require.NotNil(t, after)
		assert.Equal(t, before.ID, after.ID)
		assert.False(t, after.IsDeleted)

		expenses, err := l.ExpensesFor(ctx, "Travel")
		require.NoError(t, err)
		require.Len(t, expenses, 1)
		assert.Equal(t, expense.ID, expenses[0].ID)
		assert.Equal(t, 50.0, expenses[0].Amount)
	})

	t.Run("consumes the slot", func(t *testing.T) {
		l, _ := createTestLedger(t)

		_, err := l.AddCategory(ctx, "Travel")
		require.NoError(t, err)
		require.NoError(t, l.SoftDeleteCategory(ctx, "Travel"))

		restored, err := l.UndoLastCategoryDeletion(ctx)
		require.NoError(t, err)
		assert.True(t, restored)

		restored, err = l.UndoLastCategoryDeletion(ctx)
		require.NoError(t, err)
		assert.False(t, restored)
	})

	t.Run("a second deletion overwrites the slot", func(t *testing.T) {
		l, store := createTestLedger(t)

		_, err := l.AddExpense(ctx, 50, "Travel", "flight")
		require.NoError(t, err)
		_, err = l.AddExpense(ctx, 30, "Dining", "dinner")
		require.NoError(t, err)

		require.NoError(t, l.HardDeleteCategory(ctx, "Travel", true))
		require.NoError(t, l.HardDeleteCategory(ctx, "Dining", true))

		restored, err := l.UndoLastCategoryDeletion(ctx)
		require.NoError(t, err)
		assert.True(t, restored)

		// Only the most recent deletion comes back
		dining, err := store.GetCategoryByName(ctx, "Dining")
		require.NoError(t, err)
		assert.NotNil(t, dining)

		travel, err := store.GetCategoryByName(ctx, "Travel")
		require.NoError(t, err)
		assert.Nil(t, travel)
	})

	t.Run("a new category under the deleted name blocks the restore", func(t *testing.T) {
		l, store := createTestLedger(t)

		_, err := l.AddExpense(ctx, 50, "Travel", "flight")
		require.NoError(t, err)
		require.NoError(t, l.HardDeleteCategory(ctx, "Travel", true))

		// A fresh category takes the name before the undo
		replacement, err := l.AddCategory(ctx, "Travel")
		require.NoError(t, err)

		restored, err := l.UndoLastCategoryDeletion(ctx)
		assert.ErrorIs(t, err, ErrDuplicateCategory)
		assert.False(t, restored)

		// The replacement survives and the slot is kept for a later retry
		cat, err := store.GetCategoryByName(ctx, "Travel")
		require.NoError(t, err)
		require.NotNil(t, cat)
		assert.Equal(t, replacement.ID, cat.ID)

		available, err := l.UndoAvailable(ctx)
		require.NoError(t, err)
		assert.True(t, available)

		// Deleting the replacement overwrites the slot, so the retry
		// restores the replacement, not the original
		require.NoError(t, l.SoftDeleteCategory(ctx, "Travel"))
		restored, err = l.UndoLastCategoryDeletion(ctx)
		require.NoError(t, err)
		assert.True(t, restored)

		cat, err = store.GetCategoryByName(ctx, "Travel")
		require.NoError(t, err)
		require.NotNil(t, cat)
		assert.Equal(t, replacement.ID, cat.ID)
	})

	t.Run("undo after reactivation does not lose later expenses", func(t *testing.T) {
		l, _ := createTestLedger(t)

		_, err := l.AddExpense(ctx, 50, "Travel", "flight")
		require.NoError(t, err)
		require.NoError(t, l.SoftDeleteCategory(ctx, "Travel"))

		// Adding revives the category while the snapshot still sits in the slot
		_, err = l.AddExpense(ctx, 20, "Travel", "taxi")
		require.NoError(t, err)

		restored, err := l.UndoLastCategoryDeletion(ctx)
		require.NoError(t, err)
		assert.True(t, restored)

		expenses, err := l.ExpensesFor(ctx, "Travel")
		require.NoError(t, err)
		assert.Len(t, expenses, 2)
	})
}

func TestUndoAvailable(t *testing.T) {
	ctx := context.Background()
	l, _ := createTestLedger(t)

	available, err := l.UndoAvailable(ctx)
	require.NoError(t, err)
	assert.False(t, available)

	_, err = l.AddCategory(ctx, "Travel")
	require.NoError(t, err)
	require.NoError(t, l.SoftDeleteCategory(ctx, "Travel"))

	available, err = l.UndoAvailable(ctx)
	require.NoError(t, err)
	assert.True(t, available)
}

func TestPersistenceErrorsWrapped(t *testing.T) {
	ctx := context.Background()
	errBoom := errors.New("disk on fire")

	notifier := notify.New()
	defer notifier.Close()
	l := New(testutil.NewFailingStorage(errBoom), notifier)

	_, err := l.AddExpense(ctx, 5, "Travel", "")
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, errBoom)

	assert.ErrorIs(t, l.SoftDeleteCategory(ctx, "Travel"), ErrPersistence)
	assert.ErrorIs(t, l.HardDeleteCategory(ctx, "Travel", true), ErrPersistence)

	_, err = l.UndoLastCategoryDeletion(ctx)
	assert.ErrorIs(t, err, ErrPersistence)

	_, err = l.CategoriesForPicker(ctx)
	assert.ErrorIs(t, err, ErrPersistence)

	_, err = l.TotalForCategory(ctx, "Travel")
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestChangeNotifications(t *testing.T) {
	ctx := context.Background()
	l, _ := createTestLedger(t)

	events := make(chan struct{}, 16)
	l.SubscribeToChanges(func() { events <- struct{}{} })

	waitForEvent := func(action string) {
		t.Helper()
		select {
		case <-events:
		case <-time.After(2 * time.Second):
			t.Fatalf("No notification after %s", action)
		}
	}

	expense, err := l.AddExpense(ctx, 50, "Travel", "flight")
	require.NoError(t, err)
	waitForEvent("AddExpense")

	require.NoError(t, l.SoftDeleteCategory(ctx, "Travel"))
	waitForEvent("SoftDeleteCategory")

	restored, err := l.UndoLastCategoryDeletion(ctx)
	require.NoError(t, err)
	require.True(t, restored)
	waitForEvent("UndoLastCategoryDeletion")

	require.NoError(t, l.DeleteExpense(ctx, expense.ID))
	waitForEvent("DeleteExpense")

	// Reads and refused mutations stay silent
	_, err = l.CategoriesForPicker(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, l.SoftDeleteCategory(ctx, "Nope"), ErrNotFound)

	select {
	case <-events:
		t.Error("Unexpected notification from a read or a refused mutation")
	case <-time.After(100 * time.Millisecond):
	}
}
