package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outlay/internal/ledger"
	"outlay/internal/notify"
	"outlay/internal/storage"
)

const testCSV = `amount,category,description
12.50,Travel,airport coffee
50.00,Travel,flight
8.75,Dining,lunch
`

const testCSVNoHeader = `5.00,Travel,taxi
3.25,Dining
`

const testCSVShortRow = `amount,category,description
12.50,Travel,airport coffee
99.99
`

const testCSVBadAmount = `amount,category,description
not-a-number,Travel,flight
`

func setupImportTest(t *testing.T) (*ledger.Ledger, *storage.SQLiteStorage, *atomic.Int64) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))

	notifier := notify.New()
	t.Cleanup(func() {
		notifier.Close()
		_ = store.Close()
	})

	var notified atomic.Int64
	l := ledger.New(store, notifier)
	l.SubscribeToChanges(func() { notified.Add(1) })

	return l, store, &notified
}

func writeTestCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "expenses.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func waitForNotifications(t *testing.T, counter *atomic.Int64, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for counter.Load() < want {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for notifications: got %d, want %d", counter.Load(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRunImport(t *testing.T) {
	ctx := context.Background()

	t.Run("imports one expense per row", func(t *testing.T) {
		l, store, notified := setupImportTest(t)
		path := writeTestCSV(t, testCSV)

		imported, err := runImport(ctx, l, path, io.Discard)
		require.NoError(t, err)
		assert.Equal(t, 3, imported)

		expenses, err := store.ListExpenses(ctx)
		require.NoError(t, err)
		assert.Len(t, expenses, 3)

		travel, err := l.ExpensesFor(ctx, "Travel")
		require.NoError(t, err)
		assert.Len(t, travel, 2)

		total, err := l.TotalForCategory(ctx, "Travel")
		require.NoError(t, err)
		assert.Equal(t, 62.50, total)

		// One notification per imported row
		waitForNotifications(t, notified, 3)
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, int64(3), notified.Load())
	})

	t.Run("a file without a header imports every row", func(t *testing.T) {
		l, store, _ := setupImportTest(t)
		path := writeTestCSV(t, testCSVNoHeader)

		imported, err := runImport(ctx, l, path, io.Discard)
		require.NoError(t, err)
		assert.Equal(t, 2, imported)

		expenses, err := store.ListExpenses(ctx)
		require.NoError(t, err)
		assert.Len(t, expenses, 2)
	})

	t.Run("an empty file imports nothing", func(t *testing.T) {
		l, _, notified := setupImportTest(t)
		path := writeTestCSV(t, "amount,category,description\n")

		imported, err := runImport(ctx, l, path, io.Discard)
		require.NoError(t, err)
		assert.Equal(t, 0, imported)

		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, int64(0), notified.Load())
	})

	t.Run("a short row aborts with its row number", func(t *testing.T) {
		l, store, _ := setupImportTest(t)
		path := writeTestCSV(t, testCSVShortRow)

		imported, err := runImport(ctx, l, path, io.Discard)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row 2")
		assert.Equal(t, 1, imported)

		// Rows before the bad one stay recorded
		expenses, err := store.ListExpenses(ctx)
		require.NoError(t, err)
		assert.Len(t, expenses, 1)
	})

	t.Run("a bad amount aborts with its row number", func(t *testing.T) {
		l, store, _ := setupImportTest(t)
		path := writeTestCSV(t, testCSVBadAmount)

		imported, err := runImport(ctx, l, path, io.Discard)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row 1")
		assert.Equal(t, 0, imported)

		expenses, err := store.ListExpenses(ctx)
		require.NoError(t, err)
		assert.Empty(t, expenses)
	})

	t.Run("a missing file is an error", func(t *testing.T) {
		l, _, _ := setupImportTest(t)

		_, err := runImport(ctx, l, filepath.Join(t.TempDir(), "nope.csv"), io.Discard)
		assert.Error(t, err)
	})
}
