package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"outlay/internal/model"
)

// The undo slot is a single-row table. Writing it replaces whatever deletion
// snapshot was there before; there is no history. Keeping it in the database
// lets the slot be written in the same transaction as the cascade it
// describes, so a crash can never leave a deletion without its snapshot.

// SaveSnapshot writes the deletion snapshot into the undo slot, overwriting
// any previous snapshot.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, snapshot *model.DeletionSnapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return saveSnapshot(ctx, s.db, snapshot)
}

func saveSnapshot(ctx context.Context, q queryable, snapshot *model.DeletionSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: snapshot", ErrNilParameter)
	}

	expensesJSON, err := json.Marshal(snapshot.Expenses)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot expenses: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO undo_snapshot (slot, category_id, category_name, category_created_at, expenses)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			category_id = excluded.category_id,
			category_name = excluded.category_name,
			category_created_at = excluded.category_created_at,
			expenses = excluded.expenses`,
		snapshot.Category.ID, snapshot.Category.Name, snapshot.Category.CreatedAt, string(expensesJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// GetSnapshot reads the undo slot. Returns nil without error when the slot is
// empty.
func (s *SQLiteStorage) GetSnapshot(ctx context.Context) (*model.DeletionSnapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getSnapshot(ctx, s.db)
}

func getSnapshot(ctx context.Context, q queryable) (*model.DeletionSnapshot, error) {
	query := `
		SELECT category_id, category_name, category_created_at, expenses
		FROM undo_snapshot
		WHERE slot = 1`

	var snapshot model.DeletionSnapshot
	var expensesJSON string
	err := q.QueryRowContext(ctx, query).Scan(
		&snapshot.Category.ID,
		&snapshot.Category.Name,
		&snapshot.Category.CreatedAt,
		&expensesJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	// The snapshot always describes a deleted category
	snapshot.Category.IsDeleted = true

	if err := json.Unmarshal([]byte(expensesJSON), &snapshot.Expenses); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot expenses: %w", err)
	}

	return &snapshot, nil
}

// ClearSnapshot empties the undo slot. Clearing an already empty slot is not
// an error.
func (s *SQLiteStorage) ClearSnapshot(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return clearSnapshot(ctx, s.db)
}

func clearSnapshot(ctx context.Context, q queryable) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM undo_snapshot WHERE slot = 1`); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	return nil
}
