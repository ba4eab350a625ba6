package model

import "time"

// ExpenseSnapshot is a lightweight copy of an expense captured when its
// category is deleted. The category is implied by the enclosing
// DeletionSnapshot, so no category reference is stored.
type ExpenseSnapshot struct {
	Date        time.Time
	ID          string
	Description string
	Amount      float64
}

// DeletionSnapshot captures everything needed to undo a category deletion:
// the category record and copies of every expense that belonged to it at the
// time of deletion. At most one snapshot is live at a time; each new deletion
// overwrites the previous one.
type DeletionSnapshot struct {
	Category Category
	Expenses []ExpenseSnapshot
}

// SnapshotExpense copies the undo-relevant fields of an expense.
func SnapshotExpense(e Expense) ExpenseSnapshot {
	return ExpenseSnapshot{
		ID:          e.ID,
		Amount:      e.Amount,
		Description: e.Description,
		Date:        e.Date,
	}
}
