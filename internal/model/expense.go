package model

import "time"

// Expense represents a single recorded expense.
//
// Expenses are immutable after creation; they are only ever deleted directly,
// removed by a category cascade, or recreated from a deletion snapshot.
type Expense struct {
	Date        time.Time
	ID          string
	Description string
	Amount      float64
	CategoryID  int64
}
