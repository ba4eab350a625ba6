package model

import "time"

// Category represents an expense category.
//
// A category is soft-deleted by flipping IsDeleted rather than removing the
// row, so historical expenses keep a resolvable reference. Only a hard delete
// removes the row, and that cascades over the category's expenses.
type Category struct {
	CreatedAt time.Time
	Name      string
	ID        int64
	IsDeleted bool
}
