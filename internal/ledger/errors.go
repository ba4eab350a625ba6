package ledger

import "errors"

// Error kinds surfaced to the presentation layer. Validation and not-found
// errors carry user-facing meaning; persistence errors wrap the underlying
// storage failure unchanged and are never retried here.
var (
	// ErrNotFound indicates the named or identified record has no live row.
	ErrNotFound = errors.New("not found")

	// ErrNeedsConfirmation is returned by a hard delete of a category that
	// still has expenses when the caller has not confirmed the cascade. It is
	// a required round-trip, not a failure; no mutation has occurred.
	ErrNeedsConfirmation = errors.New("category has expenses; deletion requires confirmation")

	// ErrEmptyCategoryName rejects blank (or whitespace-only) category names.
	ErrEmptyCategoryName = errors.New("category name cannot be empty")

	// ErrDuplicateCategory rejects creating a category whose name collides
	// with an existing active one.
	ErrDuplicateCategory = errors.New("category already exists")

	// ErrNegativeAmount rejects expenses with a negative amount.
	ErrNegativeAmount = errors.New("expense amount cannot be negative")

	// ErrPersistence wraps storage failures. State is unchanged when it is
	// returned; the failed transaction was rolled back.
	ErrPersistence = errors.New("persistence failure")
)
