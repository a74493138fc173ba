package ledger

import "errors"

// Tags every operation wraps its failures with; callers branch with
// errors.Is instead of matching message text.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrNotFound         = errors.New("not found")
	ErrInvalidSchema    = errors.New("invalid schema")
	ErrCreditExceeded   = errors.New("credit exceeded")
	ErrAlreadyCheckedIn = errors.New("already checked in")
)
