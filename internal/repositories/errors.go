package repositories

import "errors"

// Guard violations surfaced by repository transactions. Handlers map these to
// HTTP conflicts; callers are expected to refresh state, not retry blindly.
var (
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrNotFound              = errors.New("record not found")
	ErrPostAlreadyContracted = errors.New("post already has an accepted budget")
	ErrDuplicateBudget       = errors.New("provider already has a live budget on this post")
	ErrBudgetExpired         = errors.New("budget has expired")
	ErrAlreadyFinalized      = errors.New("party already finalized this contract")
)
