package apply

import "errors"

var (
	// ErrApply indicates a mutation failed mid-batch. Rollback of the
	// already-executed moves has been attempted before it is returned.
	ErrApply = errors.New("apply failed")

	// ErrCycle indicates the single-stage scheduler cannot linearize
	// the batch. Recoverable: the staged executor handles cycles.
	ErrCycle = errors.New("cycle detected in rename plan")
)
