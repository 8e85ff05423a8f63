package plan

import "errors"

// ErrValidation indicates a plan is structurally unsound: a malformed
// plan file, a destination collision or escape, or a missing source.
// Validation failures are raised before any mutation and never retried.
var ErrValidation = errors.New("invalid rename plan")
