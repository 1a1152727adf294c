package transition

import "errors"

var (
	// ErrInvalidTransition indicates the requested movement is not defined
	// for the job's current stage or status.
	ErrInvalidTransition = errors.New("invalid transition for current stage")

	// ErrStaleState indicates the job moved in storage since it was loaded.
	// Callers should re-read the job and retry.
	ErrStaleState = errors.New("job state is stale")
)
