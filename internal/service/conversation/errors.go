package conversation

import "errors"

// Error kinds surfaced by the orchestrator. Callers map them with errors.Is.
var (
	ErrValidation       = errors.New("invalid request")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrModelService     = errors.New("model service unavailable")
	ErrInternal         = errors.New("internal error")
)
