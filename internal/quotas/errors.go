package quotas

import "errors"

var (
	// ErrValidation marks a request rejected before any remote call.
	ErrValidation = errors.New("quotas: invalid reconciliation request")
)
