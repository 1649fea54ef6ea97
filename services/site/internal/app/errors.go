package app

import "errors"

var (
	// ErrStoreNotConfigured is returned by writes when no database is attached.
	// Public reads never see it; they fall back to static content instead.
	ErrStoreNotConfigured = errors.New("store not configured")
	ErrAuthNotConfigured  = errors.New("auth provider not configured")

	ErrMissingIDs = errors.New("userId or dbId required")

	// ErrProfileInsert means the auth identity exists but its admin profile does not.
	// The identity is left in place for an operator to reconcile.
	ErrProfileInsert = errors.New("auth identity created but profile insert failed")
	ErrProfileDelete = errors.New("admin profile delete failed")
)

// InputError is a request the caller can correct. Message is safe to return to clients.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}
