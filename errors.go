package portalauth

import "errors"

var (
	// ErrEmptyToken is returned by Save and OnAuthenticated when the token is empty.
	ErrEmptyToken = errors.New("session token must not be empty")
	// ErrStorageWrite is returned when a session key could not be persisted or removed.
	ErrStorageWrite = errors.New("session storage write failed")
	// ErrSessionNotSaved marks a Save or OnAuthenticated whose token write
	// failed. The session is unchanged and no navigation happened.
	ErrSessionNotSaved = errors.New("session not saved")
	// ErrBuilderUsed is returned when Build is called twice on the same Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrNilStore is returned when a guard or middleware is built without a SessionStore.
	ErrNilStore = errors.New("session store is nil")
	// ErrInvalidConfig wraps every Config validation failure.
	ErrInvalidConfig = errors.New("invalid config")
)
