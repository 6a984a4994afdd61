package protocol

import "errors"

var (
	// ErrNotInitialized is reported for image or edit messages that arrive
	// before InitSurfaces.
	ErrNotInitialized = errors.New("surfaces not initialized")
	// ErrAlreadyInitialized is reported for a second InitSurfaces.
	ErrAlreadyInitialized = errors.New("surfaces already initialized")
	// ErrStopped is returned by Send once the worker has stopped.
	ErrStopped = errors.New("render worker stopped")
)
