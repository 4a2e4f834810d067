package webmodal

import "errors"

// Manager errors. All of them indicate a caller bug; the manager leaves
// its state untouched when it returns one.
var (
	ErrDuplicateDialog = errors.New("dialog already registered")
	ErrUnknownDialog   = errors.New("dialog not registered")
	ErrInvalidDialogID = errors.New("invalid dialog id")
	ErrNilController   = errors.New("controller is required")
	ErrHostDestroyed   = errors.New("host surface destroyed")
)
