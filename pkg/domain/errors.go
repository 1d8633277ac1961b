package domain

import "errors"

// ErrSnapshotNotFound is returned when no snapshot has been saved for a session.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrElementNotFound is returned when a command targets an id that is not in the document.
var ErrElementNotFound = errors.New("element not found")

// ErrDuplicateElement is returned when a document would end up holding two elements with the same id.
var ErrDuplicateElement = errors.New("duplicate element id")

// ErrUnknownAction is returned when a command carries an action tag the interpreter does not handle.
var ErrUnknownAction = errors.New("unknown action")
