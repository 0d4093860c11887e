package document

import "errors"

var (
	// ErrNotFound indicates an unknown document id.
	ErrNotFound = errors.New("document not found")

	// ErrClarification indicates an invalid clarification operation,
	// such as answering an item that is already answered or expired.
	ErrClarification = errors.New("clarification conflict")

	// ErrScopeNotAvailable indicates that no scope has been generated
	// for the document yet.
	ErrScopeNotAvailable = errors.New("scope not available")
)
