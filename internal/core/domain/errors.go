package domain

import "errors"

// Sentinel errors. Adapters wrap them with context; callers match with
// errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates an optional collaborator was not configured.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown store backend, subject kind or tool.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrReadOnly indicates a mutation was attempted on a read-only annotator.
	ErrReadOnly = errors.New("annotator is read-only")

	// ErrNoSelection indicates an annotation was created without a captured range.
	ErrNoSelection = errors.New("no pending selection")

	// ErrInvalidPage indicates a page index outside 1..pageCount.
	ErrInvalidPage = errors.New("invalid page")

	// ErrPageNotReady indicates the native size of a page is not yet known.
	ErrPageNotReady = errors.New("page geometry not ready")

	// ErrDigestMismatch indicates a subject's text no longer matches its stored digest.
	ErrDigestMismatch = errors.New("subject digest mismatch")
)
