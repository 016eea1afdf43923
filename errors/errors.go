package errors

import "errors"

// Sentinel errors for common error conditions
var (
	// ErrNotInitialized indicates an operation that requires setup not yet
	// performed, such as querying the document index before any document
	// has been processed.
	ErrNotInitialized = errors.New("not initialized")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")

	// ErrTranslation indicates the model failed to produce any query text
	ErrTranslation = errors.New("query translation failed")

	// ErrProvider indicates that a capability boundary (model, embeddings,
	// search) failed or returned a failure signal.
	ErrProvider = errors.New("provider error")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")
)
