package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrStoreUnavailable indicates the vector store cannot be reached.
	// Fatal: the pipeline aborts before any extraction begins.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrEmptyDocument indicates the document text is empty after trimming.
	// Raised before any embedding calls are issued.
	ErrEmptyDocument = errors.New("document is empty")

	// ErrUnsupportedFormat indicates an unknown document file format.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrAgentFailed indicates an extraction agent exhausted retries for
	// every one of its fields. Other agents are unaffected.
	ErrAgentFailed = errors.New("agent failed for all fields")
)

// TransientError marks a provider failure that may succeed on retry,
// such as a timeout, a 429, or a 5xx response.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

// NewTransientError wraps an error as transient (retryable).
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// PermanentError marks a provider failure that must not be retried,
// such as invalid credentials or a malformed request.
type PermanentError struct {
	err error
}

func (e *PermanentError) Error() string {
	return e.err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.err
}

// NewPermanentError wraps an error as permanent (non-retryable).
func NewPermanentError(err error) error {
	return &PermanentError{err: err}
}

// IsTransient returns true if the error should be retried.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsPermanent returns true if the error must not be retried.
func IsPermanent(err error) bool {
	var permanent *PermanentError
	return errors.As(err, &permanent)
}
