package errors

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalid              = errors.New("invalid")
	ErrConflict             = errors.New("conflict")
	ErrTooMany              = errors.New("too many requests")
	ErrInternal             = errors.New("internal")
	ErrNoContent            = errors.New("no content")
	ErrDimensionMismatch    = errors.New("embedding dimension mismatch")
	ErrEmbeddingFailure     = errors.New("embedding failure")
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	ErrRetrievalTimeout     = errors.New("retrieval timeout")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
