package infra

import (
	"context"
	"errors"

	"reservio/internal/pkg/errs"
)

type RepositoryErrorKind string

const (
	KindNotFound   RepositoryErrorKind = "NOT_FOUND"
	KindDBFailure  RepositoryErrorKind = "DB_FAILURE"
	KindConflict   RepositoryErrorKind = "CONFLICT"
	KindStaleState RepositoryErrorKind = "STALE_STATE"
	KindTimeout    RepositoryErrorKind = "TIMEOUT"
)

type RepositoryError struct {
	Kind RepositoryErrorKind
	msg  string
	err  error // wrapped low-level error
}

func (e RepositoryError) Error() string {
	if e.err != nil {
		return string(e.Kind) + ": " + e.msg + ": " + e.err.Error()
	}
	return string(e.Kind) + ": " + e.msg
}

func (e RepositoryError) Unwrap() error {
	return e.err
}

// WrapRepoErr classifies a store failure. Kind defaults to DB_FAILURE;
// context deadline errors are always classified as TIMEOUT so callers can
// surface them as retryable.
func WrapRepoErr(msg string, err error, kind ...RepositoryErrorKind) error {
	k := KindDBFailure
	if len(kind) > 0 {
		k = kind[0]
	}
	if errors.Is(err, context.DeadlineExceeded) {
		k = KindTimeout
	}
	if err != nil {
		err = errs.Wrap(err, msg)
	}
	return RepositoryError{Kind: k, msg: msg, err: err}
}

func IsKind(err error, kind RepositoryErrorKind) bool {
	var e RepositoryError
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
