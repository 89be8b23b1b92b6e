package api

import (
	"errors"
	"fmt"
)

// The desk sorts every remote failure into one of three buckets. Read paths
// treat ErrUnavailable as retryable; ErrAuthExpired forces a re-login;
// ErrRejected means the backend refused a mutation after the desk already
// applied it optimistically, so the caller must roll back.
var (
	ErrAuthExpired = errors.New("mechanic session expired")
	ErrUnavailable = errors.New("mechanic api unavailable")
	ErrRejected    = errors.New("mechanic api rejected the change")
)

// StatusError carries the HTTP status of a failed call alongside its bucket.
type StatusError struct {
	Code     int
	Endpoint string
	kind     error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d (%s)", e.kind.Error(), e.Code, e.Endpoint)
}

func (e *StatusError) Unwrap() error { return e.kind }

// classify maps an HTTP status to the error taxonomy. write distinguishes
// mutations, whose 4xx responses mean the backend vetoed the change, from
// reads, whose 4xx responses are treated as a plain availability problem.
func classify(code int, endpoint string, write bool) error {
	switch {
	case code == 401:
		return &StatusError{Code: code, Endpoint: endpoint, kind: ErrAuthExpired}
	case write && code >= 400 && code < 500:
		return &StatusError{Code: code, Endpoint: endpoint, kind: ErrRejected}
	default:
		return &StatusError{Code: code, Endpoint: endpoint, kind: ErrUnavailable}
	}
}
