package client

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the paint flow. Out-of-bounds pointer positions
// reuse grid.ErrOutOfBounds and are silently ignored by the UI.
var (
	// ErrCooldownActive means the local gate rejected a paint attempt,
	// either because a cooldown is running or another paint is still in
	// flight. Shown as a transient notice, never logged as an error.
	ErrCooldownActive = errors.New("cooldown active")

	// ErrInvalidColor means the requested color failed local validation
	// before any request was made.
	ErrInvalidColor = errors.New("invalid color")

	// ErrNotFound is returned for resources the store reports as absent,
	// such as a pixel that has never been painted.
	ErrNotFound = errors.New("not found")
)

// Machine codes the store uses in rejection envelopes.
const (
	CodeInvalidCoordinates = "INVALID_COORDINATES"
	CodeCooldownActive     = "COOLDOWN_ACTIVE"
)

// RejectionError is a remote decline: the store received the request and
// refused it, for example for out-of-range coordinates. Local state must
// stay unchanged; the message is surfaced to the user.
type RejectionError struct {
	Code    string
	Message string
}

func (e *RejectionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("rejected (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("rejected: %s", e.Message)
}

// RateLimitError is the server-side cooldown decline. Remaining carries
// the seconds the store reports, so the local gate can resynchronize.
type RateLimitError struct {
	Message   string
	Remaining int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: %s (%ds remaining)", e.Message, e.Remaining)
}

// TransportError is a connectivity-level failure: the request never
// completed, or the store answered with a server fault. Distinct from a
// rejection since a retry may help.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError means a success response was missing expected
// fields or failed to decode. It is a hard local error: the affected
// state is never silently defaulted.
type MalformedResponseError struct {
	Endpoint string
	Reason   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %s", e.Endpoint, e.Reason)
}

// IsRateLimited reports whether err is a server-side cooldown decline.
func IsRateLimited(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// IsRejection reports whether err is a remote decline of any kind,
// including rate limits.
func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re) || IsRateLimited(err)
}

// IsTransport reports whether err is a connectivity-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsMalformed reports whether err is a malformed-response failure.
func IsMalformed(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}

// FeedSource identifies which background feed produced an error.
type FeedSource string

const (
	FeedState       FeedSource = "state"
	FeedActivity    FeedSource = "activity"
	FeedCanvasInfo  FeedSource = "canvas_info"
	FeedUserStats   FeedSource = "user_stats"
	FeedHealthCheck FeedSource = "health"
)

// FeedError wraps an error with the feed that produced it.
// It preserves the original error for inspection via errors.Is/errors.As.
type FeedError struct {
	Source FeedSource
	Err    error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *FeedError) Unwrap() error { return e.Err }

// NewFeedError creates a new FeedError.
func NewFeedError(source FeedSource, err error) *FeedError {
	return &FeedError{Source: source, Err: err}
}

// RefreshError aggregates feed errors from a single refresh pass.
// A pass keeps going when one feed fails, so all failures are preserved
// for the log rather than just the first.
type RefreshError struct {
	Errors []*FeedError
}

func (e *RefreshError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("refresh error: %v", e.Errors[0])
	}
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("refresh errors (%d): %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap returns the underlying errors slice for multi-error support.
// This enables errors.Is to check against any wrapped error.
func (e *RefreshError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, fe := range e.Errors {
		errs[i] = fe
	}
	return errs
}

// HasSource returns true if any error originated from the given feed.
func (e *RefreshError) HasSource(source FeedSource) bool {
	for _, fe := range e.Errors {
		if fe.Source == source {
			return true
		}
	}
	return false
}

// AsRefreshError attempts to extract a RefreshError from an error.
// Returns nil if the error is not a RefreshError.
func AsRefreshError(err error) *RefreshError {
	var re *RefreshError
	if errors.As(err, &re) {
		return re
	}
	return nil
}
