// Package apperr carries the error taxonomy shared by the trading and
// portfolio services. Handlers map the kind to an HTTP status; the retry
// wrapper only ever retries Transient errors.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// Validation covers malformed or out-of-range request fields,
	// rejected before anything is persisted.
	Validation Kind = iota
	// BusinessRule covers well-formed requests the rules refuse:
	// disabled account, insufficient balance, bad state transitions.
	BusinessRule
	NotFound
	// Transient covers datastore or price-feed unavailability. Safe to
	// retry a bounded number of times.
	Transient
)

// Code identifies the specific business rule that failed.
type Code string

const (
	CodeAccountDisabled     Code = "ACCOUNT_DISABLED"
	CodeAccountLocked       Code = "ACCOUNT_LOCKED"
	CodeKycNotApproved      Code = "KYC_NOT_APPROVED"
	CodeOutsideTradingHours Code = "OUTSIDE_TRADING_HOURS"
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
	CodeInsufficientShares  Code = "INSUFFICIENT_SHARES"
	CodeNoPosition          Code = "NO_POSITION"
	CodeInvalidState        Code = "INVALID_STATE"
	CodeUnauthorized        Code = "UNAUTHORIZED"
)

type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, code Code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: Validation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: NotFound, Message: fmt.Sprintf(format, args...)}
}

func Transientf(err error, format string, args ...any) *Error {
	return &Error{Kind: Transient, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or Transient for unclassified errors so
// that unknown infrastructure failures surface as 5xx rather than 400s.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Transient
}

// CodeOf returns the business-rule code of err, if any.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsRetryable reports whether the trade-placement boundary may retry err.
// Business-rule and validation failures are never retried: retrying would
// not change the outcome.
func IsRetryable(err error) bool {
	return KindOf(err) == Transient
}
