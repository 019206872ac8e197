package service

import "errors"

// error codes shared by the inventory, circulation and reservation managers

type ErrCode string

const (
	// ErrOutOfStock: capacity exhausted. User-facing; retryable by picking
	// another library or title.
	ErrOutOfStock ErrCode = "OUT_OF_STOCK"
	// ErrDuplicateLoan: the borrower already holds this title unreturned.
	ErrDuplicateLoan ErrCode = "DUPLICATE_LOAN"
	// ErrAlreadyHeld: a Pending hold already exists for the same tuple.
	ErrAlreadyHeld ErrCode = "ALREADY_HELD"
	// ErrHoldNotPending: confirm was attempted on a hold that already reached
	// a terminal state (expired or previously confirmed by someone else).
	ErrHoldNotPending ErrCode = "HOLD_NOT_PENDING"
	// ErrInvariantViolation: a counter mutation would leave the ledger out of
	// bounds. Signals a prior bug (e.g. double release); logged loudly and
	// surfaced as a generic failure.
	ErrInvariantViolation ErrCode = "INVARIANT_VIOLATION"
	// ErrNotFound: referenced title/loan/hold does not exist.
	ErrNotFound ErrCode = "NOT_FOUND"
	// ErrStoreUnavailable: transient persistence failure; safe to retry.
	ErrStoreUnavailable ErrCode = "STORE_UNAVAILABLE"
)

type codedError struct {
	code ErrCode
	msg  string
}

func (e codedError) Error() string {
	if e.msg != "" {
		return string(e.code) + ": " + e.msg
	}
	return string(e.code)
}

func (e codedError) Code() ErrCode { return e.code }

func makeErr(c ErrCode, msg string) error { return codedError{code: c, msg: msg} }

// Code extracts the error code, or "" for an uncoded error.
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}
