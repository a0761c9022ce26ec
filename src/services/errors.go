package services

import "errors"

var (
	// ErrValidation rejects a confirmation or edit: non-positive net amount,
	// missing rate, missing proof file or malformed date. No state changes.
	ErrValidation = errors.New("liquidation validation failed")

	// ErrRateUnavailable means the rate provider was unreachable or its
	// response contained no parseable number. Callers fall back to rate 0
	// and keep confirmation blocked until a later fetch succeeds.
	ErrRateUnavailable = errors.New("exchange rate unavailable")
)
