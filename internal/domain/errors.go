package domain

import "errors"

var (
	// ErrInvalidCreditAmount signals a non-positive credit amount.
	ErrInvalidCreditAmount = errors.New("credit amount must be positive")
)
