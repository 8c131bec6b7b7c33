package credits

import "errors"

var (
	// ErrInsufficientCredits is the expected business condition when a spend
	// would take the balance below zero. Handlers map it to a 402-style
	// response, never to a server error.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrInvalidAmount marks a non-positive amount. Amounts are validated by
	// the callers that build requests, so hitting this is a programming error.
	ErrInvalidAmount = errors.New("amount must be positive")
)
