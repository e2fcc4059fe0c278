package ledger

import "errors"

// User-facing trade errors. Handlers map these to client-error responses;
// anything else coming out of the engine is an internal failure.
var (
	ErrUnknownSymbol      = errors.New("unknown symbol")
	ErrInvalidShareCount  = errors.New("share count must be a positive integer")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrNoSuchHolding      = errors.New("no holding for symbol")
	ErrQuoteUnavailable   = errors.New("quote unavailable")
	ErrAccountNotFound    = errors.New("account not found")
	ErrDuplicateUsername  = errors.New("username already exists")
)
