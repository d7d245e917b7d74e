package domain

import "errors"

var (
	// ErrNoProvider is a configuration error: no backend is registered for
	// the requested method. Never retried.
	ErrNoProvider = errors.New("no payment provider for method")

	// ErrTransactionNotFound means no registered backend recognized the
	// transaction identifier.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrObjectNotFound means the identifier resolved to neither a payment
	// intent nor a checkout session at the provider.
	ErrObjectNotFound = errors.New("payment object not found")

	// ErrCancelFailed means every cancellation resolution path failed.
	ErrCancelFailed = errors.New("unable to cancel payment")

	ErrInvalidRequest = errors.New("invalid payment request")
)
