package ports

import "errors"

// Standard application-level errors.
// Adapters wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Price Provider Errors
	ErrProviderUnavailable = errors.New("price provider request failed")
	ErrProviderBadResponse = errors.New("price provider returned an unparseable response")
	ErrNoPrices            = errors.New("price provider returned no usable prices")
	ErrNoSymbolsResolved   = errors.New("no symbols could be mapped to provider identifiers")

	// Notification Transport Errors
	ErrSendFailed = errors.New("failed to send message")
	ErrEditFailed = errors.New("failed to edit message")

	// Database Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")
)
