package upbit

import "errors"

var (
	// ErrDataUnavailable signals an empty or malformed market data response.
	// Callers skip the market for the current cycle.
	ErrDataUnavailable = errors.New("upbit: market data unavailable")

	// ErrMissingCredentials is returned when a private endpoint is called
	// without API keys configured.
	ErrMissingCredentials = errors.New("upbit: access/secret key not configured")
)
