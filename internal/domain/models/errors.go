package models

import "errors"

// Failure taxonomy surfaced to the presentation layer. Each component fails
// independently; none of these is fatal to the process.
var (
	// ErrInvalidRange means start > end or the range exceeds the provider's
	// maximum lookback. Raised before any network call.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrDataUnavailable means the provider has no records for the request.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrTransport covers network and auth failures against a provider.
	ErrTransport = errors.New("transport failure")

	// ErrInsufficientHistory means the series is shorter than the forecast
	// minimum-history threshold.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrModelFit means the fitting procedure could not run on the series.
	ErrModelFit = errors.New("model fit failure")
)
