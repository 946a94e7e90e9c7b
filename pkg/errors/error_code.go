package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInvalidInstrument    ErrorCode = 103
	ErrCodeInvalidQuote         ErrorCode = 104

	// Indicator errors (200-299)
	ErrCodeInvalidPeriod   ErrorCode = 200
	ErrCodeIndicatorClosed ErrorCode = 201

	// Strategy errors (300-399)
	ErrCodeStrategyNotFound ErrorCode = 300
	ErrCodeStrategyCallback ErrorCode = 301

	// Venue errors (400-499)
	ErrCodeOrderRejected  ErrorCode = 400
	ErrCodeNoQuote        ErrorCode = 401
	ErrCodeNoPosition     ErrorCode = 402
	ErrCodeNotSubscribed  ErrorCode = 403
	ErrCodePositionExists ErrorCode = 404

	// Catalog errors (500-599)
	ErrCodeCatalogOpenFailed  ErrorCode = 500
	ErrCodeQueryFailed        ErrorCode = 501
	ErrCodeNoQuoteData        ErrorCode = 502
	ErrCodeWriterNotReady     ErrorCode = 503
	ErrCodeInstrumentNotFound ErrorCode = 504

	// Market data errors (600-699)
	ErrCodeProviderNotFound ErrorCode = 600
	ErrCodeDownloadFailed   ErrorCode = 601
	ErrCodeParseFailed      ErrorCode = 602
)
