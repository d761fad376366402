package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter       ErrorCode = 100
	ErrCodeInvalidConfiguration   ErrorCode = 101
	ErrCodeInvalidDateRange       ErrorCode = 102
	ErrCodeUnsupportedGranularity ErrorCode = 103
	ErrCodeMissingParameter       ErrorCode = 104
	ErrCodeMissingCredential      ErrorCode = 105

	// Data/Resource errors (200-299)
	ErrCodeNoDataAvailable   ErrorCode = 200
	ErrCodeQueryFailed       ErrorCode = 201
	ErrCodePersistenceFailed ErrorCode = 202

	// Schema errors (300-399)
	ErrCodeSchemaMismatch ErrorCode = 300

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeInvalidProvider       ErrorCode = 704
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:                "unknown",
	ErrCodeInvalidParameter:       "invalid_parameter",
	ErrCodeInvalidConfiguration:   "invalid_configuration",
	ErrCodeInvalidDateRange:       "invalid_date_range",
	ErrCodeUnsupportedGranularity: "unsupported_granularity",
	ErrCodeMissingParameter:       "missing_parameter",
	ErrCodeMissingCredential:      "missing_credential",
	ErrCodeNoDataAvailable:        "no_data_available",
	ErrCodeQueryFailed:            "query_failed",
	ErrCodePersistenceFailed:      "persistence_failed",
	ErrCodeSchemaMismatch:         "schema_mismatch",
	ErrCodeMarketDataFetchFailed:  "fetch_failed",
	ErrCodeMarketDataWriteFailed:  "write_failed",
	ErrCodeMarketDataParseFailed:  "parse_failed",
	ErrCodeInvalidProvider:        "invalid_provider",
}

// String returns the snake_case name used in logs and run reports.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}

	return "unknown"
}
