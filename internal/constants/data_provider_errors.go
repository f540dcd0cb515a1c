package constants

// Remote store error codes
// These constants define specific failure scenarios when talking to Airtable

const (
	ErrCodeInvalidAPIKey  = "INVALID_API_KEY"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeRateLimited    = "RATE_LIMITED"
	ErrCodeNetworkError   = "NETWORK_ERROR"
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeCircuitOpen    = "CIRCUIT_OPEN"
	ErrCodeDecodeError    = "DECODE_ERROR"
	ErrCodeNotConfigured  = "NOT_CONFIGURED"
	ErrCodeUpstreamError  = "UPSTREAM_ERROR"
)

// Human-readable messages corresponding to error codes
var DataProviderErrorMessages = map[string]string{
	ErrCodeInvalidAPIKey:  "The Airtable API key is invalid or has been revoked",
	ErrCodeNotFound:       "The requested record was not found in Airtable",
	ErrCodeRateLimited:    "Rate limit exceeded. Please try again later",
	ErrCodeNetworkError:   "Unable to connect to Airtable",
	ErrCodeInvalidRequest: "Airtable rejected the request",
	ErrCodeCircuitOpen:    "Airtable is temporarily unavailable after repeated failures",
	ErrCodeDecodeError:    "Unable to decode the Airtable response",
	ErrCodeNotConfigured:  "Airtable credentials are not configured",
	ErrCodeUpstreamError:  "Airtable returned an unexpected error",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := DataProviderErrorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}
