package errors

import "net/http"

// ErrorCode is the stable, machine readable half of an error response.
type ErrorCode string

const (
	AuthInvalidCredentials     ErrorCode = "AUTH_001"
	AuthMissingToken           ErrorCode = "AUTH_002"
	AuthExpiredToken           ErrorCode = "AUTH_003"
	AuthInvalidTokenFormat     ErrorCode = "AUTH_004"
	AuthInsufficientPermission ErrorCode = "AUTH_005"
	AuthAccountLocked          ErrorCode = "AUTH_006"

	ValidationGeneral       ErrorCode = "VALIDATION_001"
	ValidationRequiredField ErrorCode = "VALIDATION_002"
	ValidationInvalidFormat ErrorCode = "VALIDATION_003"
	ValidationOutOfRange    ErrorCode = "VALIDATION_004"
	ValidationInvalidEmail  ErrorCode = "VALIDATION_005"

	UpstreamUnavailable ErrorCode = "UPSTREAM_001"
	UpstreamMalformed   ErrorCode = "UPSTREAM_002"
	UpstreamUnknown     ErrorCode = "UPSTREAM_003"

	UserNotFound      ErrorCode = "USER_001"
	UserAlreadyExists ErrorCode = "USER_002"

	SystemInternalError      ErrorCode = "SYSTEM_001"
	SystemDatabaseError      ErrorCode = "SYSTEM_002"
	SystemServiceUnavailable ErrorCode = "SYSTEM_003"
	SystemConfigurationError ErrorCode = "SYSTEM_004"
	SystemUnexpectedError    ErrorCode = "SYSTEM_005"
	SystemRateLimitExceeded  ErrorCode = "SYSTEM_006"
	SystemRouteNotFound      ErrorCode = "SYSTEM_007"
)

type codeInfo struct {
	status  int
	message string
}

// registry holds the HTTP status and default message of every code.
var registry = map[ErrorCode]codeInfo{
	AuthInvalidCredentials:     {http.StatusUnauthorized, "Invalid email or password"},
	AuthMissingToken:           {http.StatusUnauthorized, "Authorization token is required"},
	AuthExpiredToken:           {http.StatusUnauthorized, "Authorization token has expired"},
	AuthInvalidTokenFormat:     {http.StatusUnauthorized, "Invalid authorization token format"},
	AuthInsufficientPermission: {http.StatusForbidden, "Insufficient permissions to access this resource"},
	AuthAccountLocked:          {http.StatusForbidden, "Account is locked or disabled"},

	ValidationGeneral:       {http.StatusBadRequest, "Validation failed"},
	ValidationRequiredField: {http.StatusBadRequest, "Required field is missing"},
	ValidationInvalidFormat: {http.StatusBadRequest, "Invalid field format"},
	ValidationOutOfRange:    {http.StatusBadRequest, "Field value is out of allowed range"},
	ValidationInvalidEmail:  {http.StatusBadRequest, "Invalid email address format"},

	// a dashboard cannot be built when its data source fails
	UpstreamUnavailable: {http.StatusBadGateway, "The data source is unavailable"},
	UpstreamMalformed:   {http.StatusBadGateway, "The data source returned malformed data"},
	UpstreamUnknown:     {http.StatusNotFound, "Unknown data source"},

	UserNotFound:      {http.StatusNotFound, "User not found"},
	UserAlreadyExists: {http.StatusConflict, "A user with this email already exists"},

	SystemInternalError:      {http.StatusInternalServerError, "An unexpected error occurred. Please contact support with trace ID"},
	SystemDatabaseError:      {http.StatusInternalServerError, "Database connection error"},
	SystemServiceUnavailable: {http.StatusServiceUnavailable, "Service temporarily unavailable"},
	SystemConfigurationError: {http.StatusInternalServerError, "System configuration error"},
	SystemUnexpectedError:    {http.StatusInternalServerError, "An unexpected error occurred"},
	SystemRateLimitExceeded:  {http.StatusTooManyRequests, "Rate limit exceeded. Please try again later"},
	SystemRouteNotFound:      {http.StatusNotFound, "The requested resource was not found"},
}

const fallbackMessage = "An error occurred"

// GetErrorMessage returns the default message of code.
func GetErrorMessage(code ErrorCode) string {
	if info, ok := registry[code]; ok {
		return info.message
	}
	return fallbackMessage
}

// GetHTTPStatus maps a code to its HTTP status. Unregistered codes are 500.
func GetHTTPStatus(code ErrorCode) int {
	if info, ok := registry[code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}
