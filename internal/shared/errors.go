package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrStateMismatch    = fmt.Errorf("oauth state mismatch")
	ErrTokenExpired     = fmt.Errorf("access token expired")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Session errors
	ErrSessionNotFound    = fmt.Errorf("session not found")
	ErrSessionExists      = fmt.Errorf("session already exists")
	ErrCredentialNotFound = fmt.Errorf("credential not found")
	ErrNoRecommendations  = fmt.Errorf("session has no recommendations")
	ErrWatchExhausted     = fmt.Errorf("gave up waiting for the second participant")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
