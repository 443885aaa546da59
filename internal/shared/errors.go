package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors: invalid credentials, expired or missing token
	ErrAuthentication   = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// Client-side form validation errors, raised before any network call
	ErrValidation = fmt.Errorf("validation failed")

	// Network or backend failures on an API call
	ErrTransport = fmt.Errorf("API request failed")

	// Requested content is absent or inaccessible
	ErrNotFound = fmt.Errorf("not found")

	// Storage errors
	ErrStorage  = fmt.Errorf("storage failure")
	ErrDisposed = fmt.Errorf("store disposed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
