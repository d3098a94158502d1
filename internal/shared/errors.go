package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig  = fmt.Errorf("configuration not found")
	ErrInvalidConfig  = fmt.Errorf("invalid configuration")
	ErrInvalidQuality = fmt.Errorf("unknown quality label")

	// Host surface errors
	ErrCapabilityUnavailable = fmt.Errorf("capability unavailable")
	ErrHostCall              = fmt.Errorf("host call failed")
	ErrMalformedResult       = fmt.Errorf("malformed host result")
	ErrBrowserUnavailable    = fmt.Errorf("browser unavailable")

	// Reconciliation outcomes
	ErrPlayerNotFound     = fmt.Errorf("player not found")
	ErrNoQualities        = fmt.Errorf("no available qualities")
	ErrApplyFailed        = fmt.Errorf("failed to apply quality")
	ErrAttemptsExhausted  = fmt.Errorf("attempt budget exhausted")
	ErrEngineNotRunning   = fmt.Errorf("engine not running")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Persistence errors
	ErrNotFound = fmt.Errorf("record not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
