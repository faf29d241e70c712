package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrConfigExists       = fmt.Errorf("configuration already exists")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// API and service errors
	ErrAPIRequest  = fmt.Errorf("API request failed")
	ErrNotFound    = fmt.Errorf("not found")
	ErrInvalidRef  = fmt.Errorf("invalid catalog reference")
	ErrRateLimited = fmt.Errorf("rate limited")

	// Acquisition errors
	ErrNoMatch        = fmt.Errorf("no matching candidate")
	ErrFetchFailed    = fmt.Errorf("audio fetch failed")
	ErrTaggingFailed  = fmt.Errorf("tag write failed")
	ErrLyricsFailed   = fmt.Errorf("lyrics fetch failed")
	ErrScoringFault   = fmt.Errorf("scoring fault")
	ErrCoverFailed    = fmt.Errorf("cover fetch failed")
	ErrSidecarFailed  = fmt.Errorf("sidecar write failed")
	ErrLibraryLocked  = fmt.Errorf("library is locked by another process")
	ErrToolNotFound   = fmt.Errorf("external tool not found")
	ErrUnsupportedExt = fmt.Errorf("unsupported audio file type")

	// Batch errors
	ErrInvalidCollection = fmt.Errorf("invalid collection")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
