package config

import "errors"

// Validation errors returned by Config.Validate.
var (
	ErrNoServerURL           = errors.New("no server url configured")
	ErrInvalidTimeout        = errors.New("invalid timeout: must be non-negative")
	ErrInvalidDuration       = errors.New("invalid notification duration: must be non-negative")
	ErrInvalidFilenameLength = errors.New("invalid max filename length: must be positive")
	ErrInvalidPreviewSize    = errors.New("invalid preview size: width and height must be positive")

	// ErrConfigNotFound is returned by LoadFile when the file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
