package settings

import "errors"

// Errors raised while configuring a pipeline run
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrFrozen               = errors.New("settings already validated")
)
