package isolation

import (
	"errors"
	"fmt"
)

// Errors for the vocal isolation pipeline
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrExternalToolFailure = errors.New("external tool failed")
	ErrDurationProbeFailed = errors.New("duration probe failed")
	ErrRunInProgress       = errors.New("another run is using this output directory")
)

// Pipeline stage names used in StageError
const (
	StageLock    = "lock"
	StagePrepare = "prepare"
	StageExtract = "extract"
	StageProbe   = "probe"
	StagePlan    = "plan"
	StageSplit   = "split"
	StageFilter  = "filter"
	StageGraph   = "graph"
	StageMerge   = "merge"
	StageMux     = "mux"
	StageCleanup = "cleanup"
)

// StageError identifies which pipeline stage and which tool failed
type StageError struct {
	Stage string
	Tool  string
	Err   error
}

func (e *StageError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("%s stage (%s): %v", e.Stage, e.Tool, e.Err)
	}
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ToolFailure wraps a process error so it matches ErrExternalToolFailure
func ToolFailure(stage, tool string, err error) error {
	return &StageError{
		Stage: stage,
		Tool:  tool,
		Err:   fmt.Errorf("%w: %w", ErrExternalToolFailure, err),
	}
}
