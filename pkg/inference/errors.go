package inference

import (
	"errors"
	"fmt"
)

// InvalidInputError reports a feature vector the loaded model cannot accept.
type InvalidInputError struct {
	Expected int
	Actual   int
	Reason   string
}

func (e *InvalidInputError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("Expected %d landmarks, got %d", e.Expected, e.Actual)
}

// ModelUnavailableError is returned by every prediction of a pipeline whose
// classifier or label encoder failed to load. It does not recover without a restart.
type ModelUnavailableError struct {
	Cause error
}

func (e *ModelUnavailableError) Error() string {
	return "Model not loaded"
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.Cause
}

// InferenceError wraps any failure between tensor construction and label lookup.
type InferenceError struct {
	Op  string
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("Emotion detection failed: %s: %v", e.Op, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

func IsInvalidInput(err error) bool {
	var target *InvalidInputError
	return errors.As(err, &target)
}

func IsModelUnavailable(err error) bool {
	var target *ModelUnavailableError
	return errors.As(err, &target)
}

func IsInferenceFailure(err error) bool {
	var target *InferenceError
	return errors.As(err, &target)
}
