package knob

import (
	"errors"
	"fmt"
)

// Configuration errors. These are the only hard failures the engine reports.
var (
	// ErrValueRange indicates MinValue >= MaxValue.
	ErrValueRange = errors.New("knob: min value must be below max value")

	// ErrAngleRange indicates MinAngle >= MaxAngle.
	ErrAngleRange = errors.New("knob: min angle must be below max angle")

	// ErrNegativeStep indicates a step below zero.
	ErrNegativeStep = errors.New("knob: step must be zero or positive")

	// ErrInitialOutOfRange indicates an initial value outside [MinValue, MaxValue].
	ErrInitialOutOfRange = errors.New("knob: initial value outside value range")

	// ErrNotFinite indicates a NaN or infinite configuration field.
	ErrNotFinite = errors.New("knob: configuration value is NaN or Inf")
)

// ConfigError wraps a configuration error with the offending field.
type ConfigError struct {
	Field string
	Value float64
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s (%s=%g)", e.Err.Error(), e.Field, e.Value)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
