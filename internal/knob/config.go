package knob

import "math"

// Angular travel of the supported knob families, in degrees.
const (
	PotentiometerMinAngle = -145.0
	PotentiometerMaxAngle = 145.0

	// Dial270 spans 0..270 degrees shifted by -135 so the midpoint points up.
	Dial270MinAngle = -135.0
	Dial270MaxAngle = 135.0
)

// Config is the immutable construction input of a knob.
type Config struct {
	MinValue     float64
	MaxValue     float64
	Step         float64
	MinAngle     float64
	MaxAngle     float64
	InitialValue float64
}

// DefaultConfig returns a 0..100 potentiometer starting at 50.
func DefaultConfig() Config {
	return Config{
		MinValue:     0,
		MaxValue:     100,
		Step:         1,
		MinAngle:     PotentiometerMinAngle,
		MaxAngle:     PotentiometerMaxAngle,
		InitialValue: 50,
	}
}

// Validate reports the first configuration error, or nil.
func (c Config) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"min_value", c.MinValue},
		{"max_value", c.MaxValue},
		{"step", c.Step},
		{"min_angle", c.MinAngle},
		{"max_angle", c.MaxAngle},
		{"initial_value", c.InitialValue},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return &ConfigError{Field: f.name, Value: f.v, Err: ErrNotFinite}
		}
	}
	if c.MinValue >= c.MaxValue {
		return &ConfigError{Field: "min_value", Value: c.MinValue, Err: ErrValueRange}
	}
	if c.MinAngle >= c.MaxAngle {
		return &ConfigError{Field: "min_angle", Value: c.MinAngle, Err: ErrAngleRange}
	}
	if c.Step < 0 {
		return &ConfigError{Field: "step", Value: c.Step, Err: ErrNegativeStep}
	}
	if c.InitialValue < c.MinValue || c.InitialValue > c.MaxValue {
		return &ConfigError{Field: "initial_value", Value: c.InitialValue, Err: ErrInitialOutOfRange}
	}
	return nil
}

// ValueToAngle maps v through this configuration.
func (c Config) ValueToAngle(v float64) float64 {
	return ValueToAngle(v, c.MinValue, c.MaxValue, c.MinAngle, c.MaxAngle)
}

// AngleToValue maps a through this configuration, quantizing to Step.
func (c Config) AngleToValue(a float64) float64 {
	return AngleToValue(a, c.MinValue, c.MaxValue, c.MinAngle, c.MaxAngle, c.Step)
}

// AngularStep is the angle covered by one quantization step, or zero when
// quantization is disabled.
func (c Config) AngularStep() float64 {
	if c.Step <= 0 {
		return 0
	}
	return c.Step / (c.MaxValue - c.MinValue) * (c.MaxAngle - c.MinAngle)
}
