package knob

import "math"

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// Quantize rounds v to the nearest multiple of step. A step of zero disables
// quantization.
func Quantize(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Round(v/step) * step
}

// ValueToAngle maps a domain value linearly onto the angular travel and clamps
// the result to [minAngle, maxAngle].
func ValueToAngle(value, minValue, maxValue, minAngle, maxAngle float64) float64 {
	ratio := (value - minValue) / (maxValue - minValue)
	return Clamp(minAngle+ratio*(maxAngle-minAngle), minAngle, maxAngle)
}

// AngleToValue is the inverse of ValueToAngle. The raw value is quantized to
// step before the final clamp, so a rounded value never lands outside
// [minValue, maxValue].
func AngleToValue(angle, minValue, maxValue, minAngle, maxAngle, step float64) float64 {
	ratio := (angle - minAngle) / (maxAngle - minAngle)
	raw := minValue + ratio*(maxValue-minValue)
	return Clamp(Quantize(raw, step), minValue, maxValue)
}
