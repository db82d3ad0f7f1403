package host

import (
	"errors"
	"fmt"
)

// Host receives knob pushes. Implementations must not block the caller for
// long and must not panic; failures stay inside the host.
type Host interface {
	SetComponentValue(p Payload)
	SetFrameHeight()
}

// Contract selects which fields a push carries.
type Contract string

const (
	// ContractAngleValue pushes {angle, value}.
	ContractAngleValue Contract = "angle_value"
	// ContractValue pushes {value}.
	ContractValue Contract = "value"
	// ContractAngle pushes {angle}.
	ContractAngle Contract = "angle"
)

var ErrUnknownContract = errors.New("host: unknown payload contract")

// ParseContract maps a config string to a Contract. Empty selects
// ContractAngleValue.
func ParseContract(s string) (Contract, error) {
	switch Contract(s) {
	case "", ContractAngleValue:
		return ContractAngleValue, nil
	case ContractValue, ContractAngle:
		return Contract(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownContract, s)
}

// Payload is what the host sees. Absent fields are nil.
type Payload struct {
	Angle *float64 `json:"angle,omitempty"`
	Value *float64 `json:"value,omitempty"`
}

func (p Payload) String() string {
	switch {
	case p.Angle != nil && p.Value != nil:
		return fmt.Sprintf("angle=%.2f value=%g", *p.Angle, *p.Value)
	case p.Angle != nil:
		return fmt.Sprintf("angle=%.2f", *p.Angle)
	case p.Value != nil:
		return fmt.Sprintf("value=%g", *p.Value)
	}
	return "{}"
}

// Build returns the payload for angle and value under contract c.
func (c Contract) Build(angle, value float64) Payload {
	switch c {
	case ContractValue:
		return Payload{Value: &value}
	case ContractAngle:
		return Payload{Angle: &angle}
	default:
		return Payload{Angle: &angle, Value: &value}
	}
}
