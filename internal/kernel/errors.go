package kernel

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when a builder argument is out of range.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrStructure is returned by Verify when weights break the bilinear layout.
var ErrStructure = errors.New("weights are not a bilinear kernel")

// ArgumentError names the offending argument of a failed build.
type ArgumentError struct {
	Name   string // Argument name (e.g., "h", "channels")
	Value  any    // Value that was rejected
	Reason string // Constraint that was violated
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s = %v (%s)", ErrInvalidArgument, e.Name, e.Value, e.Reason)
}

// Unwrap makes errors.Is(err, ErrInvalidArgument) hold.
func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}
