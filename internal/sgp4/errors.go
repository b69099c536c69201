package sgp4

import "fmt"

// PropagationError marks errors produced while propagating an orbit, as
// opposed to errors rejecting the element set up front.
type PropagationError interface {
	error
	propagationError()
}

// DeepSpaceError reports an element set whose orbital period places it in
// the deep-space regime, which the near-earth model does not cover.
type DeepSpaceError struct {
	PeriodMinutes float64
}

func (e *DeepSpaceError) Error() string {
	return fmt.Sprintf("sgp4: orbital period %.1f min is in the deep-space regime (>= %.0f min)",
		e.PeriodMinutes, deepSpacePeriodMin)
}

// DegenerateOrbitError reports a propagated orbit whose derived elements
// left the physically meaningful range, typically a decayed or heavily
// perturbed object propagated too far from its epoch.
type DegenerateOrbitError struct {
	Tsince   float64 // minutes since element epoch
	Quantity string
	Value    float64
}

func (e *DegenerateOrbitError) Error() string {
	return fmt.Sprintf("sgp4: degenerate orbit at tsince=%.1f min: %s = %g", e.Tsince, e.Quantity, e.Value)
}

func (e *DegenerateOrbitError) propagationError() {}

// DecayError reports a propagated position inside the Earth: the object
// has re-entered and the prediction is meaningless.
type DecayError struct {
	Tsince   float64 // minutes since element epoch
	RadiusER float64 // geocentric radius in earth radii
}

func (e *DecayError) Error() string {
	return fmt.Sprintf("sgp4: satellite decayed at tsince=%.1f min (radius %.4f earth radii)", e.Tsince, e.RadiusER)
}

func (e *DecayError) propagationError() {}
