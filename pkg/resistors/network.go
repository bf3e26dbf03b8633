// Package resistors computes equivalent resistance for series and parallel
// networks and solves for a single missing resistor.
package resistors

import (
	"fmt"

	"github.com/iwvelando/calckit/pkg/format"
)

// Topology is the way resistors are connected.
type Topology string

const (
	Series   Topology = "series"
	Parallel Topology = "parallel"
)

// Resistor is one entry in a network. ID only identifies the entry to callers.
type Resistor struct {
	ID        int     `json:"id"`
	ValueOhms float64 `json:"valueOhms"`
}

// MissingResult is the outcome of SolveMissing. Callers must check Valid
// before using ValueOhms.
type MissingResult struct {
	ValueOhms float64 `json:"valueOhms"`
	Valid     bool    `json:"valid"`
	Message   string  `json:"message,omitempty"`
}

// ParseTopology maps a user-supplied name onto a Topology.
func ParseTopology(name string) (Topology, error) {
	switch Topology(name) {
	case Series, Parallel:
		return Topology(name), nil
	case "":
		return Parallel, nil
	default:
		return "", fmt.Errorf("unknown topology %q, expected %s or %s", name, Series, Parallel)
	}
}

// Values extracts the resistances from a list of resistors.
func Values(resistors []Resistor) []float64 {
	values := make([]float64, 0, len(resistors))
	for _, r := range resistors {
		values = append(values, r.ValueOhms)
	}
	return values
}

// ParallelEquivalent returns 1/Σ(1/Ri) over the positive values. It returns 0
// when no value is positive.
func ParallelEquivalent(values []float64) float64 {
	conductance := totalConductance(values)
	if conductance == 0 {
		return 0
	}
	return 1 / conductance
}

// SeriesEquivalent returns ΣRi over the positive values.
func SeriesEquivalent(values []float64) float64 {
	var total float64
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}
	return total
}

// Equivalent dispatches on topology.
func Equivalent(topology Topology, values []float64) float64 {
	if topology == Series {
		return SeriesEquivalent(values)
	}
	return ParallelEquivalent(values)
}

// SolveMissing finds the one resistor that, added to known, makes the network
// equal target. An unreachable target is reported through Valid rather than a
// negative or infinite value.
func SolveMissing(topology Topology, target float64, known []float64) MissingResult {
	if target <= 0 {
		return MissingResult{Message: "target resistance must be greater than zero"}
	}

	if topology == Series {
		rx := target - SeriesEquivalent(known)
		if rx <= 0 {
			return MissingResult{Message: fmt.Sprintf(
				"known resistors already total %s, which meets or exceeds the target %s",
				format.Resistance(SeriesEquivalent(known)), format.Resistance(target))}
		}
		return MissingResult{ValueOhms: rx, Valid: true}
	}

	rhs := 1/target - totalConductance(known)
	if rhs <= 0 {
		return MissingResult{Message: fmt.Sprintf(
			"known resistors already combine to %s, which is at or below the target %s",
			format.Resistance(ParallelEquivalent(known)), format.Resistance(target))}
	}
	return MissingResult{ValueOhms: 1 / rhs, Valid: true}
}

func totalConductance(values []float64) float64 {
	var g float64
	for _, v := range values {
		if v > 0 {
			g += 1 / v
		}
	}
	return g
}
