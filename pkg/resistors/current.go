package resistors

// Branch is the electrical state of one resistor under an applied voltage.
type Branch struct {
	ValueOhms   float64 `json:"valueOhms"`
	CurrentAmps float64 `json:"currentAmps"`
	VoltageDrop float64 `json:"voltageDrop"`
	PowerWatts  float64 `json:"powerWatts"`
}

// CurrentDistribution describes how a source voltage spreads over a network.
// TotalCurrent always equals Voltage / Equivalent for a non-empty network.
type CurrentDistribution struct {
	Voltage      float64  `json:"voltage"`
	Equivalent   float64  `json:"equivalentOhms"`
	TotalCurrent float64  `json:"totalCurrentAmps"`
	TotalPower   float64  `json:"totalPowerWatts"`
	Branches     []Branch `json:"branches"`
}

// Currents applies voltage across the network. Parallel branches each see the
// full voltage and carry V/Ri; series resistors share V/Req and drop I·Ri.
// Non-positive resistors are skipped.
func Currents(topology Topology, voltage float64, values []float64) CurrentDistribution {
	dist := CurrentDistribution{
		Voltage:    voltage,
		Equivalent: Equivalent(topology, values),
	}
	if dist.Equivalent == 0 {
		return dist
	}

	shared := voltage / dist.Equivalent
	for _, r := range values {
		if r <= 0 {
			continue
		}
		var b Branch
		b.ValueOhms = r
		if topology == Series {
			b.CurrentAmps = shared
			b.VoltageDrop = shared * r
		} else {
			b.CurrentAmps = voltage / r
			b.VoltageDrop = voltage
		}
		b.PowerWatts = b.CurrentAmps * b.VoltageDrop
		dist.Branches = append(dist.Branches, b)
		dist.TotalPower += b.PowerWatts
	}

	if topology == Series {
		dist.TotalCurrent = shared
	} else {
		for _, b := range dist.Branches {
			dist.TotalCurrent += b.CurrentAmps
		}
	}
	return dist
}
