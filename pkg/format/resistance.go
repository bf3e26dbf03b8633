package format

import (
	"math"
	"strconv"
)

const ohmSymbol = "Ω"

// Resistance renders ohms in engineering notation, e.g. "470 Ω", "4.7 kΩ",
// "1.5 MΩ". Values keep at most three significant decimals.
func Resistance(ohms float64) string {
	if math.IsInf(ohms, 0) || math.IsNaN(ohms) {
		return "∞ " + ohmSymbol
	}

	abs := math.Abs(ohms)
	switch {
	case abs >= 1e6:
		return trimFloat(ohms/1e6) + " M" + ohmSymbol
	case abs >= 1e3:
		return trimFloat(ohms/1e3) + " k" + ohmSymbol
	default:
		return trimFloat(ohms) + " " + ohmSymbol
	}
}

func trimFloat(v float64) string {
	rounded := math.Round(v*1000) / 1000
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}
