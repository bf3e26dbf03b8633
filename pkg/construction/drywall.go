// Package construction estimates drywall material for a rectangular room.
package construction

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// DoorAreaSqFt is the wall area removed for one standard door.
	DoorAreaSqFt = 21.0
	// WindowAreaSqFt is the wall area removed for one standard window.
	WindowAreaSqFt = 15.0
	// CompoundCoverageSqFt is the area finished by one bucket of joint compound.
	CompoundCoverageSqFt = 500.0
	// TapeCoverageSqFt is the area finished by one roll of joint tape.
	TapeCoverageSqFt = 1000.0
)

// sheetAreas maps a sheet size onto its face area in square feet.
var sheetAreas = map[string]float64{
	"4x8":  32,
	"4x10": 40,
	"4x12": 48,
}

// SheetArea returns the face area of a sheet size such as "4x8".
func SheetArea(size string) (float64, error) {
	area, ok := sheetAreas[strings.ToLower(strings.TrimSpace(size))]
	if !ok {
		return 0, fmt.Errorf("unsupported sheet size %q, expected 4x8, 4x10 or 4x12", size)
	}
	return area, nil
}

// DrywallInputs describe the room and the prices to apply.
type DrywallInputs struct {
	LengthFt       float64
	WidthFt        float64
	HeightFt       float64
	Doors          int
	Windows        int
	IncludeCeiling bool
	SheetSize      string
	WastePercent   float64
	SheetPrice     float64
	CompoundPrice  float64
	TapePrice      float64
}

// DrywallEstimate is the material takeoff.
type DrywallEstimate struct {
	WallAreaSqFt    float64 `json:"wallAreaSqFt"`
	CeilingAreaSqFt float64 `json:"ceilingAreaSqFt"`
	OpeningsSqFt    float64 `json:"openingsSqFt"`
	NetAreaSqFt     float64 `json:"netAreaSqFt"`
	Sheets          int     `json:"sheets"`
	CompoundBuckets int     `json:"compoundBuckets"`
	TapeRolls       int     `json:"tapeRolls"`
	SheetCost       float64 `json:"sheetCost"`
	FinishingCost   float64 `json:"finishingCost"`
	TotalCost       float64 `json:"totalCost"`
}

// EstimateDrywall computes sheet count and material cost. Negative dimensions,
// counts and waste are treated as zero.
func EstimateDrywall(in DrywallInputs) (DrywallEstimate, error) {
	sheetArea, err := SheetArea(in.SheetSize)
	if err != nil {
		return DrywallEstimate{}, err
	}

	length := math.Max(in.LengthFt, 0)
	width := math.Max(in.WidthFt, 0)
	height := math.Max(in.HeightFt, 0)

	var est DrywallEstimate
	est.WallAreaSqFt = 2 * (length + width) * height
	if in.IncludeCeiling {
		est.CeilingAreaSqFt = length * width
	}
	est.OpeningsSqFt = float64(max(in.Doors, 0))*DoorAreaSqFt + float64(max(in.Windows, 0))*WindowAreaSqFt
	est.NetAreaSqFt = math.Max(est.WallAreaSqFt+est.CeilingAreaSqFt-est.OpeningsSqFt, 0)

	withWaste := est.NetAreaSqFt * (1 + math.Max(in.WastePercent, 0)/100)
	est.Sheets = ceilCount(withWaste / sheetArea)
	est.CompoundBuckets = ceilCount(est.NetAreaSqFt / CompoundCoverageSqFt)
	est.TapeRolls = ceilCount(est.NetAreaSqFt / TapeCoverageSqFt)

	sheetCost := decimal.NewFromFloat(in.SheetPrice).Mul(decimal.NewFromInt(int64(est.Sheets)))
	finishing := decimal.NewFromFloat(in.CompoundPrice).Mul(decimal.NewFromInt(int64(est.CompoundBuckets))).
		Add(decimal.NewFromFloat(in.TapePrice).Mul(decimal.NewFromInt(int64(est.TapeRolls))))

	est.SheetCost = sheetCost.Round(2).InexactFloat64()
	est.FinishingCost = finishing.Round(2).InexactFloat64()
	est.TotalCost = sheetCost.Add(finishing).Round(2).InexactFloat64()
	return est, nil
}

// ceilCount rounds a quantity up to a whole unit, ignoring float noise just
// above an integer.
func ceilCount(q float64) int {
	if q <= 0 {
		return 0
	}
	return int(math.Ceil(q - 1e-9))
}
