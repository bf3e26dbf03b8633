// Package settlement produces rough wrongful-death and injury settlement ranges
// from an economic loss base and a relationship multiplier.
package settlement

import (
	"github.com/shopspring/decimal"
)

var (
	// PersonalConsumptionRate is the share of lost earnings the decedent would
	// have spent on themselves.
	PersonalConsumptionRate = decimal.NewFromFloat(0.30)
	// LowRangeFactor and HighRangeFactor bracket the point estimate.
	LowRangeFactor  = decimal.NewFromFloat(0.75)
	HighRangeFactor = decimal.NewFromFloat(1.25)
)

// Inputs are the loss figures. Negative amounts are treated as zero.
type Inputs struct {
	AnnualIncome       float64
	WorkYearsRemaining float64
	MedicalExpenses    float64
	FuneralExpenses    float64
	OtherEconomicLoss  float64
	// Multiplier is the relationship multiplier applied to the economic loss.
	Multiplier float64
}

// Estimate is the settlement estimate in dollars.
type Estimate struct {
	LostEarnings    float64 `json:"lostEarnings"`
	EconomicLoss    float64 `json:"economicLoss"`
	NonEconomicLoss float64 `json:"nonEconomicLoss"`
	Total           float64 `json:"total"`
	Low             float64 `json:"low"`
	High            float64 `json:"high"`
	Multiplier      float64 `json:"multiplier"`
}

// Calculate applies the loss formula:
//
//	lost earnings = income × years × (1 − personal consumption)
//	economic      = lost earnings + medical + funeral + other
//	non-economic  = economic × multiplier
func Calculate(in Inputs) Estimate {
	years := clampDec(in.WorkYearsRemaining)
	multiplier := clampDec(in.Multiplier)

	lost := clampDec(in.AnnualIncome).Mul(years).Mul(decimal.NewFromInt(1).Sub(PersonalConsumptionRate))
	economic := lost.
		Add(clampDec(in.MedicalExpenses)).
		Add(clampDec(in.FuneralExpenses)).
		Add(clampDec(in.OtherEconomicLoss))
	nonEconomic := economic.Mul(multiplier)
	total := economic.Add(nonEconomic)

	return Estimate{
		LostEarnings:    money(lost),
		EconomicLoss:    money(economic),
		NonEconomicLoss: money(nonEconomic),
		Total:           money(total),
		Low:             money(total.Mul(LowRangeFactor)),
		High:            money(total.Mul(HighRangeFactor)),
		Multiplier:      multiplier.InexactFloat64(),
	}
}

func clampDec(v float64) decimal.Decimal {
	if v < 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
