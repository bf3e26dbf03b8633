// Package taxes estimates the tax due on the sale of an investment property and
// the amount a like-kind (1031) exchange would defer.
package taxes

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FilingStatus selects the bracket and NIIT threshold tables.
type FilingStatus string

const (
	Single                  FilingStatus = "single"
	MarriedFilingJointly    FilingStatus = "married_joint"
	MarriedFilingSeparately FilingStatus = "married_separate"
	HeadOfHousehold         FilingStatus = "head_of_household"
)

var (
	// DepreciationRecaptureRate is the fixed rate on unrecaptured section 1250 gain.
	DepreciationRecaptureRate = decimal.NewFromFloat(0.25)
	// NIITRate is the net investment income tax rate.
	NIITRate = decimal.NewFromFloat(0.038)

	hundred = decimal.NewFromInt(100)
)

// niitThresholds are the modified AGI thresholds per filing status.
var niitThresholds = map[FilingStatus]decimal.Decimal{
	Single:                  decimal.NewFromInt(200000),
	MarriedFilingJointly:    decimal.NewFromInt(250000),
	MarriedFilingSeparately: decimal.NewFromInt(125000),
	HeadOfHousehold:         decimal.NewFromInt(200000),
}

type bracket struct {
	upTo decimal.Decimal // exclusive upper bound of taxable income; zero means unbounded
	rate decimal.Decimal
}

// longTermBrackets are the 0/15/20 long-term capital gains brackets.
var longTermBrackets = map[FilingStatus][]bracket{
	Single: {
		{decimal.NewFromInt(47025), decimal.Zero},
		{decimal.NewFromInt(518900), decimal.NewFromFloat(0.15)},
		{decimal.Zero, decimal.NewFromFloat(0.20)},
	},
	MarriedFilingJointly: {
		{decimal.NewFromInt(94050), decimal.Zero},
		{decimal.NewFromInt(583750), decimal.NewFromFloat(0.15)},
		{decimal.Zero, decimal.NewFromFloat(0.20)},
	},
	MarriedFilingSeparately: {
		{decimal.NewFromInt(47025), decimal.Zero},
		{decimal.NewFromInt(291850), decimal.NewFromFloat(0.15)},
		{decimal.Zero, decimal.NewFromFloat(0.20)},
	},
	HeadOfHousehold: {
		{decimal.NewFromInt(63000), decimal.Zero},
		{decimal.NewFromInt(551350), decimal.NewFromFloat(0.15)},
		{decimal.Zero, decimal.NewFromFloat(0.20)},
	},
}

// ParseFilingStatus maps a user-supplied name onto a FilingStatus. An empty
// name is Single.
func ParseFilingStatus(name string) (FilingStatus, error) {
	status := FilingStatus(strings.ToLower(strings.TrimSpace(name)))
	if status == "" {
		return Single, nil
	}
	if _, ok := niitThresholds[status]; !ok {
		return "", fmt.Errorf("unknown filing status %q", name)
	}
	return status, nil
}

// SaleInputs describe the property sale. Amounts are in dollars, rates in percent.
type SaleInputs struct {
	SalePrice               float64
	SellingCosts            float64
	PurchasePrice           float64
	Improvements            float64
	AccumulatedDepreciation float64
	// OtherIncome is taxable income before the sale; it positions the gain in
	// the brackets and against the NIIT threshold.
	OtherIncome      float64
	FilingStatus     FilingStatus
	StateRatePercent float64
	// FederalRatePercent, when positive, replaces the bracket calculation with
	// a flat long-term rate.
	FederalRatePercent float64
}

// Result is the tax estimate. When Applicable is false the sale produced no
// gain and every amount is zero.
type Result struct {
	Applicable           bool    `json:"applicable"`
	Reason               string  `json:"reason,omitempty"`
	AmountRealized       float64 `json:"amountRealized"`
	AdjustedBasis        float64 `json:"adjustedBasis"`
	RealizedGain         float64 `json:"realizedGain"`
	RecaptureAmount      float64 `json:"recaptureAmount"`
	RecaptureTax         float64 `json:"recaptureTax"`
	CapitalGain          float64 `json:"capitalGain"`
	FederalCapitalGains  float64 `json:"federalCapitalGainsTax"`
	NIIT                 float64 `json:"niit"`
	StateTax             float64 `json:"stateTax"`
	TotalTax             float64 `json:"totalTax"`
	EffectiveRatePercent float64 `json:"effectiveRatePercent"`
	// Deferred is the tax a qualifying 1031 exchange postpones.
	Deferred float64 `json:"deferred"`
}

// EstimateSale computes the tax due on the sale.
func EstimateSale(in SaleInputs) Result {
	status := in.FilingStatus
	if status == "" {
		status = Single
	}

	realized := dec(in.SalePrice).Sub(dec(in.SellingCosts))
	basis := dec(in.PurchasePrice).Add(dec(in.Improvements)).Sub(dec(in.AccumulatedDepreciation))
	gain := realized.Sub(basis)
	if !gain.IsPositive() {
		return Result{Reason: "sale produces no taxable gain"}
	}

	recapture := decimal.Min(nonNegative(dec(in.AccumulatedDepreciation)), gain)
	recaptureTax := recapture.Mul(DepreciationRecaptureRate)
	capitalGain := gain.Sub(recapture)

	var federal decimal.Decimal
	if in.FederalRatePercent > 0 {
		federal = capitalGain.Mul(dec(in.FederalRatePercent)).Div(hundred)
	} else {
		federal = stackedBracketTax(nonNegative(dec(in.OtherIncome)), capitalGain, longTermBrackets[status])
	}

	niit := netInvestmentIncomeTax(nonNegative(dec(in.OtherIncome)), gain, niitThresholds[status])
	state := gain.Mul(nonNegative(dec(in.StateRatePercent))).Div(hundred)
	total := recaptureTax.Add(federal).Add(niit).Add(state)

	return Result{
		Applicable:           true,
		AmountRealized:       money(realized),
		AdjustedBasis:        money(basis),
		RealizedGain:         money(gain),
		RecaptureAmount:      money(recapture),
		RecaptureTax:         money(recaptureTax),
		CapitalGain:          money(capitalGain),
		FederalCapitalGains:  money(federal),
		NIIT:                 money(niit),
		StateTax:             money(state),
		TotalTax:             money(total),
		EffectiveRatePercent: total.Div(gain).Mul(hundred).Round(2).InexactFloat64(),
		Deferred:             money(total),
	}
}

// stackedBracketTax taxes gain as if it sits on top of ordinary income.
func stackedBracketTax(income, gain decimal.Decimal, brackets []bracket) decimal.Decimal {
	tax := decimal.Zero
	lower := decimal.Zero
	top := income.Add(gain)
	for _, b := range brackets {
		upper := b.upTo
		if upper.IsZero() || upper.GreaterThan(top) {
			upper = top
		}
		start := decimal.Max(lower, income)
		if upper.GreaterThan(start) {
			tax = tax.Add(upper.Sub(start).Mul(b.rate))
		}
		if b.upTo.IsZero() {
			break
		}
		lower = b.upTo
	}
	return tax
}

// netInvestmentIncomeTax applies 3.8% to the lesser of the gain and the amount
// by which income plus gain exceeds the threshold.
func netInvestmentIncomeTax(income, gain, threshold decimal.Decimal) decimal.Decimal {
	excess := nonNegative(income.Add(gain).Sub(threshold))
	return decimal.Min(gain, excess).Mul(NIITRate)
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
