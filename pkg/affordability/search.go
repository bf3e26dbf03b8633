// Package affordability finds the most expensive home a buyer can carry under
// the 28/36 debt-to-income rule.
//
// Monthly housing cost is principal and interest, property tax, homeowner's
// insurance, and PMI. PMI is modeled as a flat 0.75% per year of the loan
// amount whenever loan-to-value exceeds 80%. That is a simplification, not an
// actuarial premium.
package affordability

import (
	"github.com/iwvelando/calckit/pkg/constants"
	"github.com/iwvelando/calckit/pkg/loans"
	"github.com/iwvelando/calckit/pkg/mathutil"
	"github.com/iwvelando/calckit/pkg/solver"
)

// Inputs are the buyer's finances and the rate assumptions.
type Inputs struct {
	AnnualIncome      float64 `json:"annualIncome"`
	MonthlyDebts      float64 `json:"monthlyDebts"`
	DownPayment       float64 `json:"downPayment"`
	AnnualRatePercent float64 `json:"annualRatePercent"`
	TermYears         int     `json:"termYears"`
	// PropertyTaxRatePercent is the annual effective tax rate on the price.
	PropertyTaxRatePercent float64 `json:"propertyTaxRatePercent"`
	// InsuranceRatePercent is the annual insurance estimate on the price.
	InsuranceRatePercent float64 `json:"insuranceRatePercent"`
}

// Breakdown is the monthly cost of a given home price.
type Breakdown struct {
	HomePrice           float64 `json:"homePrice"`
	LoanAmount          float64 `json:"loanAmount"`
	LoanToValue         float64 `json:"loanToValue"`
	PrincipalInterest   float64 `json:"principalInterest"`
	PropertyTax         float64 `json:"propertyTax"`
	Insurance           float64 `json:"insurance"`
	PMI                 float64 `json:"pmi"`
	TotalMonthlyPayment float64 `json:"totalMonthlyPayment"`
}

// Result is the outcome of MaxHomePrice. Found is false when no candidate
// price fits under the cap; the breakdown is then zero.
type Result struct {
	Breakdown
	Found              bool    `json:"found"`
	GrossMonthlyIncome float64 `json:"grossMonthlyIncome"`
	FrontEndCap        float64 `json:"frontEndCap"`
	BackEndCap         float64 `json:"backEndCap"`
	PaymentCap         float64 `json:"paymentCap"`
	CandidatesChecked  int     `json:"candidatesChecked"`
}

// MonthlyCost prices a home under the payment model.
func MonthlyCost(price float64, in Inputs) Breakdown {
	b := Breakdown{HomePrice: price}
	b.LoanAmount = mathutil.NonNegative(price - in.DownPayment)
	if price > 0 {
		b.LoanToValue = b.LoanAmount / price
	}

	b.PrincipalInterest = loans.MonthlyPayment(b.LoanAmount, in.AnnualRatePercent, in.TermYears)
	b.PropertyTax = mathutil.ApplyPercentage(price, in.PropertyTaxRatePercent) / constants.MonthsPerYear
	b.Insurance = mathutil.ApplyPercentage(price, in.InsuranceRatePercent) / constants.MonthsPerYear
	if b.LoanToValue > constants.PMILoanToValueCutoff {
		b.PMI = b.LoanAmount * constants.PMIAnnualRate / constants.MonthsPerYear
	}

	b.TotalMonthlyPayment = b.PrincipalInterest + b.PropertyTax + b.Insurance + b.PMI
	return b
}

// PaymentCaps returns the front-end (28% of gross monthly income) and back-end
// (36% of gross monthly income less other debts) limits.
func PaymentCaps(in Inputs) (frontEnd, backEnd float64) {
	gmi := in.AnnualIncome / constants.MonthsPerYear
	frontEnd = gmi * constants.FrontEndDTI
	backEnd = gmi*constants.BackEndDTI - in.MonthlyDebts
	return frontEnd, backEnd
}

// MaxHomePrice scans candidate prices from $50,000 to $2,000,000 in $10,000
// steps and returns the last one whose monthly cost fits under the cap. The
// scan stops at the first failure, which relies on cost rising with price.
func MaxHomePrice(in Inputs) Result {
	res := Result{GrossMonthlyIncome: in.AnnualIncome / constants.MonthsPerYear}
	res.FrontEndCap, res.BackEndCap = PaymentCaps(in)
	res.PaymentCap = mathutil.NonNegative(mathutil.Min(res.FrontEndCap, res.BackEndCap))
	if res.PaymentCap <= 0 {
		return res
	}

	best, steps, found := solver.LinearScan(
		constants.AffordabilityMinPrice,
		constants.AffordabilityMaxPrice,
		constants.AffordabilityStep,
		func(price float64) bool {
			return MonthlyCost(price, in).TotalMonthlyPayment <= res.PaymentCap
		},
	)
	res.CandidatesChecked = steps
	if !found {
		return res
	}

	res.Found = true
	res.Breakdown = MonthlyCost(best, in)
	return res
}
