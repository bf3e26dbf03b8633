// Package loans provides the fixed-rate amortization engine and the APR solver.
package loans

import (
	"fmt"
	"math"

	"github.com/iwvelando/calckit/pkg/constants"
	"github.com/iwvelando/calckit/pkg/datetime"
	"github.com/iwvelando/calckit/pkg/mathutil"
)

// LoanTerms describes a fixed-rate loan for a single calculation.
type LoanTerms struct {
	Principal         float64 `json:"principal"`
	AnnualRatePercent float64 `json:"annualRatePercent"`
	TermYears         int     `json:"termYears"`
	// Fees are upfront financing costs; they only affect the APR.
	Fees float64 `json:"fees"`
	// StartDate is the optional month (YYYY-MM) of the first payment.
	StartDate string `json:"startDate"`
}

// AmortizationRow holds the values for a given payment period.
type AmortizationRow struct {
	Period        int     `json:"period"`
	Date          string  `json:"date"`
	Payment       float64 `json:"payment"`
	InterestPaid  float64 `json:"interestPaid"`
	PrincipalPaid float64 `json:"principalPaid"`
	Balance       float64 `json:"balance"`
}

// YearRow aggregates twelve consecutive periods.
type YearRow struct {
	Year          int     `json:"year"`
	InterestPaid  float64 `json:"interestPaid"`
	PrincipalPaid float64 `json:"principalPaid"`
	EndBalance    float64 `json:"endBalance"`
}

// LoanSummary condenses a full schedule.
type LoanSummary struct {
	MonthlyPayment float64 `json:"monthlyPayment"`
	NumPayments    int     `json:"numPayments"`
	TotalPaid      float64 `json:"totalPaid"`
	TotalInterest  float64 `json:"totalInterest"`
	PayoffDate     string  `json:"payoffDate"`
}

// CheckTerm rejects terms longer than constants.MaxTermYears. Non-positive
// terms are allowed and produce empty results.
func CheckTerm(termYears int) error {
	if termYears > constants.MaxTermYears {
		return fmt.Errorf("term of %d years exceeds the maximum of %d", termYears, constants.MaxTermYears)
	}
	return nil
}

// NumPayments returns the number of monthly payments for the term.
func (t LoanTerms) NumPayments() int {
	if t.TermYears <= 0 {
		return 0
	}
	return t.TermYears * constants.MonthsPerYear
}

// MonthlyPayment calculates the monthly payment for a loan using the standard
// amortization formula. Non-positive principal or term yields 0.
func MonthlyPayment(principal, annualRatePercent float64, termYears int) float64 {
	if principal <= 0 || termYears <= 0 {
		return 0
	}

	n := float64(termYears * constants.MonthsPerYear)
	r := mathutil.MonthlyRate(annualRatePercent)
	if r == 0 {
		return principal / n
	}

	power := math.Pow(1+r, n)
	return principal * r * power / (power - 1)
}

// InterestPayment calculates one month of interest on the remaining balance.
func InterestPayment(balance, annualRatePercent float64) float64 {
	return balance * mathutil.MonthlyRate(annualRatePercent)
}

// Schedule produces the month-by-month breakdown. The balance is clamped at
// zero; drift in the last period is left as computed.
func Schedule(terms LoanTerms) ([]AmortizationRow, error) {
	if err := CheckTerm(terms.TermYears); err != nil {
		return nil, err
	}
	n := terms.NumPayments()
	payment := MonthlyPayment(terms.Principal, terms.AnnualRatePercent, terms.TermYears)
	if payment == 0 {
		return nil, nil
	}

	rows := make([]AmortizationRow, 0, n)
	balance := terms.Principal
	for period := 1; period <= n; period++ {
		interest := InterestPayment(balance, terms.AnnualRatePercent)
		principal := payment - interest
		balance = mathutil.NonNegative(balance - principal)

		row := AmortizationRow{
			Period:        period,
			Payment:       payment,
			InterestPaid:  interest,
			PrincipalPaid: principal,
			Balance:       balance,
		}
		if terms.StartDate != "" {
			date, err := datetime.PeriodDate(terms.StartDate, period)
			if err != nil {
				return nil, err
			}
			row.Date = date
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// YearlySummary sums consecutive blocks of twelve periods. A trailing partial
// year is kept.
func YearlySummary(rows []AmortizationRow) []YearRow {
	var years []YearRow
	for i, row := range rows {
		if i%constants.MonthsPerYear == 0 {
			years = append(years, YearRow{Year: i/constants.MonthsPerYear + 1})
		}
		current := &years[len(years)-1]
		current.InterestPaid += row.InterestPaid
		current.PrincipalPaid += row.PrincipalPaid
		current.EndBalance = row.Balance
	}
	return years
}

// Summarize reports totals for the loan without keeping the schedule.
func Summarize(terms LoanTerms) (LoanSummary, error) {
	if err := CheckTerm(terms.TermYears); err != nil {
		return LoanSummary{}, err
	}
	payment := MonthlyPayment(terms.Principal, terms.AnnualRatePercent, terms.TermYears)
	if payment == 0 {
		return LoanSummary{}, nil
	}

	n := terms.NumPayments()
	summary := LoanSummary{
		MonthlyPayment: payment,
		NumPayments:    n,
		TotalPaid:      payment * float64(n),
	}
	summary.TotalInterest = summary.TotalPaid - terms.Principal

	if terms.StartDate != "" {
		payoff, err := datetime.PeriodDate(terms.StartDate, n)
		if err != nil {
			return LoanSummary{}, err
		}
		summary.PayoffDate = payoff
	}
	return summary, nil
}
