package loans

import (
	"math"

	"github.com/iwvelando/calckit/pkg/constants"
	"github.com/iwvelando/calckit/pkg/solver"
)

// APROptions tunes the APR search. Zero fields fall back to defaults.
type APROptions struct {
	MaxIterations int
	// Tolerance is the convergence bound on |PV - net financed|, in currency.
	Tolerance float64
	// InitialGuess is an annual rate in decimal form, e.g. 0.065.
	InitialGuess float64
}

// APRResult is a best-effort estimate. When Converged is false APRPercent is
// the last iterate at the iteration ceiling. Clamped means the search did not
// converge and the iterate ended on the 0.1% or 50% bound; it should not be
// trusted.
type APRResult struct {
	APRPercent float64 `json:"aprPercent"`
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`
	Clamped    bool    `json:"clamped"`
}

// APR solves for the annual rate that equates the present value of the payment
// stream with the loan amount net of fees.
func APR(loanAmount, monthlyPayment float64, termYears int, totalFees float64) APRResult {
	return SolveAPR(loanAmount, monthlyPayment, termYears, totalFees, APROptions{})
}

// APRForLoan computes the payment for terms and solves for the APR implied by
// terms.Fees.
func APRForLoan(terms LoanTerms) APRResult {
	payment := MonthlyPayment(terms.Principal, terms.AnnualRatePercent, terms.TermYears)
	guess := terms.AnnualRatePercent / constants.PercentageMultiplier
	return SolveAPR(terms.Principal, payment, terms.TermYears, terms.Fees, APROptions{InitialGuess: guess})
}

// SolveAPR is APR with explicit solver options.
func SolveAPR(loanAmount, monthlyPayment float64, termYears int, totalFees float64, opts APROptions) APRResult {
	netLoan := loanAmount - totalFees
	if loanAmount <= 0 || monthlyPayment <= 0 || termYears <= 0 || netLoan <= 0 || CheckTerm(termYears) != nil {
		return APRResult{}
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = constants.APRMaxIterations
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = constants.CurrencyTolerance
	}
	if opts.InitialGuess <= 0 {
		opts.InitialGuess = constants.APRInitialGuess
	}

	n := termYears * constants.MonthsPerYear
	f := func(apr float64) float64 {
		return presentValue(monthlyPayment, apr/constants.MonthsPerYear, n) - netLoan
	}
	df := func(apr float64) float64 {
		return presentValueDerivative(monthlyPayment, apr/constants.MonthsPerYear, n)
	}

	res := solver.Newton(f, df, opts.InitialGuess, solver.Options{
		MaxIterations: opts.MaxIterations,
		Tolerance:     opts.Tolerance,
		Lower:         constants.APRMinRate,
		Upper:         constants.APRMaxRate,
	})

	return APRResult{
		APRPercent: res.Root * constants.PercentageMultiplier,
		Iterations: res.Iterations,
		Converged:  res.Converged,
		Clamped:    res.Clamped,
	}
}

// presentValue discounts n equal payments at monthly rate i.
func presentValue(payment, i float64, n int) float64 {
	if i == 0 {
		return payment * float64(n)
	}
	return payment * (1 - math.Pow(1+i, -float64(n))) / i
}

// presentValueDerivative is dPV/d(annual rate) for the stream above.
func presentValueDerivative(payment, i float64, n int) float64 {
	var d float64
	for k := 1; k <= n; k++ {
		d -= float64(k) * payment / math.Pow(1+i, float64(k+1))
	}
	return d / constants.MonthsPerYear
}
