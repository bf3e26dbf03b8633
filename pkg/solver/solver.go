// Package solver provides the bounded numeric searches shared by the
// calculators: a clamped Newton-Raphson root finder and a monotone linear scan.
package solver

import (
	"math"

	"github.com/iwvelando/calckit/pkg/mathutil"
)

// Options controls a Newton run.
type Options struct {
	MaxIterations int
	// Tolerance is compared against |f(x)|, in the units of f.
	Tolerance float64
	Lower     float64
	Upper     float64
}

// Result is the outcome of a Newton run. Root is always the last iterate,
// whether or not it converged.
type Result struct {
	Root       float64
	Iterations int
	Converged  bool
	// Clamped reports a run that did not converge and whose last iterate sits
	// on Lower or Upper, which usually means the true root lies outside the
	// bounds. A root found exactly on a bound is Converged, not Clamped.
	Clamped bool
}

// Newton searches for x with f(x) == 0. After every step the iterate is forced
// into [Lower, Upper]. A zero derivative ends the search without convergence.
func Newton(f, df func(float64) float64, x0 float64, opts Options) Result {
	x := mathutil.Clamp(x0, opts.Lower, opts.Upper)
	res := Result{Root: x}

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		res.Iterations = iter
		fx := f(x)
		if math.Abs(fx) < opts.Tolerance {
			res.Converged = true
			break
		}
		d := df(x)
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			break
		}
		x = mathutil.Clamp(x-fx/d, opts.Lower, opts.Upper)
		res.Root = x
	}

	res.Root = x
	res.Clamped = !res.Converged && (x == opts.Lower || x == opts.Upper)
	return res
}

// LinearScan walks candidates lo, lo+step, ... hi and returns the last one for
// which feasible holds, stopping at the first infeasible candidate. Feasibility
// must be monotone (true then false) for the answer to be the maximum.
func LinearScan(lo, hi, step float64, feasible func(float64) bool) (best float64, steps int, found bool) {
	if step <= 0 || hi < lo {
		return 0, 0, false
	}
	count := int(math.Floor((hi-lo)/step+1e-9)) + 1
	for i := 0; i < count; i++ {
		candidate := lo + float64(i)*step
		steps++
		if !feasible(candidate) {
			break
		}
		best = candidate
		found = true
	}
	return best, steps, found
}
