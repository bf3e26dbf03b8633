package calculator

import (
	"context"
	"fmt"

	"github.com/iwvelando/calckit/internal/config"
	"github.com/iwvelando/calckit/pkg/constants"
	"github.com/iwvelando/calckit/pkg/format"
	"github.com/iwvelando/calckit/pkg/loans"
	"go.uber.org/zap"
)

// FieldKind tells output formatters how to render a Field.
type FieldKind int

const (
	Currency FieldKind = iota
	Percent
	Count
	Ohms
	Text
)

// Field is one labelled value of a job result.
type Field struct {
	Label string
	Value float64
	Kind  FieldKind
	// Text is used for Kind == Text.
	Text string
}

// String renders the field for display.
func (f Field) String() string {
	switch f.Kind {
	case Currency:
		return format.Currency(f.Value)
	case Percent:
		return format.Percent(f.Value, 3)
	case Count:
		return fmt.Sprintf("%.0f", f.Value)
	case Ohms:
		return format.Resistance(f.Value)
	default:
		return f.Text
	}
}

// JobResult is the flattened outcome of one batch job. Err is set when the
// job could not be calculated; Fields is then empty.
type JobResult struct {
	Name     string
	Kind     string
	Fields   []Field
	Schedule []loans.YearRow
	Err      error
}

// RunJobs runs every active job in order. A failing job is reported in its
// result and does not stop the others.
func RunJobs(ctx context.Context, logger *zap.Logger, svc *Service, jobs []config.Job) []JobResult {
	if logger == nil {
		logger = zap.NewNop()
	}

	var results []JobResult
	for _, job := range jobs {
		if !job.Active {
			continue
		}

		logger.Debug("running job",
			zap.String("op", "calculator.RunJobs"),
			zap.String("job", job.Name),
			zap.String("kind", job.Kind),
		)

		result, err := runJob(ctx, svc, job)
		result.Name = job.Name
		result.Kind = job.Kind
		if err != nil {
			logger.Error("job failed",
				zap.String("op", "calculator.RunJobs"),
				zap.String("job", job.Name),
				zap.String("kind", job.Kind),
				zap.Error(err),
			)
			result = JobResult{Name: job.Name, Kind: job.Kind, Err: err}
		}
		results = append(results, result)
	}
	return results
}

func runJob(ctx context.Context, svc *Service, job config.Job) (JobResult, error) {
	switch job.Kind {
	case constants.KindAmortization:
		var req AmortizationRequest
		if err := config.DecodeParams(job.Params, &req); err != nil {
			return JobResult{}, err
		}
		resp, err := svc.Amortization(ctx, req)
		if err != nil {
			return JobResult{}, err
		}
		fields := []Field{
			{Label: "Monthly payment", Value: resp.Summary.MonthlyPayment, Kind: Currency},
			{Label: "Payments", Value: float64(resp.Summary.NumPayments), Kind: Count},
			{Label: "Total paid", Value: resp.Summary.TotalPaid, Kind: Currency},
			{Label: "Total interest", Value: resp.Summary.TotalInterest, Kind: Currency},
		}
		if resp.Summary.PayoffDate != "" {
			fields = append(fields, Field{Label: "Payoff date", Kind: Text, Text: resp.Summary.PayoffDate})
		}
		return JobResult{Fields: fields, Schedule: resp.Years}, nil

	case constants.KindAPR:
		var req APRRequest
		if err := config.DecodeParams(job.Params, &req); err != nil {
			return JobResult{}, err
		}
		resp, err := svc.APR(ctx, req)
		if err != nil {
			return JobResult{}, err
		}
		return JobResult{Fields: []Field{
			{Label: "Nominal rate", Value: resp.NominalRatePercent, Kind: Percent},
			{Label: "APR", Value: resp.APRPercent, Kind: Percent},
			{Label: "Monthly payment", Value: resp.MonthlyPayment, Kind: Currency},
			{Label: "Net financed", Value: resp.NetFinanced, Kind: Currency},
			{Label: "Iterations", Value: float64(resp.Iterations), Kind: Count},
			{Label: "Converged", Kind: Text, Text: yesNo(resp.Converged)},
		}}, nil

	case constants.KindResistors:
		var req ResistorsRequest
		if err := config.DecodeParams(job.Params, &req); err != nil {
			return JobResult{}, err
		}
		resp, err := svc.Resistors(ctx, req)
		if err != nil {
			return JobResult{}, err
		}
		fields := []Field{
			{Label: "Topology", Kind: Text, Text: string(resp.Topology)},
			{Label: "Resistors", Value: float64(resp.Count), Kind: Count},
			{Label: "Equivalent", Value: resp.EquivalentOhms, Kind: Ohms},
		}
		if resp.Missing != nil {
			if resp.Missing.Valid {
				fields = append(fields, Field{Label: "Missing resistor", Value: resp.Missing.ValueOhms, Kind: Ohms})
			} else {
				fields = append(fields, Field{Label: "Missing resistor", Kind: Text, Text: resp.Missing.Message})
			}
		}
		if resp.Currents != nil {
			fields = append(fields,
				Field{Label: "Total current (A)", Kind: Text, Text: fmt.Sprintf("%.4f", resp.Currents.TotalCurrent)},
				Field{Label: "Total power (W)", Kind: Text, Text: fmt.Sprintf("%.4f", resp.Currents.TotalPower)},
			)
		}
		return JobResult{Fields: fields}, nil

	case constants.KindAffordability:
		var req AffordabilityRequest
		if err := config.DecodeParams(job.Params, &req); err != nil {
			return JobResult{}, err
		}
		res, err := svc.Affordability(ctx, req)
		if err != nil {
			return JobResult{}, err
		}
		if !res.Found {
			return JobResult{Fields: []Field{
				{Label: "Maximum home price", Kind: Text, Text: "none within range"},
				{Label: "Payment cap", Value: res.PaymentCap, Kind: Currency},
			}}, nil
		}
		return JobResult{Fields: []Field{
			{Label: "Maximum home price", Value: res.HomePrice, Kind: Currency},
			{Label: "Loan amount", Value: res.LoanAmount, Kind: Currency},
			{Label: "Principal and interest", Value: res.PrincipalInterest, Kind: Currency},
			{Label: "Property tax", Value: res.PropertyTax, Kind: Currency},
			{Label: "Insurance", Value: res.Insurance, Kind: Currency},
			{Label: "PMI", Value: res.PMI, Kind: Currency},
			{Label: "Total monthly payment", Value: res.TotalMonthlyPayment, Kind: Currency},
			{Label: "Payment cap", Value: res.PaymentCap, Kind: Currency},
		}}, nil

	case constants.KindCapitalGains:
		var req CapitalGainsRequest
		if err := config.DecodeParams(job.Params, &req); err != nil {
			return JobResult{}, err
		}
		res, err := svc.CapitalGains(ctx, req)
		if err != nil {
			return JobResult{}, err
		}
		if !res.Applicable {
			return JobResult{Fields: []Field{{Label: "Tax", Kind: Text, Text: res.Reason}}}, nil
		}
		return JobResult{Fields: []Field{
			{Label: "Realized gain", Value: res.RealizedGain, Kind: Currency},
			{Label: "Depreciation recapture tax", Value: res.RecaptureTax, Kind: Currency},
			{Label: "Federal capital gains tax", Value: res.FederalCapitalGains, Kind: Currency},
			{Label: "Net investment income tax", Value: res.NIIT, Kind: Currency},
			{Label: "State tax", Value: res.StateTax, Kind: Currency},
			{Label: "Total tax", Value: res.TotalTax, Kind: Currency},
			{Label: "Effective rate", Value: res.EffectiveRatePercent, Kind: Percent},
			{Label: "Deferred by 1031 exchange", Value: res.Deferred, Kind: Currency},
		}}, nil

	case constants.KindSettlement:
		var req SettlementRequest
		if err := config.DecodeParams(job.Params, &req); err != nil {
			return JobResult{}, err
		}
		est, err := svc.Settlement(ctx, req)
		if err != nil {
			return JobResult{}, err
		}
		return JobResult{Fields: []Field{
			{Label: "Lost earnings", Value: est.LostEarnings, Kind: Currency},
			{Label: "Economic loss", Value: est.EconomicLoss, Kind: Currency},
			{Label: "Non-economic loss", Value: est.NonEconomicLoss, Kind: Currency},
			{Label: "Estimate", Value: est.Total, Kind: Currency},
			{Label: "Low", Value: est.Low, Kind: Currency},
			{Label: "High", Value: est.High, Kind: Currency},
		}}, nil

	case constants.KindDrywall:
		var req DrywallRequest
		if err := config.DecodeParams(job.Params, &req); err != nil {
			return JobResult{}, err
		}
		est, err := svc.Drywall(ctx, req)
		if err != nil {
			return JobResult{}, err
		}
		return JobResult{Fields: []Field{
			{Label: "Net area (sq ft)", Value: est.NetAreaSqFt, Kind: Count},
			{Label: "Sheets", Value: float64(est.Sheets), Kind: Count},
			{Label: "Compound buckets", Value: float64(est.CompoundBuckets), Kind: Count},
			{Label: "Tape rolls", Value: float64(est.TapeRolls), Kind: Count},
			{Label: "Sheet cost", Value: est.SheetCost, Kind: Currency},
			{Label: "Finishing cost", Value: est.FinishingCost, Kind: Currency},
			{Label: "Total cost", Value: est.TotalCost, Kind: Currency},
		}}, nil

	default:
		return JobResult{}, fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
