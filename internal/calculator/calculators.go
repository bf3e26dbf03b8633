package calculator

import (
	"context"
	"fmt"
	"strings"

	"github.com/iwvelando/calckit/pkg/affordability"
	"github.com/iwvelando/calckit/pkg/constants"
	"github.com/iwvelando/calckit/pkg/construction"
	"github.com/iwvelando/calckit/pkg/datetime"
	"github.com/iwvelando/calckit/pkg/format"
	"github.com/iwvelando/calckit/pkg/input"
	"github.com/iwvelando/calckit/pkg/loans"
	"github.com/iwvelando/calckit/pkg/resistors"
	"github.com/iwvelando/calckit/pkg/settlement"
	"github.com/iwvelando/calckit/pkg/tables"
	"github.com/iwvelando/calckit/pkg/taxes"
	"go.uber.org/zap"
)

// AmortizationRequest describes a fixed-rate loan.
type AmortizationRequest struct {
	Principal  input.Float `json:"principal"`
	AnnualRate input.Float `json:"annualRate"`
	TermYears  input.Int   `json:"termYears"`
	StartDate  string      `json:"startDate,omitempty"`
	// IncludeSchedule adds every monthly row to the response.
	IncludeSchedule bool `json:"includeSchedule,omitempty"`
}

// AmortizationResponse is the loan summary with yearly totals.
type AmortizationResponse struct {
	Summary  loans.LoanSummary       `json:"summary"`
	Years    []loans.YearRow         `json:"years"`
	Schedule []loans.AmortizationRow `json:"schedule,omitempty"`
}

// Amortization builds the payment schedule for a loan.
func (s *Service) Amortization(ctx context.Context, req AmortizationRequest) (AmortizationResponse, error) {
	terms := loans.LoanTerms{
		Principal:         req.Principal.Float64(),
		AnnualRatePercent: req.AnnualRate.Float64(),
		TermYears:         req.TermYears.Int(),
		StartDate:         strings.TrimSpace(req.StartDate),
	}
	if err := loans.CheckTerm(terms.TermYears); err != nil {
		return AmortizationResponse{}, err
	}
	if terms.StartDate != "" {
		if _, err := datetime.OffsetDate(terms.StartDate, constants.DateTimeLayout, 0); err != nil {
			return AmortizationResponse{}, fmt.Errorf("invalid startDate %q, expected YYYY-MM", req.StartDate)
		}
	}

	return cached(ctx, s, constants.KindAmortization, req, func() (AmortizationResponse, error) {
		rows, err := loans.Schedule(terms)
		if err != nil {
			return AmortizationResponse{}, err
		}
		summary, err := loans.Summarize(terms)
		if err != nil {
			return AmortizationResponse{}, err
		}

		resp := AmortizationResponse{
			Summary: summary,
			Years:   loans.YearlySummary(rows),
		}
		if req.IncludeSchedule {
			resp.Schedule = rows
		}

		s.logger.Debug("amortized loan",
			zap.String("op", "calculator.Amortization"),
			zap.Float64("principal", terms.Principal),
			zap.Float64("monthlyPayment", summary.MonthlyPayment),
			zap.Int("payments", summary.NumPayments),
		)
		return resp, nil
	})
}

// APRRequest describes a loan and its upfront fees. When MonthlyPayment is
// zero it is derived from the rate and term.
type APRRequest struct {
	Principal      input.Float `json:"principal"`
	AnnualRate     input.Float `json:"annualRate"`
	TermYears      input.Int   `json:"termYears"`
	Fees           input.Float `json:"fees"`
	MonthlyPayment input.Float `json:"monthlyPayment,omitempty"`
}

// APRResponse carries the solver outcome alongside the nominal inputs.
type APRResponse struct {
	loans.APRResult
	NominalRatePercent float64 `json:"nominalRatePercent"`
	MonthlyPayment     float64 `json:"monthlyPayment"`
	NetFinanced        float64 `json:"netFinanced"`
}

// APR solves for the effective annual rate including fees.
func (s *Service) APR(ctx context.Context, req APRRequest) (APRResponse, error) {
	if err := loans.CheckTerm(req.TermYears.Int()); err != nil {
		return APRResponse{}, err
	}
	return cached(ctx, s, constants.KindAPR, req, func() (APRResponse, error) {
		principal := req.Principal.Float64()
		rate := req.AnnualRate.Float64()
		term := req.TermYears.Int()
		fees := req.Fees.Float64()

		payment := req.MonthlyPayment.Float64()
		if payment <= 0 {
			payment = loans.MonthlyPayment(principal, rate, term)
		}

		opts := loans.APROptions{}
		if rate > 0 {
			opts.InitialGuess = rate / constants.PercentageMultiplier
		}
		result := loans.SolveAPR(principal, payment, term, fees, opts)

		if !result.Converged || result.Clamped {
			s.logger.Warn("APR search did not settle",
				zap.String("op", "calculator.APR"),
				zap.Int("iterations", result.Iterations),
				zap.Bool("converged", result.Converged),
				zap.Bool("clamped", result.Clamped),
				zap.Float64("aprPercent", result.APRPercent),
			)
		}

		return APRResponse{
			APRResult:          result,
			NominalRatePercent: rate,
			MonthlyPayment:     payment,
			NetFinanced:        principal - fees,
		}, nil
	})
}

// ResistorInput is one resistor in a request.
type ResistorInput struct {
	ID    input.Int   `json:"id"`
	Value input.Float `json:"value"`
}

// ResistorsRequest describes a network. Target asks for the missing resistor;
// Voltage asks for the current distribution. Both are optional.
type ResistorsRequest struct {
	Topology  string          `json:"topology"`
	Resistors []ResistorInput `json:"resistors"`
	Target    input.Float     `json:"target,omitempty"`
	Voltage   input.Float     `json:"voltage,omitempty"`
}

// ResistorsResponse reports the equivalent resistance and the optional
// missing-resistor and current results.
type ResistorsResponse struct {
	Topology        resistors.Topology             `json:"topology"`
	Count           int                            `json:"count"`
	EquivalentOhms  float64                        `json:"equivalentOhms"`
	EquivalentLabel string                         `json:"equivalentLabel"`
	Missing         *resistors.MissingResult       `json:"missing,omitempty"`
	Currents        *resistors.CurrentDistribution `json:"currents,omitempty"`
}

// Resistors evaluates a resistor network.
func (s *Service) Resistors(ctx context.Context, req ResistorsRequest) (ResistorsResponse, error) {
	topology, err := resistors.ParseTopology(strings.ToLower(strings.TrimSpace(req.Topology)))
	if err != nil {
		return ResistorsResponse{}, err
	}

	return cached(ctx, s, constants.KindResistors, req, func() (ResistorsResponse, error) {
		network := make([]resistors.Resistor, 0, len(req.Resistors))
		for _, r := range req.Resistors {
			network = append(network, resistors.Resistor{ID: r.ID.Int(), ValueOhms: r.Value.Float64()})
		}
		values := resistors.Values(network)

		resp := ResistorsResponse{
			Topology:       topology,
			Count:          len(values),
			EquivalentOhms: resistors.Equivalent(topology, values),
		}
		resp.EquivalentLabel = format.Resistance(resp.EquivalentOhms)

		if target := req.Target.Float64(); target != 0 {
			missing := resistors.SolveMissing(topology, target, values)
			resp.Missing = &missing
		}
		if voltage := req.Voltage.Float64(); voltage != 0 {
			dist := resistors.Currents(topology, voltage, values)
			resp.Currents = &dist
		}
		return resp, nil
	})
}

// AffordabilityRequest describes the buyer. PropertyTaxRate wins over County;
// a zero InsuranceRate uses the default estimate.
type AffordabilityRequest struct {
	AnnualIncome    input.Float `json:"annualIncome"`
	MonthlyDebts    input.Float `json:"monthlyDebts"`
	DownPayment     input.Float `json:"downPayment"`
	AnnualRate      input.Float `json:"annualRate"`
	TermYears       input.Int   `json:"termYears"`
	PropertyTaxRate input.Float `json:"propertyTaxRate,omitempty"`
	County          string      `json:"county,omitempty"`
	InsuranceRate   input.Float `json:"insuranceRate,omitempty"`
}

// Affordability finds the most expensive home the buyer qualifies for.
func (s *Service) Affordability(ctx context.Context, req AffordabilityRequest) (affordability.Result, error) {
	if err := loans.CheckTerm(req.TermYears.Int()); err != nil {
		return affordability.Result{}, err
	}
	taxRate := req.PropertyTaxRate.Float64()
	if taxRate <= 0 && strings.TrimSpace(req.County) != "" {
		rate, err := s.tables.CountyTaxRate(req.County)
		if err != nil {
			return affordability.Result{}, err
		}
		taxRate = rate
	}
	insurance := req.InsuranceRate.Float64()
	if insurance <= 0 {
		insurance = constants.DefaultInsuranceRatePercent
	}

	in := affordability.Inputs{
		AnnualIncome:           req.AnnualIncome.Float64(),
		MonthlyDebts:           req.MonthlyDebts.Float64(),
		DownPayment:            req.DownPayment.Float64(),
		AnnualRatePercent:      req.AnnualRate.Float64(),
		TermYears:              req.TermYears.Int(),
		PropertyTaxRatePercent: taxRate,
		InsuranceRatePercent:   insurance,
	}

	return cached(ctx, s, constants.KindAffordability, in, func() (affordability.Result, error) {
		res := affordability.MaxHomePrice(in)
		s.logger.Debug("searched affordable price",
			zap.String("op", "calculator.Affordability"),
			zap.Bool("found", res.Found),
			zap.Float64("homePrice", res.HomePrice),
			zap.Int("candidates", res.CandidatesChecked),
		)
		return res, nil
	})
}

// CapitalGainsRequest describes a property sale. StateRate wins over State.
type CapitalGainsRequest struct {
	SalePrice     input.Float `json:"salePrice"`
	SellingCosts  input.Float `json:"sellingCosts"`
	PurchasePrice input.Float `json:"purchasePrice"`
	Improvements  input.Float `json:"improvements"`
	Depreciation  input.Float `json:"depreciation"`
	OtherIncome   input.Float `json:"otherIncome"`
	FilingStatus  string      `json:"filingStatus,omitempty"`
	State         string      `json:"state,omitempty"`
	StateRate     input.Float `json:"stateRate,omitempty"`
	FederalRate   input.Float `json:"federalRate,omitempty"`
}

// CapitalGains estimates the tax on a sale and what a 1031 exchange defers.
func (s *Service) CapitalGains(ctx context.Context, req CapitalGainsRequest) (taxes.Result, error) {
	status, err := taxes.ParseFilingStatus(req.FilingStatus)
	if err != nil {
		return taxes.Result{}, err
	}
	stateRate := req.StateRate.Float64()
	if stateRate <= 0 && strings.TrimSpace(req.State) != "" {
		rate, err := s.tables.StateRate(req.State)
		if err != nil {
			return taxes.Result{}, err
		}
		stateRate = rate
	}

	in := taxes.SaleInputs{
		SalePrice:               req.SalePrice.Float64(),
		SellingCosts:            req.SellingCosts.Float64(),
		PurchasePrice:           req.PurchasePrice.Float64(),
		Improvements:            req.Improvements.Float64(),
		AccumulatedDepreciation: req.Depreciation.Float64(),
		OtherIncome:             req.OtherIncome.Float64(),
		FilingStatus:            status,
		StateRatePercent:        stateRate,
		FederalRatePercent:      req.FederalRate.Float64(),
	}

	return cached(ctx, s, constants.KindCapitalGains, in, func() (taxes.Result, error) {
		return taxes.EstimateSale(in), nil
	})
}

// SettlementRequest describes the loss. Multiplier wins over Relationship.
type SettlementRequest struct {
	AnnualIncome       input.Float `json:"annualIncome"`
	WorkYearsRemaining input.Float `json:"workYearsRemaining"`
	MedicalExpenses    input.Float `json:"medicalExpenses"`
	FuneralExpenses    input.Float `json:"funeralExpenses"`
	OtherEconomicLoss  input.Float `json:"otherEconomicLoss"`
	Relationship       string      `json:"relationship,omitempty"`
	Multiplier         input.Float `json:"multiplier,omitempty"`
}

// Settlement estimates a wrongful death settlement range.
func (s *Service) Settlement(ctx context.Context, req SettlementRequest) (settlement.Estimate, error) {
	multiplier := req.Multiplier.Float64()
	if multiplier <= 0 {
		relationship := req.Relationship
		if strings.TrimSpace(relationship) == "" {
			relationship = "other"
		}
		m, err := s.tables.Multiplier(relationship)
		if err != nil {
			return settlement.Estimate{}, err
		}
		multiplier = m
	}

	in := settlement.Inputs{
		AnnualIncome:       req.AnnualIncome.Float64(),
		WorkYearsRemaining: req.WorkYearsRemaining.Float64(),
		MedicalExpenses:    req.MedicalExpenses.Float64(),
		FuneralExpenses:    req.FuneralExpenses.Float64(),
		OtherEconomicLoss:  req.OtherEconomicLoss.Float64(),
		Multiplier:         multiplier,
	}

	return cached(ctx, s, constants.KindSettlement, in, func() (settlement.Estimate, error) {
		return settlement.Calculate(in), nil
	})
}

// DrywallRequest describes a room. Sheet size defaults to 4x8 and thickness
// to 1/2 inch; prices come from the tables.
type DrywallRequest struct {
	LengthFt       input.Float `json:"lengthFt"`
	WidthFt        input.Float `json:"widthFt"`
	HeightFt       input.Float `json:"heightFt"`
	Doors          input.Int   `json:"doors"`
	Windows        input.Int   `json:"windows"`
	IncludeCeiling bool        `json:"includeCeiling"`
	SheetSize      string      `json:"sheetSize,omitempty"`
	Thickness      string      `json:"thickness,omitempty"`
	WastePercent   input.Float `json:"wastePercent"`
}

// Drywall estimates sheets and materials for a room.
func (s *Service) Drywall(ctx context.Context, req DrywallRequest) (construction.DrywallEstimate, error) {
	size := strings.ToLower(strings.TrimSpace(req.SheetSize))
	if size == "" {
		size = "4x8"
	}
	thickness := strings.TrimSpace(req.Thickness)
	if thickness == "" {
		thickness = "1/2"
	}
	sheetPrice, err := s.tables.SheetPrice(size, thickness)
	if err != nil {
		return construction.DrywallEstimate{}, err
	}

	in := construction.DrywallInputs{
		LengthFt:       req.LengthFt.Float64(),
		WidthFt:        req.WidthFt.Float64(),
		HeightFt:       req.HeightFt.Float64(),
		Doors:          req.Doors.Int(),
		Windows:        req.Windows.Int(),
		IncludeCeiling: req.IncludeCeiling,
		SheetSize:      size,
		WastePercent:   req.WastePercent.Float64(),
		SheetPrice:     sheetPrice,
		CompoundPrice:  s.tables.AccessoryPrice(tables.AccessoryCompound),
		TapePrice:      s.tables.AccessoryPrice(tables.AccessoryTape),
	}

	return cached(ctx, s, constants.KindDrywall, in, func() (construction.DrywallEstimate, error) {
		return construction.EstimateDrywall(in)
	})
}
