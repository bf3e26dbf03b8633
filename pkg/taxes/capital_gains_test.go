package taxes

import (
	"math"
	"testing"
)

func TestEstimateSale(t *testing.T) {
	tests := []struct {
		name string
		in   SaleInputs
		want Result
	}{
		{
			name: "Single filer in Montana",
			in: SaleInputs{
				SalePrice:               750000,
				SellingCosts:            45000,
				PurchasePrice:           400000,
				Improvements:            50000,
				AccumulatedDepreciation: 80000,
				OtherIncome:             150000,
				FilingStatus:            Single,
				StateRatePercent:        4.1,
			},
			want: Result{
				Applicable:           true,
				AmountRealized:       705000,
				AdjustedBasis:        370000,
				RealizedGain:         335000,
				RecaptureAmount:      80000,
				RecaptureTax:         20000,
				CapitalGain:          255000,
				FederalCapitalGains:  38250,
				NIIT:                 10830,
				StateTax:             13735,
				TotalTax:             82815,
				EffectiveRatePercent: 24.72,
				Deferred:             82815,
			},
		},
		{
			name: "Joint filers straddling the zero bracket",
			in: SaleInputs{
				SalePrice:               600000,
				SellingCosts:            36000,
				PurchasePrice:           350000,
				AccumulatedDepreciation: 60000,
				OtherIncome:             80000,
				FilingStatus:            MarriedFilingJointly,
			},
			want: Result{
				Applicable:           true,
				AmountRealized:       564000,
				AdjustedBasis:        290000,
				RealizedGain:         274000,
				RecaptureAmount:      60000,
				RecaptureTax:         15000,
				CapitalGain:          214000,
				FederalCapitalGains:  29992.5,
				NIIT:                 3952,
				TotalTax:             48944.5,
				EffectiveRatePercent: 17.86,
				Deferred:             48944.5,
			},
		},
		{
			name: "Small gain inside the zero bracket",
			in: SaleInputs{
				SalePrice:     100000,
				PurchasePrice: 90000,
				OtherIncome:   20000,
			},
			want: Result{
				Applicable:     true,
				AmountRealized: 100000,
				AdjustedBasis:  90000,
				RealizedGain:   10000,
				CapitalGain:    10000,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateSale(tt.in)
			if got != tt.want {
				t.Errorf("EstimateSale() =\n%+v\nexpected\n%+v", got, tt.want)
			}
		})
	}
}

func TestEstimateSaleFlatFederalRate(t *testing.T) {
	in := SaleInputs{
		SalePrice:               750000,
		SellingCosts:            45000,
		PurchasePrice:           400000,
		Improvements:            50000,
		AccumulatedDepreciation: 80000,
		OtherIncome:             150000,
		FederalRatePercent:      20,
	}
	got := EstimateSale(in)
	if got.FederalCapitalGains != 51000 {
		t.Errorf("FederalCapitalGains = %v, expected 51000", got.FederalCapitalGains)
	}
}

func TestEstimateSaleNoGainIsZeroed(t *testing.T) {
	tests := []SaleInputs{
		{SalePrice: 300000, SellingCosts: 18000, PurchasePrice: 320000, StateRatePercent: 4.1},
		{SalePrice: 300000, PurchasePrice: 300000},
		{},
	}

	for _, in := range tests {
		got := EstimateSale(in)
		if got.Applicable {
			t.Errorf("expected not applicable for %+v", in)
		}
		if got.Reason == "" {
			t.Errorf("expected a reason for %+v", in)
		}
		got.Reason = ""
		if got != (Result{}) {
			t.Errorf("expected zeroed figures, got %+v", got)
		}
	}
}

func TestEstimateSaleNeverNegative(t *testing.T) {
	for sale := 100000.0; sale <= 1500000; sale += 50000 {
		for _, income := range []float64{0, 60000, 240000, 900000} {
			got := EstimateSale(SaleInputs{
				SalePrice:               sale,
				SellingCosts:            sale * 0.06,
				PurchasePrice:           400000,
				AccumulatedDepreciation: 90000,
				OtherIncome:             income,
				StateRatePercent:        6,
				FilingStatus:            HeadOfHousehold,
			})
			for _, v := range []float64{got.RecaptureTax, got.FederalCapitalGains, got.NIIT, got.StateTax, got.TotalTax} {
				if v < 0 || math.IsNaN(v) {
					t.Fatalf("negative tax figure for sale %.0f income %.0f: %+v", sale, income, got)
				}
			}
		}
	}
}

func TestRecaptureLimitedToGain(t *testing.T) {
	got := EstimateSale(SaleInputs{SalePrice: 330000, PurchasePrice: 400000, AccumulatedDepreciation: 100000})
	if got.RealizedGain != 30000 || got.RecaptureAmount != 30000 || got.CapitalGain != 0 {
		t.Errorf("unexpected recapture split %+v", got)
	}
	if got.RecaptureTax != 7500 {
		t.Errorf("RecaptureTax = %v, expected 7500", got.RecaptureTax)
	}
}

func TestParseFilingStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    FilingStatus
		wantErr bool
	}{
		{"", Single, false},
		{"Married_Joint", MarriedFilingJointly, false},
		{"head_of_household", HeadOfHousehold, false},
		{"widowed", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFilingStatus(tt.input)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFilingStatus(%q) = %q, %v", tt.input, got, err)
		}
	}
}
