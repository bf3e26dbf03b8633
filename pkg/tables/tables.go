// Package tables holds the published constant tables the calculators read:
// state capital gains rates, Montana county property tax rates, drywall
// prices, and settlement relationship multipliers.
//
// Tables are built once at startup (defaults, then configuration overrides)
// and are read-only afterwards.
package tables

import (
	"fmt"
	"sort"
	"strings"
)

// Tables is the full set of lookup data. Rates are percentages.
type Tables struct {
	StateCapitalGainsRates map[string]float64            `mapstructure:"stateCapitalGainsRates" yaml:"stateCapitalGainsRates" json:"stateCapitalGainsRates"`
	CountyPropertyTaxRates map[string]float64            `mapstructure:"countyPropertyTaxRates" yaml:"countyPropertyTaxRates" json:"countyPropertyTaxRates"`
	DrywallSheetPrices     map[string]map[string]float64 `mapstructure:"drywallSheetPrices" yaml:"drywallSheetPrices" json:"drywallSheetPrices"`
	DrywallAccessoryPrices map[string]float64            `mapstructure:"drywallAccessoryPrices" yaml:"drywallAccessoryPrices" json:"drywallAccessoryPrices"`
	SettlementMultipliers  map[string]float64            `mapstructure:"settlementMultipliers" yaml:"settlementMultipliers" json:"settlementMultipliers"`
}

// Accessory keys in DrywallAccessoryPrices.
const (
	AccessoryCompound = "compound"
	AccessoryTape     = "tape"
)

// Default returns the built-in tables.
func Default() Tables {
	return Tables{
		StateCapitalGainsRates: map[string]float64{
			"AK": 0, "AZ": 2.5, "CA": 13.3, "CO": 4.4, "FL": 0, "ID": 5.8,
			"MT": 4.1, "ND": 1.5, "NH": 0, "NV": 0, "NY": 10.9, "OR": 9.9,
			"SD": 0, "TN": 0, "TX": 0, "UT": 4.65, "WA": 7.0, "WY": 0,
		},
		CountyPropertyTaxRates: map[string]float64{
			"butte-silver bow": 1.02,
			"cascade":          0.91,
			"flathead":         0.69,
			"gallatin":         0.68,
			"lake":             0.72,
			"lewis and clark":  0.88,
			"missoula":         0.87,
			"park":             0.63,
			"ravalli":          0.74,
			"yellowstone":      0.83,
		},
		DrywallSheetPrices: map[string]map[string]float64{
			"4x8":  {"3/8": 13.50, "1/2": 15.98, "5/8": 17.48},
			"4x10": {"3/8": 17.25, "1/2": 19.98, "5/8": 22.48},
			"4x12": {"3/8": 20.50, "1/2": 23.98, "5/8": 26.98},
		},
		DrywallAccessoryPrices: map[string]float64{
			AccessoryCompound: 18.98,
			AccessoryTape:     6.48,
		},
		SettlementMultipliers: map[string]float64{
			"spouse":      3.5,
			"minor_child": 4.0,
			"adult_child": 2.5,
			"parent":      3.0,
			"sibling":     2.0,
			"other":       2.0,
		},
	}
}

// Merge returns a copy of t with every entry in override replacing or adding
// to the corresponding entry. t and override are left untouched.
func (t Tables) Merge(override Tables) Tables {
	return Tables{
		StateCapitalGainsRates: mergeRates(t.StateCapitalGainsRates, override.StateCapitalGainsRates, strings.ToUpper),
		CountyPropertyTaxRates: mergeRates(t.CountyPropertyTaxRates, override.CountyPropertyTaxRates, normalizeName),
		DrywallSheetPrices:     mergeSheetPrices(t.DrywallSheetPrices, override.DrywallSheetPrices),
		DrywallAccessoryPrices: mergeRates(t.DrywallAccessoryPrices, override.DrywallAccessoryPrices, normalizeName),
		SettlementMultipliers:  mergeRates(t.SettlementMultipliers, override.SettlementMultipliers, normalizeName),
	}
}

// StateRate returns the capital gains rate for a two-letter state code.
func (t Tables) StateRate(state string) (float64, error) {
	rate, ok := t.StateCapitalGainsRates[strings.ToUpper(strings.TrimSpace(state))]
	if !ok {
		return 0, fmt.Errorf("no capital gains rate for state %q", state)
	}
	return rate, nil
}

// CountyTaxRate returns the effective property tax rate for a county.
func (t Tables) CountyTaxRate(county string) (float64, error) {
	rate, ok := t.CountyPropertyTaxRates[normalizeName(county)]
	if !ok {
		return 0, fmt.Errorf("no property tax rate for county %q", county)
	}
	return rate, nil
}

// SheetPrice returns the price of one drywall sheet.
func (t Tables) SheetPrice(size, thickness string) (float64, error) {
	bySize, ok := t.DrywallSheetPrices[normalizeName(size)]
	if !ok {
		return 0, fmt.Errorf("no drywall prices for sheet size %q", size)
	}
	price, ok := bySize[strings.TrimSpace(thickness)]
	if !ok {
		return 0, fmt.Errorf("no drywall price for %s sheet at %q thickness", size, thickness)
	}
	return price, nil
}

// AccessoryPrice returns the unit price of a drywall accessory, 0 if unknown.
func (t Tables) AccessoryPrice(name string) float64 {
	return t.DrywallAccessoryPrices[normalizeName(name)]
}

// Multiplier returns the settlement multiplier for a relationship.
func (t Tables) Multiplier(relationship string) (float64, error) {
	m, ok := t.SettlementMultipliers[normalizeName(relationship)]
	if !ok {
		return 0, fmt.Errorf("unknown relationship %q, expected one of %s",
			relationship, strings.Join(SortedKeys(t.SettlementMultipliers), ", "))
	}
	return m, nil
}

// SortedKeys lists the keys of a rate table in order.
func SortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func mergeRates(base, override map[string]float64, key func(string) string) map[string]float64 {
	merged := make(map[string]float64, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[key(k)] = v
	}
	return merged
}

func mergeSheetPrices(base, override map[string]map[string]float64) map[string]map[string]float64 {
	merged := make(map[string]map[string]float64, len(base)+len(override))
	for size, prices := range base {
		merged[size] = mergeRates(nil, prices, strings.TrimSpace)
	}
	for size, prices := range override {
		size = normalizeName(size)
		merged[size] = mergeRates(merged[size], prices, strings.TrimSpace)
	}
	return merged
}
