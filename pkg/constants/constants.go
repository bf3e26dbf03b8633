// Package constants provides shared constants for the calckit application.
package constants

import "time"

// DateTimeLayout is the format expected for loan start months and is also the
// output date format.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// MaxTermYears is the longest loan term accepted by the calculators
	MaxTermYears = 50
)

// APR solver defaults
const (
	// APRMinRate is the lowest annual rate (decimal) a trial iterate may take.
	APRMinRate = 0.001

	// APRMaxRate is the highest annual rate (decimal) a trial iterate may take.
	APRMaxRate = 0.5

	// APRMaxIterations is the Newton-Raphson iteration ceiling.
	APRMaxIterations = 100

	// APRInitialGuess is the starting annual rate (decimal) when none is given.
	APRInitialGuess = 0.05
)

// Affordability defaults
const (
	// FrontEndDTI is the housing-only debt-to-income ceiling.
	FrontEndDTI = 0.28

	// BackEndDTI is the total debt-to-income ceiling.
	BackEndDTI = 0.36

	// AffordabilityMinPrice is the first candidate home price.
	AffordabilityMinPrice = 50000.0

	// AffordabilityMaxPrice is the last candidate home price.
	AffordabilityMaxPrice = 2000000.0

	// AffordabilityStep is the scan increment and the output granularity.
	AffordabilityStep = 10000.0

	// PMIAnnualRate is the flat annual PMI rate applied to the loan amount.
	PMIAnnualRate = 0.0075

	// PMILoanToValueCutoff is the loan-to-value above which PMI applies.
	PMILoanToValueCutoff = 0.80

	// DefaultInsuranceRatePercent is the annual homeowner's insurance estimate
	// as a percentage of the home price.
	DefaultInsuranceRatePercent = 0.5
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024
)

// Cache backends
const (
	CacheBackendNone   = "none"
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendSQLite = "sqlite"
)

// DefaultCacheTTL bounds how long a cached result is served.
const DefaultCacheTTL = 24 * time.Hour

// DefaultCachePruneInterval is how often the server sweeps expired results.
const DefaultCachePruneInterval = 10 * time.Minute

// Calculation kinds, used as batch job kinds and cache key namespaces.
const (
	KindAmortization  = "amortization"
	KindAPR           = "apr"
	KindResistors     = "resistors"
	KindAffordability = "affordability"
	KindCapitalGains  = "capital-gains"
	KindSettlement    = "settlement"
	KindDrywall       = "drywall"
)

// Kinds lists every calculation kind in display order.
var Kinds = []string{
	KindAmortization,
	KindAPR,
	KindResistors,
	KindAffordability,
	KindCapitalGains,
	KindSettlement,
	KindDrywall,
}
