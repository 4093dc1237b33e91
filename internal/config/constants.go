package config

// Application constants
const (
	AppName = "exrecon"

	// EnvPrefix namespaces every environment override (RECON_LOGGING_LEVEL, ...).
	EnvPrefix = "RECON"

	// File Paths (relative to the working directory)
	DefaultInputDir  = "."
	DefaultOutputDir = "combined"
	DefaultLogFile   = "logs/recon.log"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "console"

	// Aggregation
	DefaultWorkers = 4
	MaxWorkers     = 64

	// Telemetry
	DefaultServiceName    = "exrecon"
	DefaultEnvironment    = "development"
	DefaultTraceExporter  = "none"
	DefaultMetricExporter = "none"
	DefaultSampleRatio    = 1.0
)

// Export categories produced by the exchange, one combined file each.
const (
	SpotFilledOrdersSplitFile = "Spot Orders_Filled Orders (Show Order-Splitting).csv"
	SpotFilledOrdersFile      = "Spot Orders_Filled Orders.csv"
	FundingAccountFile        = "Account History_Funding Account.csv"
	TradingAccountFile        = "Account History_Trading Account.csv"
	WithdrawalRecordFile      = "Deposit_Withdrawal History_Withdrawal Record.csv"
	DepositHistoryFile        = "Deposit_Withdrawal History_Deposit History.csv"

	// CombinedSuffix is inserted before the extension of a combined output.
	CombinedSuffix = "-combined"
)

// CombinedName returns the combined output name for an export file name,
// e.g. "Account History_Funding Account-combined.csv".
func CombinedName(exportFile string) string {
	ext := ".csv"
	base := exportFile
	if n := len(base) - len(ext); n > 0 && base[n:] == ext {
		base = base[:n]
	}
	return base + CombinedSuffix + ext
}

// DefaultCombinations lists every export category merged by default.
func DefaultCombinations() []Combination {
	files := []string{
		SpotFilledOrdersSplitFile,
		SpotFilledOrdersFile,
		FundingAccountFile,
		TradingAccountFile,
		WithdrawalRecordFile,
		DepositHistoryFile,
	}
	out := make([]Combination, 0, len(files))
	for _, f := range files {
		out = append(out, Combination{
			Pattern: "**/" + f,
			Output:  CombinedName(f),
		})
	}
	return out
}
