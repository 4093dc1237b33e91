package domain

import (
	"github.com/shopspring/decimal"
)

// Canonical side labels after normalisation.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// FundingSummary is the deposit/withdrawal total of a funding account history.
type FundingSummary struct {
	TotalDeposits    decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"`
	// NetMovement is TotalDeposits - TotalWithdrawals.
	NetMovement decimal.Decimal `json:"net_movement"`

	DepositCount    int `json:"deposit_count"`
	WithdrawalCount int `json:"withdrawal_count"`
}

// NewFundingSummary builds a summary and derives NetMovement.
func NewFundingSummary(deposits, withdrawals decimal.Decimal) FundingSummary {
	return FundingSummary{
		TotalDeposits:    deposits,
		TotalWithdrawals: withdrawals,
		NetMovement:      deposits.Sub(withdrawals),
	}
}

// SpotSymbolSummary is the buy/sell pivot of filled spot orders for one symbol.
type SpotSymbolSummary struct {
	Symbol     string          `json:"symbol"`
	BuyVolume  decimal.Decimal `json:"buy_volume"`
	SellVolume decimal.Decimal `json:"sell_volume"`
	BuyFee     decimal.Decimal `json:"buy_fee"`
	SellFee    decimal.Decimal `json:"sell_fee"`
	TotalFee   decimal.Decimal `json:"total_fee"`
	NetVolume  decimal.Decimal `json:"net_volume"`
}

// NewSpotSymbolSummary derives TotalFee and NetVolume from the four pivoted sums.
//
// NetVolume = (SellVolume + TotalFee) - BuyVolume. Fees count on the credit
// side; buy fees are not netted against BuyVolume.
func NewSpotSymbolSummary(symbol string, buyVolume, sellVolume, buyFee, sellFee decimal.Decimal) SpotSymbolSummary {
	totalFee := buyFee.Add(sellFee)
	return SpotSymbolSummary{
		Symbol:     symbol,
		BuyVolume:  buyVolume,
		SellVolume: sellVolume,
		BuyFee:     buyFee,
		SellFee:    sellFee,
		TotalFee:   totalFee,
		NetVolume:  sellVolume.Add(totalFee).Sub(buyVolume),
	}
}

// SpotTotals sums SpotSymbolSummary columns across all symbols.
type SpotTotals struct {
	Symbols         int             `json:"symbols"`
	TotalBuyVolume  decimal.Decimal `json:"total_buy_volume"`
	TotalSellVolume decimal.Decimal `json:"total_sell_volume"`
	TotalFee        decimal.Decimal `json:"total_fee"`
	TotalNetVolume  decimal.Decimal `json:"total_net_volume"`
}

// CombinedResult merges funding net movement with the spot net volume.
// A CombinedNet far from zero flags unaccounted gains/losses or missing records.
type CombinedResult struct {
	FundingNet   decimal.Decimal `json:"funding_net"`
	SpotNetTotal decimal.Decimal `json:"spot_net_total"`
	CombinedNet  decimal.Decimal `json:"combined_net"`
}

// CombineStatus is the outcome of one (pattern, output) combination.
type CombineStatus string

const (
	CombineStatusWritten     CombineStatus = "written"
	CombineStatusNoMatch     CombineStatus = "no_match"
	CombineStatusEmpty       CombineStatus = "empty"
	CombineStatusWriteFailed CombineStatus = "write_failed"
	CombineStatusCanceled    CombineStatus = "canceled"
)

// CombineResult reports what the aggregator did for one combination.
type CombineResult struct {
	Pattern       string        `json:"pattern"`
	Output        string        `json:"output"`
	Status        CombineStatus `json:"status"`
	FilesMatched  int           `json:"files_matched"`
	FilesLoaded   int           `json:"files_loaded"`
	FilesSkipped  []string      `json:"files_skipped,omitempty"`
	RowsRead      int           `json:"rows_read"`
	RowsWritten   int           `json:"rows_written"`
	DuplicateRows int           `json:"duplicate_rows"`
	Err           error         `json:"-"`
}

// OK reports whether the combination produced an output file.
func (r CombineResult) OK() bool {
	return r.Status == CombineStatusWritten
}

// FileCount is one line of a file inventory: how many files share a base name.
type FileCount struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Paths []string `json:"paths"`
	// Glob is a recursive pattern that matches every file with this name.
	Glob string `json:"glob"`
}

// ReconciliationReport gathers every summary produced by one run. Summaries
// that failed are left nil.
type ReconciliationReport struct {
	RunID      string              `json:"run_id"`
	Funding    *FundingSummary     `json:"funding,omitempty"`
	Spot       []SpotSymbolSummary `json:"spot,omitempty"`
	SpotTotals *SpotTotals         `json:"spot_totals,omitempty"`
	Combined   *CombinedResult     `json:"combined,omitempty"`
}
