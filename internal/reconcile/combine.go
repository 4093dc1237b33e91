package reconcile

import (
	"strings"

	"github.com/shopspring/decimal"

	"exrecon/internal/dataset"
	"exrecon/pkg/contracts/domain"
)

const cancelCheckInterval = 4096

// Totals sums the per-symbol columns across every symbol.
func Totals(summaries []domain.SpotSymbolSummary) domain.SpotTotals {
	totals := domain.SpotTotals{
		Symbols:         len(summaries),
		TotalBuyVolume:  decimal.Zero,
		TotalSellVolume: decimal.Zero,
		TotalFee:        decimal.Zero,
		TotalNetVolume:  decimal.Zero,
	}
	for _, s := range summaries {
		totals.TotalBuyVolume = totals.TotalBuyVolume.Add(s.BuyVolume)
		totals.TotalSellVolume = totals.TotalSellVolume.Add(s.SellVolume)
		totals.TotalFee = totals.TotalFee.Add(s.TotalFee)
		totals.TotalNetVolume = totals.TotalNetVolume.Add(s.NetVolume)
	}
	return totals
}

// Combine adds the funding net movement to the spot net volume of all symbols.
// CombinedNet is the discrepancy between money moved in and out of the
// account and money made or lost trading.
func Combine(funding domain.FundingSummary, spot []domain.SpotSymbolSummary) domain.CombinedResult {
	spotNet := Totals(spot).TotalNetVolume
	return domain.CombinedResult{
		FundingNet:   funding.NetMovement,
		SpotNetTotal: spotNet,
		CombinedNet:  funding.NetMovement.Add(spotNet),
	}
}

// lowerText returns the trimmed, lowercased text of a string cell.
func lowerText(v dataset.Value) (string, bool) {
	if v.Kind() != dataset.KindString {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(v.Text())), true
}

// symbolKey is the grouping label of a symbol cell: the canonical decimal for
// numbers, the text otherwise.
func symbolKey(v dataset.Value) string {
	if d, ok := v.Decimal(); ok {
		return d.String()
	}
	return v.Text()
}

// upperText returns the trimmed, uppercased text of a string cell.
func upperText(v dataset.Value) (string, bool) {
	if v.Kind() != dataset.KindString {
		return "", false
	}
	return strings.ToUpper(strings.TrimSpace(v.Text())), true
}
