package reconcile

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"exrecon/internal/dataset"
	"exrecon/pkg/contracts/domain"
)

// Spot filled order columns.
const (
	ColumnSymbol       = "Symbol"
	ColumnFilledVolume = "Filled Volume"
	ColumnFee          = "Fee"
)

// SpotReconciler pivots filled spot orders into per-symbol buy and sell totals.
type SpotReconciler struct {
	logger *slog.Logger
}

// NewSpotReconciler creates a spot reconciler. A nil logger uses slog.Default.
func NewSpotReconciler(logger *slog.Logger) *SpotReconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpotReconciler{logger: logger.With("component", "spot_reconciler")}
}

type groupKey struct {
	symbol string
	side   string
}

type groupSums struct {
	volume decimal.Decimal
	fee    decimal.Decimal
}

// Reconcile groups rows by (Symbol, Side) and returns one summary per symbol,
// sorted by symbol.
//
// Side is trimmed and uppercased. Numeric symbols group by value, so "1" and
// "1.0" are one symbol. Rows with a missing Symbol or a missing or numeric
// Side are left out. Symbols that only trade under other sides still
// appear, with zero totals.
func (r *SpotReconciler) Reconcile(ctx context.Context, ds *dataset.Dataset) ([]domain.SpotSymbolSummary, error) {
	if err := ds.Require(ColumnSymbol, ColumnSide, ColumnFilledVolume, ColumnFee); err != nil {
		return nil, err
	}

	groups := make(map[groupKey]*groupSums)
	excluded := 0

	for i := 0; i < ds.Len(); i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		symbol := ds.Value(i, ColumnSymbol)
		side, ok := upperText(ds.Value(i, ColumnSide))
		if symbol.IsMissing() || !ok {
			excluded++
			continue
		}

		volume, _, err := ds.DecimalAt(i, ColumnFilledVolume)
		if err != nil {
			return nil, err
		}
		fee, _, err := ds.DecimalAt(i, ColumnFee)
		if err != nil {
			return nil, err
		}

		key := groupKey{symbol: symbolKey(symbol), side: side}
		g, ok := groups[key]
		if !ok {
			g = &groupSums{volume: decimal.Zero, fee: decimal.Zero}
			groups[key] = g
		}
		g.volume = g.volume.Add(volume)
		g.fee = g.fee.Add(fee)
	}

	symbols := make(map[string]struct{})
	for k := range groups {
		symbols[k.symbol] = struct{}{}
	}
	names := make([]string, 0, len(symbols))
	for s := range symbols {
		names = append(names, s)
	}
	sort.Strings(names)

	summaries := make([]domain.SpotSymbolSummary, 0, len(names))
	for _, s := range names {
		buy := groups[groupKey{symbol: s, side: domain.SideBuy}]
		sell := groups[groupKey{symbol: s, side: domain.SideSell}]
		summaries = append(summaries, domain.NewSpotSymbolSummary(s,
			volumeOf(buy), volumeOf(sell), feeOf(buy), feeOf(sell)))
	}

	r.logger.InfoContext(ctx, "Spot orders reconciled",
		slog.Int("rows", ds.Len()),
		slog.Int("rows_excluded", excluded),
		slog.Int("symbols", len(summaries)))

	return summaries, nil
}

func volumeOf(g *groupSums) decimal.Decimal {
	if g == nil {
		return decimal.Zero
	}
	return g.volume
}

func feeOf(g *groupSums) decimal.Decimal {
	if g == nil {
		return decimal.Zero
	}
	return g.fee
}
