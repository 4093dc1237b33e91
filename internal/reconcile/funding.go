package reconcile

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"exrecon/internal/dataset"
	"exrecon/pkg/contracts/domain"
)

// Funding account history columns.
const (
	ColumnSide   = "Side"
	ColumnType   = "Type"
	ColumnAmount = "Amount"
)

const (
	depositLabel  = "deposit"
	withdrawLabel = "withdraw"
)

// FundingReconciler totals deposits and withdrawals of a funding account history.
type FundingReconciler struct {
	logger *slog.Logger
}

// NewFundingReconciler creates a funding reconciler. A nil logger uses slog.Default.
func NewFundingReconciler(logger *slog.Logger) *FundingReconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FundingReconciler{logger: logger.With("component", "funding_reconciler")}
}

// Reconcile classifies each row by Side and Type and sums Amount per bucket.
//
// A row is a deposit when both Side and Type read "deposit", and a withdrawal
// when both contain "withdraw", after trimming and lowercasing. Rows whose
// Side or Type is missing or numeric match neither. A missing Amount counts
// as zero.
func (r *FundingReconciler) Reconcile(ctx context.Context, ds *dataset.Dataset) (domain.FundingSummary, error) {
	if err := ds.Require(ColumnSide, ColumnType, ColumnAmount); err != nil {
		return domain.FundingSummary{}, err
	}

	deposits, withdrawals := decimal.Zero, decimal.Zero
	var depositCount, withdrawalCount int

	for i := 0; i < ds.Len(); i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return domain.FundingSummary{}, err
			}
		}

		side, sideOK := lowerText(ds.Value(i, ColumnSide))
		typ, typeOK := lowerText(ds.Value(i, ColumnType))
		if !sideOK || !typeOK {
			continue
		}

		isDeposit := side == depositLabel && typ == depositLabel
		isWithdrawal := strings.Contains(side, withdrawLabel) && strings.Contains(typ, withdrawLabel)
		if !isDeposit && !isWithdrawal {
			continue
		}

		amount, _, err := ds.DecimalAt(i, ColumnAmount)
		if err != nil {
			return domain.FundingSummary{}, err
		}

		if isDeposit {
			deposits = deposits.Add(amount)
			depositCount++
		} else {
			withdrawals = withdrawals.Add(amount)
			withdrawalCount++
		}
	}

	summary := domain.NewFundingSummary(deposits, withdrawals)
	summary.DepositCount = depositCount
	summary.WithdrawalCount = withdrawalCount

	r.logger.InfoContext(ctx, "Funding reconciled",
		slog.Int("rows", ds.Len()),
		slog.Int("deposits", depositCount),
		slog.Int("withdrawals", withdrawalCount),
		slog.String("net_movement", summary.NetMovement.String()))

	return summary, nil
}
