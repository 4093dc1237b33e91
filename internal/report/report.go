package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"exrecon/pkg/contracts/domain"
)

// Section titles.
const (
	TitleFunding    = "Deposit/Withdrawal History Summary"
	TitleSpot       = "Spot Order History by Symbol"
	TitleSpotTotals = "Spot Order History Summary"
	TitleCombined   = "Combined Results ('Combined Net' shows discrepancy between deposits/withdrawals and trading results)"
	TitleCombine    = "Combined Files"
	TitleInventory  = "File Inventory"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
)

// Renderer prints summaries as terminal tables or JSON.
type Renderer struct {
	w io.Writer
}

// NewRenderer creates a renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Funding prints the deposit, withdrawal and net movement table.
func (r *Renderer) Funding(s domain.FundingSummary) error {
	return r.section(TitleFunding, []string{"Metric", "Amount"}, [][]string{
		{"Total Deposits", FormatMoney(s.TotalDeposits)},
		{"Total Withdrawals", FormatMoney(s.TotalWithdrawals)},
		{"Net Movement", FormatMoney(s.NetMovement)},
	}, 1)
}

// Spot prints one row per symbol.
func (r *Renderer) Spot(summaries []domain.SpotSymbolSummary) error {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Symbol,
			FormatAmount(s.BuyVolume),
			FormatAmount(s.SellVolume),
			FormatAmount(s.BuyFee),
			FormatAmount(s.SellFee),
			FormatAmount(s.TotalFee),
			FormatAmount(s.NetVolume),
		})
	}
	return r.section(TitleSpot,
		[]string{"Symbol", "Buy Volume", "Sell Volume", "Buy Fee", "Sell Fee", "Total Fee", "Net Volume"},
		rows, 1)
}

// SpotTotals prints the column totals across symbols.
func (r *Renderer) SpotTotals(t domain.SpotTotals) error {
	return r.section(TitleSpotTotals, []string{"Metric", "Value"}, [][]string{
		{"Symbols", FormatCount(t.Symbols)},
		{"Total Buy Volume", FormatAmount(t.TotalBuyVolume)},
		{"Total Sell Volume", FormatAmount(t.TotalSellVolume)},
		{"Total Fee", FormatAmount(t.TotalFee)},
		{"Total Net Volume", FormatAmount(t.TotalNetVolume)},
	}, 1)
}

// Combined prints the funding net, spot net and their sum.
func (r *Renderer) Combined(c domain.CombinedResult) error {
	return r.section(TitleCombined, []string{"Metric", "Value"}, [][]string{
		{"Deposit/Withdrawal Net", FormatMoney(c.FundingNet)},
		{"Spot Net Volume", FormatAmount(c.SpotNetTotal)},
		{"Combined Net", FormatAmount(c.CombinedNet)},
	}, 1)
}

// CombineResults prints the outcome of each combination.
func (r *Renderer) CombineResults(results []domain.CombineResult) error {
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		rows = append(rows, []string{
			res.Pattern,
			string(res.Status),
			FormatCount(res.FilesMatched),
			FormatCount(len(res.FilesSkipped)),
			FormatCount(res.DuplicateRows),
			FormatCount(res.RowsWritten),
			res.Output,
		})
	}
	return r.section(TitleCombine,
		[]string{"Pattern", "Status", "Files", "Skipped", "Duplicates", "Rows", "Output"},
		rows, 2, 3, 4, 5)
}

// Inventory prints file counts per base name with a suggested pattern.
func (r *Renderer) Inventory(counts []domain.FileCount) error {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Name, FormatCount(c.Count), c.Glob})
	}
	return r.section(TitleInventory, []string{"File Name", "Count", "Unique Glob String"}, rows, 1)
}

// Report prints every summary present in rep.
func (r *Renderer) Report(rep domain.ReconciliationReport) error {
	if rep.Funding != nil {
		if err := r.Funding(*rep.Funding); err != nil {
			return err
		}
	}
	if rep.Spot != nil {
		if err := r.Spot(rep.Spot); err != nil {
			return err
		}
	}
	if rep.SpotTotals != nil {
		if err := r.SpotTotals(*rep.SpotTotals); err != nil {
			return err
		}
	}
	if rep.Combined != nil {
		if err := r.Combined(*rep.Combined); err != nil {
			return err
		}
	}
	return nil
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// section writes a title line and a bordered table. Columns listed in
// numeric are right aligned.
func (r *Renderer) section(title string, headers []string, rows [][]string, numeric ...int) error {
	right := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		right[c] = true
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case right[col]:
				return numberStyle
			default:
				return cellStyle
			}
		})

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(titleStyle.Render(title + ":"))
	b.WriteString("\n")
	b.WriteString(t.String())
	b.WriteString("\n")

	_, err := fmt.Fprint(r.w, b.String())
	return err
}
