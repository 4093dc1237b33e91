// Package report prints reconciliation summaries for people.
//
// Tables are drawn with lipgloss; amounts use thousands separators and two
// decimals, with a dollar sign on funding figures. The same summaries can be
// written as JSON for scripts.
package report
