// internal/report/console.go
package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"github.com/mwiater/tokbench/internal/util"
)

const maxCellRunes = 60

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	passMarker = color.New(color.FgGreen).SprintFunc()
	warnMarker = color.New(color.FgYellow).SprintFunc()
	failMarker = color.New(color.FgRed).SprintFunc()
)

// Render prints title and t as a bordered table. Long cells are truncated.
func Render(w io.Writer, title string, t Table) {
	rows := t.Records()
	for i, row := range rows {
		clipped := make([]string, len(row))
		for j, cell := range row {
			clipped[j] = util.TruncateRunes(cell, maxCellRunes)
		}
		rows[i] = clipped
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(t.Header()...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w, tbl.Render())
}

// Marker colors a PASS, WARN or FAIL status. Other values are returned unchanged.
func Marker(status string) string {
	switch status {
	case "PASS":
		return passMarker(status)
	case "WARN":
		return warnMarker(status)
	case "FAIL":
		return failMarker(status)
	default:
		return status
	}
}

// Check colors a boolean outcome as PASS or FAIL.
func Check(ok bool) string {
	if ok {
		return Marker("PASS")
	}
	return Marker("FAIL")
}
