package main

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/IBM/API-BLEND/clause"
	"github.com/IBM/API-BLEND/internal/stats"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func renderReport(report []stats.Split) string {
	rows := make([][]string, 0, len(report))
	for _, s := range report {
		rows = append(rows, []string{
			s.Dataset,
			s.Split,
			strconv.Itoa(s.Examples),
			strconv.Itoa(s.Written),
			strconv.Itoa(s.Dropped),
			strconv.Itoa(s.Mismatches),
			strconv.Itoa(s.DroppedCalls),
			strconv.Itoa(s.MalformedLines),
			formatCounts(s.Strategies),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("dataset", "split", "examples", "written", "dropped", "mismatch", "lost calls", "bad lines", "strategies").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	return titleStyle.Render("Conversion summary") + "\n" + t.String()
}

func renderSegmentation(words []string, intents []string, seg clause.Segmentation) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d clause(s) via %s", len(seg.Clauses), seg.Strategy)))
	if !seg.Matched {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  (wanted %d)", len(intents))))
	}
	b.WriteByte('\n')
	for i, c := range seg.Clauses {
		intent := "-"
		if i < len(intents) {
			intent = intents[i]
		}
		fmt.Fprintf(&b, "  %d. %s %s\n", i+1,
			dimStyle.Render("["+intent+"]"),
			strings.Join(words[c.Start:c.End], " "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatCounts(m map[string]int) string {
	keys := slices.Sorted(maps.Keys(m))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, m[k])
	}
	return strings.Join(parts, " ")
}
