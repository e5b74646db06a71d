package extractor

import (
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// columnGap is the horizontal distance, in PDF points, that separates two
// table cells rather than two words of the same cell.
const columnGap = 15

// tableMinRows and tableMinCells decide when a page counts as
// table-structured: at least tableMinRows rows carrying tableMinCells or
// more cells each. Statements with a date/description/amount layout clear
// this easily; free-flowing letter pages do not.
const (
	tableMinRows  = 3
	tableMinCells = 3
)

// clusterRows splits each word row into cells wherever the horizontal gap
// between adjacent words exceeds columnGap. Words inside a cell are joined
// with single spaces.
func clusterRows(rows pdf.Rows) [][]string {
	var out [][]string
	for _, row := range rows {
		words := make([]pdf.Text, len(row.Content))
		copy(words, row.Content)
		sort.Slice(words, func(i, j int) bool { return words[i].X < words[j].X })

		var cells []string
		var cell strings.Builder
		var prevEnd float64
		first := true
		for _, w := range words {
			if strings.TrimSpace(w.S) == "" {
				continue
			}
			if !first && w.X-prevEnd > columnGap {
				cells = append(cells, strings.TrimSpace(cell.String()))
				cell.Reset()
			} else if !first {
				cell.WriteByte(' ')
			}
			cell.WriteString(w.S)
			prevEnd = w.X + w.W
			if w.W <= 0 {
				// Some producers omit widths; estimate from the glyph count.
				prevEnd = w.X + float64(len(w.S))*w.FontSize*0.5
			}
			first = false
		}
		if cell.Len() > 0 {
			cells = append(cells, strings.TrimSpace(cell.String()))
		}
		if len(cells) > 0 {
			out = append(out, cells)
		}
	}
	return out
}

// buildTable decides whether the clustered rows form a table. When they do,
// the whole page becomes one cell grid, single-cell rows included, so
// headers and footers keep their position between transaction rows.
func buildTable(cellRows [][]string) ([][]string, bool) {
	wide := 0
	for _, row := range cellRows {
		if len(row) >= tableMinCells {
			wide++
		}
	}
	if wide < tableMinRows {
		return nil, false
	}
	return cellRows, true
}

// joinCellRows renders clustered rows back into plain text for pages that
// did not qualify as tables. Cells are separated by double spaces so
// column-aware patterns still see the gap.
func joinCellRows(cellRows [][]string) string {
	lines := make([]string, 0, len(cellRows))
	for _, row := range cellRows {
		line := strings.TrimSpace(strings.Join(row, "  "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
