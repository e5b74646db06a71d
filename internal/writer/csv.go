// Package writer renders conversion results as CSV.
package writer

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cardlens/statement-converter/internal/models"
)

// bom is the UTF-8 byte order mark. Excel needs it to read accented merchant
// names correctly.
const bom = "\uFEFF"

// Writer renders a conversion's table as CSV. The zero value writes the bare
// table; IncludeMetadata adds "# Key,Value" rows above the column headers.
type Writer struct {
	IncludeMetadata bool
}

// WriteFile renders data to a file at path.
func (w *Writer) WriteFile(path string, data *models.ResultData) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file %q: %w", path, err)
	}
	defer f.Close()
	return w.Write(f, data)
}

// Write renders data to out: BOM, optional metadata rows, column headers,
// then one record per transaction row.
func (w *Writer) Write(out io.Writer, data *models.ResultData) error {
	var sb strings.Builder
	sb.WriteString(bom)

	if w.IncludeMetadata {
		writeMetadata(&sb, data.Metadata)
	}
	writeRecord(&sb, data.Headers)
	for _, row := range data.Rows {
		writeRecord(&sb, row)
	}

	if _, err := io.WriteString(out, sb.String()); err != nil {
		return fmt.Errorf("write CSV: %w", err)
	}
	return nil
}

// Render returns the full CSV document as bytes, BOM included.
func (w *Writer) Render(data *models.ResultData) []byte {
	var buf bytes.Buffer
	_ = w.Write(&buf, data)
	return buf.Bytes()
}

// writeMetadata emits "# Key,Value" rows for the statement fields the
// conversion recovered. Blank fields are omitted.
func writeMetadata(sb *strings.Builder, meta models.ResultMetadata) {
	write := func(key, value string) {
		if value != "" {
			writeRecord(sb, []string{key, value})
		}
	}
	write("# Bank", meta.BankName)
	write("# Statement Period", meta.StatementPeriod)
	write("# Due Date", meta.DueDate)
	write("# Next Closing", meta.NextClosing)
	write("# Balance", meta.Balance)
	if meta.TotalTransactions > 0 {
		write("# Transactions", strconv.Itoa(meta.TotalTransactions))
	}
}

// writeRecord emits one record with RFC 4180 quoting: cells containing
// commas, quotes, or line breaks are quoted, embedded quotes doubled.
func writeRecord(sb *strings.Builder, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(escapeCell(cell))
	}
	sb.WriteByte('\n')
}

func escapeCell(cell string) string {
	if !strings.ContainsAny(cell, ",\"\n\r") {
		return cell
	}
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}
