// Package extractor turns credit-card statement PDF bytes into per-page
// content. Table structure is attempted first for every page; plain text is
// the fallback, so a page never carries both.
package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/cardlens/statement-converter/internal/models"
)

// Extractor produces the page sequence for one conversion. It is stateless
// apart from its limits and safe for concurrent use.
type Extractor struct {
	maxBytes    int64
	maxPages    int
	pageWorkers int
	log         *zap.Logger
}

// New builds an Extractor with the given byte and page ceilings. pageWorkers
// bounds the subprocess fan-out of the pdftotext fallback.
func New(maxBytes int64, maxPages, pageWorkers int, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	if pageWorkers < 1 {
		pageWorkers = 1
	}
	return &Extractor{maxBytes: maxBytes, maxPages: maxPages, pageWorkers: pageWorkers, log: log}
}

// Extract reads the PDF and returns one ExtractedPage per page, in page
// order. It tries multiple extraction methods to handle different PDF
// encodings: the structured library first, then raw content-stream decoding,
// then the external pdftotext command when installed.
//
// Size and page ceilings are checked before any extraction work. A document
// where no page yields readable content fails with CorruptOrImagePdf.
func (e *Extractor) Extract(data []byte) ([]models.ExtractedPage, error) {
	if int64(len(data)) > e.maxBytes {
		return nil, models.Errorf(models.CodeFileTooLarge,
			"file is %d bytes, limit is %d", len(data), e.maxBytes)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, models.Errorf(models.CodeCorruptOrImagePDF,
			"input does not start with a PDF signature")
	}

	pages, libErr := e.extractWithLibrary(data)
	if errors.Is(libErr, models.ErrFileTooLarge) {
		return nil, libErr
	}
	if libErr == nil && readablePages(pages) {
		return pages, nil
	}
	if libErr != nil {
		e.log.Debug("pdf library extraction failed", zap.Error(libErr))
	}

	// Library failed or returned garbage. Decode text operators straight
	// from the content streams.
	if raw := extractRaw(data); readablePages(raw) {
		e.log.Debug("raw content-stream extraction used")
		return raw, nil
	}

	// Last resort: poppler's pdftotext, when present on the host.
	if popp, err := extractWithPdftotext(data, e.pageWorkers); err == nil && readablePages(popp) {
		e.log.Debug("pdftotext extraction used")
		return popp, nil
	}

	if libErr != nil {
		return nil, models.WrapError(models.CodeCorruptOrImagePDF, libErr)
	}
	return nil, models.Errorf(models.CodeCorruptOrImagePDF,
		"no readable text in any of %d page(s); the file may be scanned or use undecodable fonts", len(pages))
}

// extractWithLibrary opens the document with ledongthuc/pdf and walks its
// method ladder: row extraction with table reconstruction, coordinate-based
// row rebuilding, per-page plain text, whole-document plain text. The
// library is known to panic on malformed files, so the whole walk runs
// under a recover.
func (e *Extractor) extractWithLibrary(data []byte) (pages []models.ExtractedPage, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf library crashed: %v", r)
		}
	}()

	// Empty-password attempt covers encrypted-but-openable statements.
	r, openErr := pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), func() string { return "" })
	if openErr != nil {
		return nil, openErr
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("document reports no pages")
	}
	if numPages > e.maxPages {
		return nil, models.Errorf(models.CodeFileTooLarge,
			"document has %d pages, limit is %d", numPages, e.maxPages)
	}

	// Method 1: GetTextByRow. Best layout fidelity, and the only method
	// that can recover table structure.
	pages = e.extractByRow(r, numPages)
	if readablePages(pages) {
		return pages, nil
	}

	// Method 2: Page.Content() with coordinate-based row reconstruction.
	if alt := extractByContent(r, numPages); readablePages(alt) {
		return alt, nil
	}

	// Method 3: per-page GetPlainText with font maps.
	if alt := extractByPagePlainText(r, numPages); readablePages(alt) {
		return alt, nil
	}

	// Method 4: whole-document GetPlainText, a different extraction path.
	if text := extractByReaderPlainText(r); text != "" {
		alt := []models.ExtractedPage{{Index: 0, Text: text}}
		if readablePages(alt) {
			return alt, nil
		}
	}

	return pages, nil
}

// extractByRow pulls word rows per page and hands them to the table
// detector. Every page gets an entry even when it yields nothing, so page
// indexes stay aligned with the document.
func (e *Extractor) extractByRow(r *pdf.Reader, numPages int) []models.ExtractedPage {
	pages := make([]models.ExtractedPage, 0, numPages)
	for i := 1; i <= numPages; i++ {
		out := models.ExtractedPage{Index: i - 1}
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, out)
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil || len(rows) == 0 {
			pages = append(pages, out)
			continue
		}
		cellRows := clusterRows(rows)
		if grid, ok := buildTable(cellRows); ok {
			out.Tables = [][][]string{grid}
		} else {
			out.Text = joinCellRows(cellRows)
		}
		pages = append(pages, out)
	}
	return pages
}

// extractByContent groups raw text objects by Y coordinate to rebuild rows,
// then sorts each row by X. Gaps over 15pt become column separators.
func extractByContent(r *pdf.Reader, numPages int) []models.ExtractedPage {
	pages := make([]models.ExtractedPage, 0, numPages)
	for i := 1; i <= numPages; i++ {
		out := models.ExtractedPage{Index: i - 1}
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, out)
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			pages = append(pages, out)
			continue
		}

		type textItem struct {
			x float64
			s string
		}
		rowMap := make(map[int][]textItem)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			yKey := int(math.Round(t.Y))
			rowMap[yKey] = append(rowMap[yKey], textItem{x: t.X, s: t.S})
		}

		yKeys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			yKeys = append(yKeys, y)
		}
		// PDF Y grows bottom-to-top, so descending Y is reading order.
		sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

		var lines []string
		for _, y := range yKeys {
			items := rowMap[y]
			sort.Slice(items, func(a, b int) bool { return items[a].x < items[b].x })

			var parts []string
			var prevX float64
			for j, item := range items {
				if j > 0 && item.x-prevX > 15 {
					parts = append(parts, "  ")
				}
				parts = append(parts, item.s)
				prevX = item.x
			}
			line := strings.TrimSpace(strings.Join(parts, ""))
			if line != "" {
				lines = append(lines, line)
			}
		}
		out.Text = strings.Join(lines, "\n")
		pages = append(pages, out)
	}
	return pages
}

// extractByPagePlainText uses GetPlainText with its font map per page.
func extractByPagePlainText(r *pdf.Reader, numPages int) []models.ExtractedPage {
	pages := make([]models.ExtractedPage, 0, numPages)
	for i := 1; i <= numPages; i++ {
		out := models.ExtractedPage{Index: i - 1}
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, out)
			continue
		}
		fontNames := page.Fonts()
		fonts := make(map[string]*pdf.Font, len(fontNames))
		for _, name := range fontNames {
			f := page.Font(name)
			fonts[name] = &f
		}
		if text, err := page.GetPlainText(fonts); err == nil {
			out.Text = strings.TrimSpace(text)
		}
		pages = append(pages, out)
	}
	return pages
}

// extractByReaderPlainText extracts the whole document in one pass.
func extractByReaderPlainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// --- readability gate ---

// commonWords that appear in virtually every credit-card statement, across
// the supported locales. Extracted text containing none of them is likely
// garbage from an identity-encoded font.
var commonWords = []string{
	"account", "balance", "date", "payment", "statement", "total",
	"amount", "credit", "transaction", "purchase", "due", "period",
	"card", "page", "interest",
	// Spanish and Portuguese statements
	"tarjeta", "saldo", "pago", "vencimiento", "compras", "fatura", "cartao",
}

// textQuality returns the ratio of plain readable characters to total.
// Strict ASCII plus the statement currency symbols: unicode.IsLetter is too
// broad and matches the accented garbage identity-encoded fonts produce.
func textQuality(text string) float64 {
	total, readable := 0, 0
	for _, r := range text {
		total++
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
			strings.ContainsRune(".,-/:;()'\"%&@#!?+=*", r) ||
			r == '$' || r == '£' || r == '€' ||
			r == 'á' || r == 'é' || r == 'í' || r == 'ó' || r == 'ú' ||
			r == 'ã' || r == 'ç' || r == 'ñ' || r == 'Á' || r == 'É' ||
			r == 'Í' || r == 'Ó' || r == 'Ú' || r == 'Ã' || r == 'Ç' || r == 'Ñ' {
			readable++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// readablePages checks that the pages carry enough text, that the text is
// not binary garbage, and that it contains at least one word a statement
// would plausibly have.
func readablePages(pages []models.ExtractedPage) bool {
	var sb strings.Builder
	for _, p := range pages {
		sb.WriteString(p.Text)
		sb.WriteByte(' ')
		for _, table := range p.Tables {
			for _, row := range table {
				sb.WriteString(strings.Join(row, " "))
				sb.WriteByte(' ')
			}
		}
	}
	text := sb.String()
	if len(strings.TrimSpace(text)) <= 50 {
		return false
	}
	if textQuality(text) <= 0.6 {
		return false
	}
	lower := strings.ToLower(text)
	for _, word := range commonWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
