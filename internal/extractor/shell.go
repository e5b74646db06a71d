package extractor

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/cardlens/statement-converter/internal/models"
)

// extractWithPdftotext shells out to poppler's pdftotext as the last rung of
// the ladder. The document bytes go through a temp file that is removed
// before returning; nothing is kept on disk. Pages extract in parallel, at
// most workers subprocesses at a time.
func extractWithPdftotext(data []byte, workers int) ([]models.ExtractedPage, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	tmp, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("temp file write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	numPages := pdfinfoPageCount(tmp.Name())

	// Extract page by page to preserve boundaries. Each page is an
	// independent subprocess call; a failed page stays empty rather than
	// sinking the document.
	pages := make([]models.ExtractedPage, numPages)
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 1; i <= numPages; i++ {
		i := i
		g.Go(func() error {
			p := strconv.Itoa(i)
			pages[i-1] = models.ExtractedPage{Index: i - 1}
			out, err := exec.Command("pdftotext", "-layout", "-f", p, "-l", p, tmp.Name(), "-").Output()
			if err == nil {
				pages[i-1].Text = strings.TrimSpace(string(out))
			}
			return nil
		})
	}
	g.Wait()

	empty := true
	for _, p := range pages {
		if p.Text != "" {
			empty = false
			break
		}
	}
	if empty {
		// Per-page extraction got nothing; retry the document in one call,
		// losing page boundaries but salvaging the text.
		out, err := exec.Command("pdftotext", "-layout", tmp.Name(), "-").Output()
		if err != nil {
			return nil, fmt.Errorf("pdftotext failed: %w", err)
		}
		text := strings.TrimSpace(string(out))
		if text == "" {
			return nil, fmt.Errorf("pdftotext produced no output")
		}
		pages = []models.ExtractedPage{{Index: 0, Text: text}}
	}
	return pages, nil
}

// pdfinfoPageCount asks pdfinfo for the page count, returning 1 when it
// cannot tell so at least the first page gets extracted.
func pdfinfoPageCount(path string) int {
	out, err := exec.Command("pdfinfo", path).Output()
	if err != nil {
		return 1
	}
	for _, line := range strings.Split(string(out), "\n") {
		if strings.HasPrefix(line, "Pages:") {
			if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:"))); err == nil && n > 0 {
				return n
			}
		}
	}
	return 1
}
