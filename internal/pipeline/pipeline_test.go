package pipeline

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/cardlens/statement-converter/internal/models"
)

// stubExtractor returns canned pages so tests can drive the pipeline without
// composing real PDFs.
type stubExtractor struct {
	calls int
	pages []models.ExtractedPage
	err   error
}

func (s *stubExtractor) Extract(data []byte) ([]models.ExtractedPage, error) {
	s.calls++
	return s.pages, s.err
}

// gateExtractor blocks inside Extract until released, for the concurrency
// and timeout tests.
type gateExtractor struct {
	started chan struct{}
	release chan struct{}
}

func (g *gateExtractor) Extract(data []byte) ([]models.ExtractedPage, error) {
	close(g.started)
	<-g.release
	return nil, nil
}

func textPages(texts ...string) []models.ExtractedPage {
	pages := make([]models.ExtractedPage, len(texts))
	for i, t := range texts {
		pages[i] = models.ExtractedPage{Index: i, Text: t}
	}
	return pages
}

func firstError(t *testing.T, res *models.ConversionResult) string {
	t.Helper()
	if len(res.Errors) == 0 {
		t.Fatal("result has no errors")
	}
	return res.Errors[0]
}

func TestConvert_SizeLimitBeforeExtraction(t *testing.T) {
	c := New(Options{MaxFileSizeBytes: 10}, nil)
	stub := &stubExtractor{}
	c.extract = stub

	res := c.Convert(context.Background(), make([]byte, 11), "big.pdf")

	if res.Success {
		t.Error("oversized file converted successfully")
	}
	if res.Data != nil {
		t.Error("fatal failure carried partial data")
	}
	if got := firstError(t, res); !strings.HasPrefix(got, "FILE_TOO_LARGE:") {
		t.Errorf("error: got %q, want FILE_TOO_LARGE", got)
	}
	if res.Code != models.CodeFileTooLarge {
		t.Errorf("code: got %q, want %q", res.Code, models.CodeFileTooLarge)
	}
	if stub.calls != 0 {
		t.Errorf("extractor ran %d time(s) before the size gate", stub.calls)
	}
}

func TestConvert_NotAPDF(t *testing.T) {
	c := New(Options{}, nil)

	res := c.Convert(context.Background(), []byte("hello, not a pdf"), "x.pdf")

	if res.Success {
		t.Error("garbage input converted successfully")
	}
	if res.Data != nil {
		t.Error("fatal failure carried partial data")
	}
	if got := firstError(t, res); !strings.HasPrefix(got, "CORRUPT_OR_IMAGE_PDF:") {
		t.Errorf("error: got %q, want CORRUPT_OR_IMAGE_PDF", got)
	}
}

func TestConvert_ItauStatement(t *testing.T) {
	c := New(Options{}, nil)
	c.extract = &stubExtractor{pages: textPages(
		`ITAÚ UNIBANCO S.A.
Fatura do cartão de crédito
Vencimento: 10/02/2024`,
		`Lançamentos
15/01 PADARIA STELLA SAO PAULO 38,90
16/01 POSTO IPIRANGA COMBUSTIVEL 120,00
17/01 LINHA INVALIDA 99,9`,
	)}

	res := c.Convert(context.Background(), []byte("%PDF-stub"), "fatura.pdf")

	if !res.Success {
		t.Fatalf("conversion failed: %v", res.Errors)
	}
	if res.Bank != models.BankItau {
		t.Errorf("bank: got %q, want %q", res.Bank, models.BankItau)
	}
	if res.Message != "PDF processed successfully" {
		t.Errorf("message: got %q", res.Message)
	}
	if res.Data == nil {
		t.Fatal("no data")
	}
	if len(res.Data.Rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(res.Data.Rows))
	}

	want := []string{"2024-01-15", "PADARIA STELLA SAO PAULO", "-38.90", "Purchase", "", ""}
	if !reflect.DeepEqual(res.Data.Rows[0], want) {
		t.Errorf("row[0]:\n got %q\nwant %q", res.Data.Rows[0], want)
	}

	meta := res.Data.Metadata
	if meta.BankName != "Itaú" {
		t.Errorf("bank name: got %q, want %q", meta.BankName, "Itaú")
	}
	if meta.DueDate != "10/02/2024" {
		t.Errorf("due date: got %q, want %q", meta.DueDate, "10/02/2024")
	}
	if meta.TotalTransactions != 2 {
		t.Errorf("total: got %d, want 2", meta.TotalTransactions)
	}

	if len(res.Warnings) != 1 {
		t.Fatalf("warnings: got %d, want 1: %v", len(res.Warnings), res.Errors)
	}
	w := res.Warnings[0]
	if w.Code != models.CodeUnparsableLine {
		t.Errorf("warning code: got %q, want %q", w.Code, models.CodeUnparsableLine)
	}
	if w.Page != 2 || w.Line != 4 {
		t.Errorf("warning position: got page %d line %d, want page 2 line 4", w.Page, w.Line)
	}
}

func TestConvert_Idempotent(t *testing.T) {
	pages := textPages(
		`ITAÚ UNIBANCO Fatura Vencimento: 10/02/2024`,
		`Lançamentos
15/01 PADARIA STELLA 38,90
16/01 POSTO IPIRANGA 120,00`,
	)

	c := New(Options{}, nil)
	c.extract = &stubExtractor{pages: pages}
	first := c.Convert(context.Background(), []byte("%PDF-stub"), "a.pdf")

	c.extract = &stubExtractor{pages: pages}
	second := c.Convert(context.Background(), []byte("%PDF-stub"), "a.pdf")

	if first.Data == nil || second.Data == nil {
		t.Fatal("missing data")
	}
	if !reflect.DeepEqual(first.Data.Rows, second.Data.Rows) {
		t.Errorf("rows differ between runs:\n first %q\nsecond %q", first.Data.Rows, second.Data.Rows)
	}
}

func TestConvert_NoTransactionsIsUnsupportedBank(t *testing.T) {
	c := New(Options{}, nil)
	c.extract = &stubExtractor{pages: textPages(
		`Dear customer, this letter confirms your address change.
Thank you for banking with us.`,
	)}

	res := c.Convert(context.Background(), []byte("%PDF-stub"), "letter.pdf")

	if res.Success {
		t.Error("unrecognizable document converted successfully")
	}
	if got := firstError(t, res); !strings.HasPrefix(got, "UNSUPPORTED_BANK:") {
		t.Errorf("error: got %q, want UNSUPPORTED_BANK", got)
	}
	if res.Code != models.CodeUnsupportedBank {
		t.Errorf("code: got %q, want %q", res.Code, models.CodeUnsupportedBank)
	}
	if res.Data == nil {
		t.Fatal("unsupported-bank result should still carry data")
	}
	if len(res.Data.Rows) != 0 {
		t.Errorf("rows: got %d, want 0", len(res.Data.Rows))
	}
	if res.Partial() {
		t.Error("zero-row result reported as partial")
	}
}

func TestConvert_MostlyUnreadableIsPartial(t *testing.T) {
	var b strings.Builder
	b.WriteString("Account statement 2024\n")
	b.WriteString("01/15 GOOD STORE 10.00\n")
	for i := 0; i < 10; i++ {
		b.WriteString("01/16 BROKEN LINE WITHOUT AMOUNT\n")
	}

	c := New(Options{}, nil)
	c.extract = &stubExtractor{pages: textPages(b.String())}

	res := c.Convert(context.Background(), []byte("%PDF-stub"), "noisy.pdf")

	if res.Success {
		t.Error("mostly unreadable document converted successfully")
	}
	if got := firstError(t, res); !strings.HasPrefix(got, "EXTRACTION_PARTIAL:") {
		t.Errorf("error: got %q, want EXTRACTION_PARTIAL", got)
	}
	if res.Data == nil || len(res.Data.Rows) != 1 {
		t.Fatalf("partial result should keep the one parsed row, got %+v", res.Data)
	}
	if !res.Partial() {
		t.Error("Partial() = false for a partial result")
	}
}

func TestConvert_ServerBusy(t *testing.T) {
	c := New(Options{MaxConcurrent: 1, QueueTimeout: 50 * time.Millisecond}, nil)
	gate := &gateExtractor{started: make(chan struct{}), release: make(chan struct{})}
	c.extract = gate

	first := make(chan *models.ConversionResult, 1)
	go func() { first <- c.Convert(context.Background(), []byte("%PDF-stub"), "a.pdf") }()
	<-gate.started

	res := c.Convert(context.Background(), []byte("%PDF-stub"), "b.pdf")

	if got := firstError(t, res); !strings.HasPrefix(got, "SERVER_BUSY:") {
		t.Errorf("error: got %q, want SERVER_BUSY", got)
	}
	if res.Data != nil {
		t.Error("busy rejection carried data")
	}

	close(gate.release)
	<-first
}

func TestConvert_Timeout(t *testing.T) {
	c := New(Options{Timeout: 50 * time.Millisecond}, nil)
	gate := &gateExtractor{started: make(chan struct{}), release: make(chan struct{})}
	c.extract = gate
	defer close(gate.release)

	res := c.Convert(context.Background(), []byte("%PDF-stub"), "slow.pdf")

	if got := firstError(t, res); !strings.HasPrefix(got, "PARSING_TIMEOUT:") {
		t.Errorf("error: got %q, want PARSING_TIMEOUT", got)
	}
	if res.Data != nil {
		t.Error("timeout carried partial data")
	}
}
