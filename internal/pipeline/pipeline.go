// Package pipeline sequences one conversion end to end: extraction, bank
// classification, transaction matching, and normalization, folded into a
// ConversionResult. A process-wide semaphore bounds how many conversions run
// at once; each run is bounded by a wall-clock timeout.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/cardlens/statement-converter/internal/classifier"
	"github.com/cardlens/statement-converter/internal/config"
	"github.com/cardlens/statement-converter/internal/extractor"
	"github.com/cardlens/statement-converter/internal/models"
	"github.com/cardlens/statement-converter/internal/normalize"
	"github.com/cardlens/statement-converter/internal/parser"
)

// Options are the conversion knobs. Zero fields take their defaults, so the
// zero Options value is usable.
type Options struct {
	MaxFileSizeBytes        int64
	MaxPages                int
	ConfidenceThreshold     int
	MinParseSuccessFraction float64
	Timeout                 time.Duration
	MaxConcurrent           int
	QueueTimeout            time.Duration
	PageWorkers             int
}

// DefaultOptions returns the stock limits.
func DefaultOptions() Options {
	return Options{
		MaxFileSizeBytes:        config.DefaultMaxFileSizeBytes,
		MaxPages:                config.DefaultMaxPages,
		ConfidenceThreshold:     config.DefaultConfidenceThreshold,
		MinParseSuccessFraction: config.DefaultMinParseSuccessFraction,
		Timeout:                 config.DefaultTimeout,
		MaxConcurrent:           config.DefaultMaxConcurrent,
		QueueTimeout:            config.DefaultQueueTimeout,
		PageWorkers:             config.DefaultPageWorkers,
	}
}

// FromConfig copies the pipeline knobs out of the runtime configuration.
func FromConfig(cfg *config.Config) Options {
	return Options{
		MaxFileSizeBytes:        cfg.MaxFileSizeBytes,
		MaxPages:                cfg.MaxPages,
		ConfidenceThreshold:     cfg.ConfidenceThreshold,
		MinParseSuccessFraction: cfg.MinParseSuccessFraction,
		Timeout:                 cfg.Timeout,
		MaxConcurrent:           cfg.MaxConcurrent,
		QueueTimeout:            cfg.QueueTimeout,
		PageWorkers:             cfg.PageWorkers,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxFileSizeBytes <= 0 {
		o.MaxFileSizeBytes = def.MaxFileSizeBytes
	}
	if o.MaxPages <= 0 {
		o.MaxPages = def.MaxPages
	}
	if o.ConfidenceThreshold <= 0 {
		o.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if o.MinParseSuccessFraction <= 0 || o.MinParseSuccessFraction > 1 {
		o.MinParseSuccessFraction = def.MinParseSuccessFraction
	}
	if o.Timeout <= 0 {
		o.Timeout = def.Timeout
	}
	if o.MaxConcurrent < 1 {
		o.MaxConcurrent = def.MaxConcurrent
	}
	if o.QueueTimeout <= 0 {
		o.QueueTimeout = def.QueueTimeout
	}
	if o.PageWorkers < 1 {
		o.PageWorkers = def.PageWorkers
	}
	return o
}

// pageExtractor is the slice of the extractor the pipeline calls. Tests
// substitute a canned implementation.
type pageExtractor interface {
	Extract(data []byte) ([]models.ExtractedPage, error)
}

// Converter runs conversions. It is safe for concurrent use: MaxConcurrent
// bounds how many Convert calls make progress at once, the rest queue up to
// QueueTimeout and then fail ServerBusy.
type Converter struct {
	opts    Options
	log     *zap.Logger
	extract pageExtractor
	norm    *normalize.Normalizer
	sem     *semaphore.Weighted
}

// New builds a Converter.
func New(opts Options, log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	opts = opts.withDefaults()
	return &Converter{
		opts:    opts,
		log:     log,
		extract: extractor.New(opts.MaxFileSizeBytes, opts.MaxPages, opts.PageWorkers, log),
		norm:    normalize.New(log),
		sem:     semaphore.NewWeighted(int64(opts.MaxConcurrent)),
	}
}

// Convert turns statement PDF bytes into the structured result. It never
// returns a Go error: every failure mode is folded into the result with its
// machine code. ctx bounds queueing only; once running, a conversion goes to
// completion or to the wall-clock timeout, after which its late result is
// dropped.
func (c *Converter) Convert(ctx context.Context, data []byte, filename string) *models.ConversionResult {
	log := c.log.With(
		zap.String("conversion_id", uuid.NewString()),
		zap.String("filename", filename),
	)

	acquireCtx, cancel := context.WithTimeout(ctx, c.opts.QueueTimeout)
	defer cancel()
	if err := c.sem.Acquire(acquireCtx, 1); err != nil {
		log.Warn("conversion queue full", zap.Error(err))
		return fatalResult(models.NewError(models.CodeServerBusy))
	}

	start := time.Now()
	done := make(chan *models.ConversionResult, 1)
	go func() {
		// The permit is held until the work truly ends, even when the
		// timeout path below has already answered the caller.
		defer c.sem.Release(1)
		done <- c.run(log, data)
	}()

	timer := time.NewTimer(c.opts.Timeout)
	defer timer.Stop()
	select {
	case res := <-done:
		log.Info("conversion finished",
			zap.Bool("success", res.Success),
			zap.String("bank", string(res.Bank)),
			zap.Int("rows", resultRows(res)),
			zap.Duration("elapsed", time.Since(start)))
		return res
	case <-timer.C:
		log.Warn("conversion timed out", zap.Duration("limit", c.opts.Timeout))
		return fatalResult(models.NewError(models.CodeParsingTimeout))
	}
}

func (c *Converter) run(log *zap.Logger, data []byte) *models.ConversionResult {
	// The size gate runs before any extraction work touches the bytes.
	if int64(len(data)) > c.opts.MaxFileSizeBytes {
		log.Warn("file over size limit",
			zap.Int("bytes", len(data)), zap.Int64("limit", c.opts.MaxFileSizeBytes))
		return fatalResult(models.Errorf(models.CodeFileTooLarge,
			"file is %d bytes, limit is %d", len(data), c.opts.MaxFileSizeBytes))
	}

	pages, err := c.extract.Extract(data)
	if err != nil {
		log.Warn("extraction failed", zap.Error(err))
		return fatalResult(err)
	}
	log.Debug("pages extracted", zap.Int("pages", len(pages)))

	det := classifier.Detect(pages, c.opts.ConfidenceThreshold)
	log.Info("bank detected",
		zap.String("bank", string(det.Bank)),
		zap.Int("confidence", det.Confidence),
		zap.Bool("low_confidence", det.LowConfidence))

	doc, err := parser.New(det.Bank).Parse(pages)
	if err != nil {
		log.Warn("matcher failed", zap.String("bank", string(det.Bank)), zap.Error(err))
		return fatalResult(models.WrapError(models.CodeCorruptOrImagePDF, err))
	}

	year := normalize.DetectYear(pagesText(pages))
	txns, meta, normWarns := c.norm.Normalize(det.Bank, doc.Transactions, doc.Metadata, year)

	res := &models.ConversionResult{Bank: det.Bank, Data: buildData(txns, meta)}

	if failure := c.verdict(doc, txns); failure != nil {
		res.Code = failure.Code
		res.Message = failure.Message
		res.Errors = append(res.Errors, string(failure.Code)+": "+failure.Message)
	} else {
		res.Success = true
		res.Message = "PDF processed successfully"
	}

	if det.LowConfidence && len(det.Candidates) > 0 {
		res.AddWarning(models.NewLowConfidence(det.Candidates[0].Bank, det.Candidates[0].Confidence))
	}
	for _, w := range doc.Warnings {
		res.AddWarning(w)
	}
	for _, w := range normWarns {
		res.AddWarning(w)
	}
	return res
}

// verdict decides whether the matched document counts as a failure even
// though the pipeline ran to the end. Zero surviving transactions means the
// format was not recognized; too small a parsed fraction of the
// transaction-like lines means the document is only partially readable.
func (c *Converter) verdict(doc *parser.Document, txns []models.Transaction) *models.ConversionError {
	if len(txns) == 0 {
		return models.NewError(models.CodeUnsupportedBank)
	}

	unparsable := 0
	for _, w := range doc.Warnings {
		if w.Code == models.CodeUnparsableLine {
			unparsable++
		}
	}
	attempted := len(doc.Transactions) + unparsable
	if attempted == 0 {
		return nil
	}
	fraction := float64(len(doc.Transactions)) / float64(attempted)
	if fraction < c.opts.MinParseSuccessFraction {
		return models.Errorf(models.CodeExtractionPartial,
			"only %d of %d transaction-like lines parsed", len(doc.Transactions), attempted)
	}
	return nil
}

// buildData renders normalized transactions into the wire table. Dates are
// ISO, amounts carry exactly two decimals.
func buildData(txns []models.Transaction, meta models.StatementMetadata) *models.ResultData {
	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, []string{
			t.Date.Format("2006-01-02"),
			t.Description,
			t.Amount.StringFixed(2),
			string(t.Type),
			t.Category,
			t.Reference,
		})
	}
	return &models.ResultData{
		Headers: append([]string(nil), models.Headers...),
		Rows:    rows,
		Metadata: models.ResultMetadata{
			TotalTransactions: meta.TotalTransactions,
			StatementPeriod:   meta.StatementPeriod,
			DueDate:           meta.DueDate,
			NextClosing:       meta.NextClosing,
			Balance:           meta.Balance,
			BankName:          meta.BankName,
		},
	}
}

// fatalResult folds a fatal error into the wire shape: no data, the code's
// message, one machine-readable error entry. Underlying causes stay in the
// logs and never reach the caller.
func fatalResult(err error) *models.ConversionResult {
	var ce *models.ConversionError
	if !errors.As(err, &ce) {
		ce = models.WrapError(models.CodeCorruptOrImagePDF, err)
	}
	return &models.ConversionResult{
		Success: false,
		Message: ce.Message,
		Code:    ce.Code,
		Errors:  []string{string(ce.Code) + ": " + ce.Message},
	}
}

func pagesText(pages []models.ExtractedPage) string {
	var sb strings.Builder
	for _, p := range pages {
		for _, line := range p.Lines() {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func resultRows(res *models.ConversionResult) int {
	if res.Data == nil {
		return 0
	}
	return len(res.Data.Rows)
}
