// Package normalize turns matcher candidates into the canonical transaction
// schema: parsed dates, signed decimal amounts, cleaned merchant names,
// categories, and duplicate removal. Records that cannot be normalized are
// dropped with a warning, never silently.
package normalize

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cardlens/statement-converter/internal/categorize"
	"github.com/cardlens/statement-converter/internal/models"
	"github.com/cardlens/statement-converter/internal/rules"
)

// periodSlack pads the statement window before a date is flagged as outside
// it. Issuers post trailing interest and returns a few days past closing.
const periodSlack = 5 * 24 * time.Hour

// yearWrapSlack is how far past the period end a yearless date may land
// before it is assumed to belong to the previous year. December purchases on
// a January statement are the usual case.
const yearWrapSlack = 31 * 24 * time.Hour

var (
	spaceRun    = regexp.MustCompile(`\s+`)
	controlRuns = regexp.MustCompile(`[\x00-\x1f\x7f]+`)
)

// typeRules map description keywords to a transaction type. Checked in
// order, most specific class first, so "CARGO POR PAGO TARDIO" lands on Fee
// before the payment keywords see it.
var typeRules = []struct {
	t        models.TransactionType
	keywords []string
}{
	{models.TypeRefund, []string{"devolucion", "nota credito", "nota de credito", "estorno", "refund", "reversal"}},
	{models.TypeInterest, []string{"interes", "interest", "financiacion", "finance charge", "encargos"}},
	{models.TypeFee, []string{"comision", "cargo", "fee", "anual", "annual membership", "mantenimiento", "anuidade", "service charge"}},
	{models.TypeOther, []string{"adelanto", "cash advance", "atm", "cajero", "saque", "withdrawal"}},
	{models.TypePayment, []string{"pago", "payment", "pagamento", "acreditacion", "thank you"}},
}

// Normalizer applies the canonicalization pass. Safe for concurrent use.
type Normalizer struct {
	log    *zap.Logger
	engine *categorize.Engine
}

// New builds a Normalizer backed by the shared categorization engine.
func New(log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{log: log, engine: categorize.Shared()}
}

// Normalize converts raw candidates into canonical transactions, in input
// order. bank selects locale conventions for the period text, year anchors
// dates whose text carries none, and metadata comes back with the period
// window parsed and the final transaction count filled in.
func (n *Normalizer) Normalize(bank models.BankType, raws []models.RawTransaction, meta models.StatementMetadata, year int) ([]models.Transaction, models.StatementMetadata, []models.Warning) {
	var warnings []models.Warning

	n.resolvePeriod(bank, raws, &meta, year)
	if !meta.PeriodEnd.IsZero() {
		year = meta.PeriodEnd.Year()
	}

	txns := make([]models.Transaction, 0, len(raws))
	seen := make(map[string]bool, len(raws))
	duplicates := 0

	for _, raw := range raws {
		txn, warn, ok := n.one(raw, meta, year)
		if !ok {
			warnings = append(warnings, warn...)
			continue
		}
		warnings = append(warnings, warn...)

		key := dedupKey(txn)
		if seen[key] {
			duplicates++
			n.log.Debug("duplicate transaction removed",
				zap.String("description", txn.Description),
				zap.Int("page", txn.Page), zap.Int("line", txn.Line))
			continue
		}
		seen[key] = true
		txns = append(txns, txn)
	}

	if duplicates > 0 {
		warnings = append(warnings, models.NewDuplicateRemoved(duplicates))
	}
	meta.TotalTransactions = len(txns)
	return txns, meta, warnings
}

func (n *Normalizer) one(raw models.RawTransaction, meta models.StatementMetadata, year int) (models.Transaction, []models.Warning, bool) {
	var warns []models.Warning

	date, err := ParseDate(raw.DateText, raw.DayFirst, year)
	if err != nil {
		warns = append(warns, models.NewInvalidDate(raw.Page, raw.Line, raw.DateText))
		return models.Transaction{}, warns, false
	}
	if !meta.PeriodEnd.IsZero() && !HasYear(raw.DateText) && date.After(meta.PeriodEnd.Add(yearWrapSlack)) {
		date = date.AddDate(-1, 0, 0)
	}

	amount, explicitSign, err := ParseAmount(raw.AmountText, raw.DecimalComma)
	if err != nil {
		warns = append(warns, models.NewUnparsableLine(raw.Page, raw.Line))
		return models.Transaction{}, warns, false
	}

	desc := CleanDescription(raw.Description)
	if desc == "" {
		warns = append(warns, models.NewUnparsableLine(raw.Page, raw.Line))
		return models.Transaction{}, warns, false
	}

	txnType := raw.Type
	if txnType == "" {
		txnType = inferType(desc)
	}
	if !explicitSign {
		amount = amount.Abs()
		if !txnType.Credit() {
			amount = amount.Neg()
		}
	}

	desc = categorize.Canonical(desc)
	category := raw.Category
	if category == "" {
		category = n.engine.Match(desc)
	}

	txn := models.Transaction{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Currency:    rules.CurrencyFor(raw.Bank),
		Type:        txnType,
		Category:    category,
		Reference:   strings.TrimSpace(raw.Reference),
		Page:        raw.Page,
		Line:        raw.Line,
	}

	if raw.PostingText != "" {
		if posted, err := ParseDate(raw.PostingText, raw.DayFirst, year); err == nil {
			txn.PostingDate = posted
		}
	}

	if !meta.PeriodStart.IsZero() && !meta.PeriodEnd.IsZero() {
		if date.Before(meta.PeriodStart.Add(-periodSlack)) || date.After(meta.PeriodEnd.Add(periodSlack)) {
			txn.OutOfPeriod = true
			warns = append(warns, models.NewOutOfPeriod(raw.Page, raw.Line, date.Format("2006-01-02")))
		}
	}

	return txn, warns, true
}

// resolvePeriod parses the window out of the display period text when the
// matcher did not parse it already. The bank's locale decides the field
// order; for inferred banks the matcher's per-record hint stands in.
func (n *Normalizer) resolvePeriod(bank models.BankType, raws []models.RawTransaction, meta *models.StatementMetadata, year int) {
	if !meta.PeriodStart.IsZero() && !meta.PeriodEnd.IsZero() {
		return
	}
	if strings.TrimSpace(meta.StatementPeriod) == "" {
		return
	}
	dayFirst := false
	if b, ok := rules.BankByID(bank); ok {
		dayFirst = b.DayFirst()
	} else if len(raws) > 0 {
		dayFirst = raws[0].DayFirst
	}
	start, end, ok := ParsePeriod(meta.StatementPeriod, dayFirst, year)
	if !ok {
		n.log.Debug("statement period not parseable", zap.String("period", meta.StatementPeriod))
		return
	}
	meta.PeriodStart, meta.PeriodEnd = start, end
}

var periodSeparators = []string{" - ", " – ", " al ", " a ", " to ", " through ", "-"}

// ParsePeriod splits period text like "01/05/2024 - 31/05/2024" into its two
// dates. Both halves must parse for the window to count.
func ParsePeriod(text string, dayFirst bool, year int) (time.Time, time.Time, bool) {
	s := strings.TrimSpace(text)
	for _, sep := range periodSeparators {
		parts := strings.SplitN(s, sep, 2)
		if len(parts) != 2 {
			continue
		}
		start, err1 := ParseDate(strings.TrimSpace(parts[0]), dayFirst, year)
		end, err2 := ParseDate(strings.TrimSpace(parts[1]), dayFirst, year)
		if err1 == nil && err2 == nil && !end.Before(start) {
			return start, end, true
		}
	}
	return time.Time{}, time.Time{}, false
}

// CleanDescription collapses whitespace and strips control characters and
// stray separators left over from column splitting.
func CleanDescription(s string) string {
	s = controlRuns.ReplaceAllString(s, " ")
	s = spaceRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*|")
	return strings.TrimSpace(s)
}

func inferType(desc string) models.TransactionType {
	folded := rules.Fold(desc)
	for _, rule := range typeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(folded, kw) {
				return rule.t
			}
		}
	}
	return models.TypePurchase
}

func dedupKey(t models.Transaction) string {
	return t.Date.Format("2006-01-02") + "|" + t.Amount.StringFixed(2) + "|" + rules.Fold(t.Description)
}
