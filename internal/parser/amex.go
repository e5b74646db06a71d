package parser

import (
	"regexp"
	"strings"

	"github.com/cardlens/statement-converter/internal/models"
)

// AmexParser handles American Express credit-card statement PDFs.
//
// Amex statements list charges as:
//   Date | Description | Reference | Amount
//
// Date format: MMM DD (month name, no year). The reference column is an
// alphanumeric code that not every layout prints. Credits carry a leading
// minus or a CR suffix.
// Example line: "Jan 15 UBER TRIP HELP.UBER.COM AB12CD3E 24.99"
type AmexParser struct{}

func (p *AmexParser) Bank() models.BankType { return models.BankAmex }

func (p *AmexParser) BankName() string { return "American Express" }

// Amex transaction line with a reference column:
// MMM DD  DESCRIPTION  REFERENCE  [$]AMOUNT
var amexTxnRefPattern = regexp.MustCompile(
	`^([A-Za-z]{3}\.?\s+\d{1,2})\s+(.+?)\s+([A-Z0-9]{6,})\s+(-?\$?[\d,]+\.\d{2}(?:\s?CR)?)$`,
)

// Amex transaction line without a reference:
// MMM DD  DESCRIPTION  [$]AMOUNT[CR]
var amexTxnPattern = regexp.MustCompile(
	`^([A-Za-z]{3}\.?\s+\d{1,2})\s+(.+?)\s+(-?\$?[\d,]+\.\d{2}(?:\s?CR)?)$`,
)

// Some Amex layouts print numeric dates for payments.
var amexTxnSlashPattern = regexp.MustCompile(
	`^(\d{1,2}/\d{1,2}(?:/\d{2,4})?)\s+(.+?)\s+(-?\$?[\d,]+\.\d{2}(?:\s?CR)?)$`,
)

// Amex account metadata patterns.
var (
	amexBalancePattern = regexp.MustCompile(`(?i)New\s+Balance:?\s*(-?\$?[\d,]+\.\d{2})`)
	amexDueDatePattern = regexp.MustCompile(`(?i)Payment\s+Due\s+Date:?\s*([A-Za-z]{3}\.?\s+\d{1,2},?\s+\d{4}|\d{1,2}/\d{1,2}/\d{2,4})`)
	amexMinimumPattern = regexp.MustCompile(`(?i)Minimum\s+Payment(?:\s+Due)?:?\s*(\$?[\d,]+\.\d{2})`)
	amexAccountPattern = regexp.MustCompile(`(?i)Account\s+Ending(?:\s+in)?:?\s*[*\-xX\s]*(\d{5})\b`)
	amexClosingPattern = regexp.MustCompile(`(?i)Closing\s+Date:?\s*([A-Za-z]{3}\.?\s+\d{1,2},?\s+\d{4}|\d{1,2}/\d{1,2}/\d{2,4})`)
	amexPeriodPattern  = regexp.MustCompile(`(?i)(?:Statement|Billing)\s+Period:?\s*([^\n]+)`)
	amexHolderPattern  = regexp.MustCompile(`(?i)^Prepared\s+for:?\s*(.+)$`)
)

// Section headers on Amex statements.
var (
	amexCreditsSection = regexp.MustCompile(`(?i)^Payments\s+and\s+Credits`)
	amexChargesSection = regexp.MustCompile(`(?i)^(?:New\s+Charges|Detail|Card\s+Transactions)`)
	amexFeesSection    = regexp.MustCompile(`(?i)^Fees\b`)
)

// amexNoisePatterns are boilerplate lines that are never transactions.
var amexNoisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^American Express`),
	regexp.MustCompile(`(?i)^Membership Rewards`),
	regexp.MustCompile(`(?i)^Account Summary`),
	regexp.MustCompile(`(?i)^Previous Balance`),
	regexp.MustCompile(`(?i)^New Balance`),
	regexp.MustCompile(`(?i)^Minimum Payment`),
	regexp.MustCompile(`(?i)^Payment Due Date`),
	regexp.MustCompile(`(?i)^Customer Care`),
	regexp.MustCompile(`(?i)^Page \d+`),
	regexp.MustCompile(`(?i)^www\.`),
	regexp.MustCompile(`(?i)^americanexpress\.com`),
}

func (p *AmexParser) Parse(pages []models.ExtractedPage) (*Document, error) {
	doc := &Document{}
	doc.Metadata.BankName = p.BankName()

	for _, page := range pages {
		lines := pageLines(page)
		doc.Metadata.Merge(amexMetadata(lines))
		txns, warns := p.parseLines(lines, page.Index+1)
		doc.Transactions = append(doc.Transactions, txns...)
		doc.Warnings = append(doc.Warnings, warns...)
	}
	return doc, nil
}

func (p *AmexParser) parseLines(lines []string, pageNo int) ([]models.RawTransaction, []models.Warning) {
	var txns []models.RawTransaction
	var warns []models.Warning
	var sectionType models.TransactionType
	lastTxnLine := -2

	for i, line := range lines {
		if line == "" {
			continue
		}

		switch {
		case amexCreditsSection.MatchString(line):
			sectionType = models.TypePayment
			continue
		case amexFeesSection.MatchString(line):
			sectionType = models.TypeFee
			continue
		case amexChargesSection.MatchString(line):
			sectionType = ""
			continue
		}

		if matchAny(line, amexNoisePatterns) {
			continue
		}

		if txn, ok := p.matchLine(line); ok {
			txn.Page = pageNo
			txn.Line = i + 1
			txn.Type = sectionType
			txns = append(txns, txn)
			lastTxnLine = i
			continue
		}

		if startsWithDate(line) {
			warns = append(warns, models.NewUnparsableLine(pageNo, i+1))
			continue
		}

		// Amex wraps merchant and city onto the following line.
		if i == lastTxnLine+1 {
			appendContinuation(txns, line)
			lastTxnLine = i
		}
	}
	return txns, warns
}

// matchLine tries the layout patterns most specific first. The reference
// pattern can swallow an all-caps merchant word, so its capture must hold
// at least one digit to count as a reference code, and a month-name date
// only counts when the name is a real month.
func (p *AmexParser) matchLine(line string) (models.RawTransaction, bool) {
	if m := amexTxnRefPattern.FindStringSubmatch(line); m != nil && hasDigit(m[3]) && knownMonth(strings.Fields(m[1])[0]) {
		return models.RawTransaction{
			Bank:        models.BankAmex,
			DateText:    m[1],
			Description: strings.TrimSpace(m[2]),
			Reference:   m[3],
			AmountText:  m[4],
		}, true
	}
	if m := amexTxnPattern.FindStringSubmatch(line); m != nil && knownMonth(strings.Fields(m[1])[0]) {
		return models.RawTransaction{
			Bank:        models.BankAmex,
			DateText:    m[1],
			Description: strings.TrimSpace(m[2]),
			AmountText:  m[3],
		}, true
	}
	if m := amexTxnSlashPattern.FindStringSubmatch(line); m != nil {
		return models.RawTransaction{
			Bank:        models.BankAmex,
			DateText:    m[1],
			Description: strings.TrimSpace(m[2]),
			AmountText:  m[3],
		}, true
	}
	return models.RawTransaction{}, false
}

func amexMetadata(lines []string) models.StatementMetadata {
	return models.StatementMetadata{
		Balance:         firstSubmatch(lines, amexBalancePattern),
		DueDate:         firstSubmatch(lines, amexDueDatePattern),
		MinimumPayment:  firstSubmatch(lines, amexMinimumPattern),
		AccountNumber:   maskAccount(firstSubmatch(lines, amexAccountPattern)),
		NextClosing:     firstSubmatch(lines, amexClosingPattern),
		StatementPeriod: firstSubmatch(lines, amexPeriodPattern),
		AccountHolder:   firstSubmatch(lines, amexHolderPattern),
	}
}
