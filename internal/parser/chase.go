package parser

import (
	"regexp"
	"strings"

	"github.com/cardlens/statement-converter/internal/models"
)

// ChaseParser handles Chase credit-card statement PDFs.
//
// Chase statements list transactions as:
//   Date of Transaction | Merchant Name or Transaction Description | $ Amount
//
// Date format: MM/DD, occasionally MM/DD/YY on older layouts. Credits show
// a leading minus.
// Example line: "01/15 AMAZON.COM*RT4A512 AMZN.COM/BILL WA 84.99"
type ChaseParser struct{}

func (p *ChaseParser) Bank() models.BankType { return models.BankChase }

func (p *ChaseParser) BankName() string { return "Chase" }

// Chase transaction line pattern:
// MM/DD[/YY]  DESCRIPTION  [-][$]AMOUNT
var chaseTxnPattern = regexp.MustCompile(
	`^(\d{1,2}/\d{1,2}(?:/\d{2,4})?)\s+(.+?)\s+(-?\$?-?[\d,]+\.\d{2})$`,
)

// Chase account metadata patterns.
var (
	chaseBalancePattern = regexp.MustCompile(`(?i)New\s+Balance:?\s*(-?\$?[\d,]+\.\d{2})`)
	chaseDueDatePattern = regexp.MustCompile(`(?i)Payment\s+Due\s+Date:?\s*(\d{1,2}/\d{1,2}/\d{2,4})`)
	chaseMinimumPattern = regexp.MustCompile(`(?i)Minimum\s+Payment(?:\s+Due)?:?\s*(\$?[\d,]+\.\d{2})`)
	chaseAccountPattern = regexp.MustCompile(`(?i)Account\s+Number:?\s*[*\-xX\s]*(\d{4})\b`)
	chaseCreditPattern  = regexp.MustCompile(`(?i)Credit\s+(?:Access\s+)?Li(?:ne|mit):?\s*(\$?[\d,]+(?:\.\d{2})?)`)
	chasePeriodPattern  = regexp.MustCompile(`(?i)(?:Opening/Closing\s+Date|Statement\s+Period|Billing\s+Period):?\s*(\d{1,2}/\d{1,2}/\d{2,4}\s*-\s*\d{1,2}/\d{1,2}/\d{2,4})`)
)

// Section headers on Chase statements. Lines inside the payments section
// are credits regardless of wording.
var (
	chasePaymentsSection  = regexp.MustCompile(`(?i)^PAYMENTS\s+AND\s+OTHER\s+CREDITS`)
	chasePurchasesSection = regexp.MustCompile(`(?i)^(?:PURCHASE|PURCHASES)\b`)
	chaseFeesSection      = regexp.MustCompile(`(?i)^FEES\s+CHARGED`)
	chaseInterestSection  = regexp.MustCompile(`(?i)^INTEREST\s+CHARGED`)
)

// chaseNoisePatterns are boilerplate lines that are never transactions.
var chaseNoisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^CHASE\b`),
	regexp.MustCompile(`(?i)^Customer Service`),
	regexp.MustCompile(`(?i)^Account Summary`),
	regexp.MustCompile(`(?i)^Previous Balance`),
	regexp.MustCompile(`(?i)^New Balance`),
	regexp.MustCompile(`(?i)^Minimum Payment`),
	regexp.MustCompile(`(?i)^Payment Due Date`),
	regexp.MustCompile(`(?i)^Page \d+`),
	regexp.MustCompile(`(?i)^www\.`),
	regexp.MustCompile(`(?i)^P\.?O\.? Box`),
}

func (p *ChaseParser) Parse(pages []models.ExtractedPage) (*Document, error) {
	doc := &Document{}
	doc.Metadata.BankName = p.BankName()

	for _, page := range pages {
		lines := pageLines(page)
		doc.Metadata.Merge(chaseMetadata(lines))
		txns, warns := p.parseLines(lines, page.Index+1)
		doc.Transactions = append(doc.Transactions, txns...)
		doc.Warnings = append(doc.Warnings, warns...)
	}
	return doc, nil
}

func (p *ChaseParser) parseLines(lines []string, pageNo int) ([]models.RawTransaction, []models.Warning) {
	var txns []models.RawTransaction
	var warns []models.Warning
	var sectionType models.TransactionType
	lastTxnLine := -2

	for i, line := range lines {
		if line == "" {
			continue
		}

		switch {
		case chasePaymentsSection.MatchString(line):
			sectionType = models.TypePayment
			continue
		case chaseFeesSection.MatchString(line):
			sectionType = models.TypeFee
			continue
		case chaseInterestSection.MatchString(line):
			sectionType = models.TypeInterest
			continue
		case chasePurchasesSection.MatchString(line):
			sectionType = ""
			continue
		}

		if matchAny(line, chaseNoisePatterns) {
			continue
		}

		if m := chaseTxnPattern.FindStringSubmatch(line); m != nil {
			txns = append(txns, models.RawTransaction{
				Bank:        models.BankChase,
				Page:        pageNo,
				Line:        i + 1,
				DateText:    m[1],
				Description: strings.TrimSpace(m[2]),
				AmountText:  m[3],
				Type:        sectionType,
			})
			lastTxnLine = i
			continue
		}

		if startsWithDate(line) {
			// Looked like a transaction but did not match the layout.
			warns = append(warns, models.NewUnparsableLine(pageNo, i+1))
			continue
		}

		// Wrapped descriptions sit directly under their transaction line.
		if i == lastTxnLine+1 {
			appendContinuation(txns, line)
			lastTxnLine = i
		}
	}
	return txns, warns
}

func chaseMetadata(lines []string) models.StatementMetadata {
	return models.StatementMetadata{
		Balance:         firstSubmatch(lines, chaseBalancePattern),
		DueDate:         firstSubmatch(lines, chaseDueDatePattern),
		MinimumPayment:  firstSubmatch(lines, chaseMinimumPattern),
		AccountNumber:   maskAccount(firstSubmatch(lines, chaseAccountPattern)),
		CreditLimit:     firstSubmatch(lines, chaseCreditPattern),
		StatementPeriod: firstSubmatch(lines, chasePeriodPattern),
	}
}
