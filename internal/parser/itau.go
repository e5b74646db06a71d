package parser

import (
	"regexp"
	"strings"

	"github.com/cardlens/statement-converter/internal/models"
)

// ItauParser handles Itaú (Brazil) credit-card fatura PDFs, printed in
// Portuguese.
//
// Charges sit in lançamentos sections:
//   Data | Estabelecimento | Valor
//
// Date format: DD/MM without a year. Amounts use the 1.234,56 grouping;
// payments and refunds carry a leading minus.
// Example line: "15/01 PADARIA STELLA SAO PAULO 38,90"
type ItauParser struct{}

func (p *ItauParser) Bank() models.BankType { return models.BankItau }

func (p *ItauParser) BankName() string { return "Itaú" }

// Itaú transaction line pattern:
// DD/MM  ESTABELECIMENTO  [-][R$]VALOR
var itauTxnPattern = regexp.MustCompile(
	`^(\d{2}/\d{2})\s+(.+?)\s+(-?(?:R\$\s?)?-?[\d.]+,\d{2}-?)$`,
)

// Section markers. Date-led lines also open the section, because shorter
// faturas print charges right under the header block.
var (
	itauSectionStart   = regexp.MustCompile(`(?i)lan[çc]amentos|compras\s+parceladas`)
	itauSectionEnd     = regexp.MustCompile(`(?i)total\s+(?:d[ao]s?\s+)?(?:fatura|lan[çc]amentos)|resumo\s+da\s+fatura`)
	itauPaymentSection = regexp.MustCompile(`(?i)^pagamentos\s+efetuados`)
)

// Statement metadata patterns.
var (
	itauDueDatePattern   = regexp.MustCompile(`(?i)Vencimento:?\s*(\d{2}/\d{2}/\d{2,4})`)
	itauBalancePattern   = regexp.MustCompile(`(?i)(?:Total\s+(?:desta\s+|da\s+)?fatura|Valor\s+total):?\s*(R\$\s?-?[\d.,]+)`)
	itauMinimumPattern   = regexp.MustCompile(`(?i)Pagamento\s+m[íi]nimo:?\s*(R\$\s?[\d.,]+)`)
	itauLimitPattern     = regexp.MustCompile(`(?i)Limite\s+(?:total\s+)?(?:de\s+)?cr[ée]dito:?\s*(R\$\s?[\d.,]+)`)
	itauAvailablePattern = regexp.MustCompile(`(?i)Limite\s+dispon[íi]vel:?\s*(R\$\s?[\d.,]+)`)
	itauClosingPattern   = regexp.MustCompile(`(?i)(?:Pr[óo]ximo\s+fechamento|Fechamento\s+da\s+pr[óo]xima\s+fatura):?\s*(\d{2}/\d{2}/\d{2,4})`)
	itauPeriodPattern    = regexp.MustCompile(`(?i)Per[íi]odo:?\s*(\d{2}/\d{2}(?:/\d{2,4})?\s*a\s*\d{2}/\d{2}(?:/\d{2,4})?)`)
	itauAccountPattern   = regexp.MustCompile(`(?i)(?:cart[ãa]o|final)\s+.*?(\d{4})\b`)
)

// itauNoisePatterns are boilerplate lines that are never transactions.
var itauNoisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^ita[úu]\b`),
	regexp.MustCompile(`(?i)^central de atendimento`),
	regexp.MustCompile(`(?i)^sac\b`),
	regexp.MustCompile(`(?i)^p[áa]gina \d+`),
	regexp.MustCompile(`(?i)^www\.`),
	regexp.MustCompile(`(?i)^itau\.com`),
}

func (p *ItauParser) Parse(pages []models.ExtractedPage) (*Document, error) {
	doc := &Document{}
	doc.Metadata.BankName = p.BankName()

	for _, page := range pages {
		lines := pageLines(page)
		doc.Metadata.Merge(itauMetadata(lines))
		txns, warns := p.parseLines(lines, page.Index+1)
		doc.Transactions = append(doc.Transactions, txns...)
		doc.Warnings = append(doc.Warnings, warns...)
	}
	return doc, nil
}

func (p *ItauParser) parseLines(lines []string, pageNo int) ([]models.RawTransaction, []models.Warning) {
	var txns []models.RawTransaction
	var warns []models.Warning
	inSection := false
	var sectionType models.TransactionType

	for i, line := range lines {
		if line == "" {
			continue
		}

		if itauPaymentSection.MatchString(line) {
			inSection = true
			sectionType = models.TypePayment
			continue
		}
		if itauSectionEnd.MatchString(line) {
			inSection = false
			sectionType = ""
			continue
		}
		if itauSectionStart.MatchString(line) {
			inSection = true
			sectionType = ""
			continue
		}
		if matchAny(line, itauNoisePatterns) {
			continue
		}

		if startsWithDate(line) {
			inSection = true
		}
		if !inSection {
			continue
		}

		if m := itauTxnPattern.FindStringSubmatch(line); m != nil {
			txns = append(txns, models.RawTransaction{
				Bank:         models.BankItau,
				Page:         pageNo,
				Line:         i + 1,
				DateText:     m[1],
				Description:  strings.TrimSpace(m[2]),
				AmountText:   m[3],
				Type:         sectionType,
				DayFirst:     true,
				DecimalComma: true,
			})
			continue
		}

		if startsWithDate(line) {
			warns = append(warns, models.NewUnparsableLine(pageNo, i+1))
		}
	}
	return txns, warns
}

func itauMetadata(lines []string) models.StatementMetadata {
	return models.StatementMetadata{
		DueDate:         firstSubmatch(lines, itauDueDatePattern),
		Balance:         firstSubmatch(lines, itauBalancePattern),
		MinimumPayment:  firstSubmatch(lines, itauMinimumPattern),
		CreditLimit:     firstSubmatch(lines, itauLimitPattern),
		AvailableCredit: firstSubmatch(lines, itauAvailablePattern),
		NextClosing:     firstSubmatch(lines, itauClosingPattern),
		StatementPeriod: firstSubmatch(lines, itauPeriodPattern),
		AccountNumber:   maskAccount(firstSubmatch(lines, itauAccountPattern)),
	}
}
