package parser

import (
	"regexp"
	"strings"

	"github.com/cardlens/statement-converter/internal/models"
)

// BancoNacionParser handles Banco Nación (Argentina) Mastercard statement
// PDFs, printed in Spanish.
//
// Transactions sit in a COMPRAS DEL MES section:
//   Fecha | Descripción | Comprobante | Importe
//
// Date format: DD-mmm.-YY with Spanish month abbreviations. Amounts use
// the 123.456,78 grouping. The comprobante is a five digit voucher number.
// Example line: "02-ene.-24 MERCADOLIBRE*TECNOLOGIA 84521 15.750,00"
type BancoNacionParser struct{}

func (p *BancoNacionParser) Bank() models.BankType { return models.BankBancoNacion }

func (p *BancoNacionParser) BankName() string { return "Banco Nación" }

// Banco Nación transaction line pattern:
// DD-mmm.-YY  DESCRIPCION  COMPROBANTE  IMPORTE
var bancoNacionTxnPattern = regexp.MustCompile(
	`^(\d{2}-[A-Za-zÀ-ÿ]{3,4}\.?-\d{2})\s+(.+?)\s+(\d{5})\s+(-?[\d.]+,\d{2}-?)$`,
)

// Transaction section markers.
var (
	bancoNacionSectionStart = regexp.MustCompile(`(?i)COMPRAS\s+DEL\s+MES`)
	bancoNacionSectionEnd   = regexp.MustCompile(`(?i)(?:TOTAL\s+COMPRAS|RESUMEN\s+DE\s+CUENTA|DETALLE\s+DE\s+PAGOS)`)
)

// Statement metadata patterns. The statements print both accented and
// unaccented variants depending on the PDF font, so the vowels are classes.
var (
	bancoNacionHolderPattern  = regexp.MustCompile(`(?i)Titular:?\s*(.+?)(?:\s{2,}|$)`)
	bancoNacionBalancePattern = regexp.MustCompile(`(?i)(?:Saldo\s+Actual|Saldo):?\s*\$?\s*(-?[\d.,]+)`)
	bancoNacionMinimumPattern = regexp.MustCompile(`(?i)Pago\s*M[íi]nimo:?\s*\$?\s*([\d.,]+)`)
	bancoNacionDueDatePattern = regexp.MustCompile(`(?i)Vencimiento(?:\s+Actual)?:?\s*(\d{2}[/-][A-Za-zÀ-ÿ\d]{2,4}\.?[/-]\d{2,4})`)
	bancoNacionClosingPattern = regexp.MustCompile(`(?i)Pr[óo]ximo\s*Cierre:?\s*(\d{2}[/-][A-Za-zÀ-ÿ\d]{2,4}\.?[/-]\d{2,4})`)
	bancoNacionPeriodPattern  = regexp.MustCompile(`(?i)Per[íi]odo:?\s*(\d{2}-[A-Za-zÀ-ÿ]{3,4}\.?-\d{2})\s*al?\s*(\d{2}-[A-Za-zÀ-ÿ]{3,4}\.?-\d{2})`)
	bancoNacionLimitPattern   = regexp.MustCompile(`(?i)L[íi]mite\s+de\s+(?:Compra|Cr[ée]dito):?\s*\$?\s*([\d.,]+)`)
	// "Saldo Disponible" and "Límite Disponible" both appear in the wild.
	bancoNacionAvailablePattern = regexp.MustCompile(`(?i)(?:Saldo|L[íi]mite)\s+Disponible:?\s*\$?\s*([\d.,]+)`)
)

// Column header of the transaction table, skipped inside the section.
var bancoNacionHeaderPattern = regexp.MustCompile(`(?i)^FECHA\b.*IMPORTE`)

func (p *BancoNacionParser) Parse(pages []models.ExtractedPage) (*Document, error) {
	doc := &Document{}
	doc.Metadata.BankName = p.BankName()

	for _, page := range pages {
		lines := pageLines(page)
		doc.Metadata.Merge(bancoNacionMetadata(lines))
		txns, warns := p.parseLines(lines, page.Index+1)
		doc.Transactions = append(doc.Transactions, txns...)
		doc.Warnings = append(doc.Warnings, warns...)
	}
	return doc, nil
}

func (p *BancoNacionParser) parseLines(lines []string, pageNo int) ([]models.RawTransaction, []models.Warning) {
	var txns []models.RawTransaction
	var warns []models.Warning
	inSection := false

	for i, line := range lines {
		if line == "" {
			continue
		}

		if bancoNacionSectionStart.MatchString(line) {
			inSection = true
			continue
		}
		if bancoNacionSectionEnd.MatchString(line) {
			inSection = false
			continue
		}
		if !inSection {
			continue
		}
		if bancoNacionHeaderPattern.MatchString(line) {
			continue
		}

		if m := bancoNacionTxnPattern.FindStringSubmatch(line); m != nil {
			txns = append(txns, models.RawTransaction{
				Bank:         models.BankBancoNacion,
				Page:         pageNo,
				Line:         i + 1,
				DateText:     m[1],
				Description:  strings.TrimSpace(m[2]),
				Reference:    m[3],
				AmountText:   m[4],
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

func bancoNacionMetadata(lines []string) models.StatementMetadata {
	meta := models.StatementMetadata{
		AccountHolder:   firstSubmatch(lines, bancoNacionHolderPattern),
		Balance:         firstSubmatch(lines, bancoNacionBalancePattern),
		MinimumPayment:  firstSubmatch(lines, bancoNacionMinimumPattern),
		DueDate:         firstSubmatch(lines, bancoNacionDueDatePattern),
		NextClosing:     firstSubmatch(lines, bancoNacionClosingPattern),
		CreditLimit:     firstSubmatch(lines, bancoNacionLimitPattern),
		AvailableCredit: firstSubmatch(lines, bancoNacionAvailablePattern),
	}
	for _, line := range lines {
		if m := bancoNacionPeriodPattern.FindStringSubmatch(line); m != nil {
			meta.StatementPeriod = m[1] + " al " + m[2]
			break
		}
	}
	return meta
}
