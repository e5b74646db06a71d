package parser

import (
	"regexp"
	"strings"

	"github.com/cardlens/statement-converter/internal/models"
	"github.com/cardlens/statement-converter/internal/normalize"
	"github.com/cardlens/statement-converter/internal/rules"
)

// GenericParser handles statements from issuers without a dedicated
// layout. It guesses the line format: every candidate format is applied to
// the whole document and the one that parses the most lines wins the vote,
// so a single document never mixes date interpretations.
//
// When built for a known issuer the locale conventions from the rules
// table cut the candidate list down before voting; a Citibank statement
// will never be read with day-first dates.
type GenericParser struct {
	bank         models.BankType
	name         string
	primed       bool
	dayFirst     bool
	decimalComma bool
}

// NewGeneric builds the fallback parser, primed with locale conventions
// when the bank has a rules entry.
func NewGeneric(bank models.BankType) *GenericParser {
	p := &GenericParser{bank: bank, name: "Generic"}
	if b, ok := rules.BankByID(bank); ok {
		p.name = b.Name
		p.primed = true
		p.dayFirst = b.DayFirst()
		p.decimalComma = b.DecimalComma()
	}
	return p
}

func (p *GenericParser) Bank() models.BankType { return p.bank }

func (p *GenericParser) BankName() string { return p.name }

// lineFormat is one candidate transaction-line shape. named marks formats
// whose month is spelled out, which parse the same under either date order.
type lineFormat struct {
	name         string
	re           *regexp.Regexp
	dayFirst     bool
	decimalComma bool
	named        bool
}

// Amount tails for the two grouping schemes. Parentheses, trailing minus,
// and CR/DB/DR suffixes ride along so the normalizer sees the full sign.
const (
	usAmountTail = `(\(?-?\$?[\d,]+\.\d{2}\)?-?(?:\s?(?:CR|DB|DR))?)`
	euAmountTail = `(\(?-?(?:R?\$\s?)?[\d.]+,\d{2}\)?-?(?:\s?(?:CR|DB|DR))?)`
)

var (
	slashLineUS = regexp.MustCompile(`^(\d{1,2}/\d{1,2}(?:/\d{2,4})?)\s+(.+?)\s+` + usAmountTail + `$`)
	slashLineEU = regexp.MustCompile(`^(\d{1,2}/\d{1,2}(?:/\d{2,4})?)\s+(.+?)\s+` + euAmountTail + `$`)
	namedLineUS = regexp.MustCompile(`^([A-Za-z]{3,4}\.?\s+\d{1,2}|\d{1,2}\s+(?:de\s+)?[A-Za-zÀ-ÿ]{3,10}\.?)\s+(.+?)\s+` + usAmountTail + `$`)
	dashLineEU  = regexp.MustCompile(`^(\d{1,2}-[A-Za-zÀ-ÿ]{3,4}\.?-\d{2,4})\s+(.+?)\s+` + euAmountTail + `$`)
)

// genericFormats in vote tie-break order: US conventions first, matching
// the issuer mix in the rules table.
var genericFormats = []lineFormat{
	{name: "slash month-first", re: slashLineUS},
	{name: "slash day-first", re: slashLineUS, dayFirst: true},
	{name: "slash day-first comma", re: slashLineEU, dayFirst: true, decimalComma: true},
	{name: "month name", re: namedLineUS, named: true},
	{name: "dash day-first comma", re: dashLineEU, dayFirst: true, decimalComma: true, named: true},
}

// genericNoisePatterns are lines skipped before matching, shared across
// unknown layouts.
var genericNoisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Page\s+\d+`),
	regexp.MustCompile(`(?i)^Statement\s+Date`),
	regexp.MustCompile(`(?i)^Account\s+Number`),
	regexp.MustCompile(`(?i)^Payment\s+Due`),
	regexp.MustCompile(`(?i)^Previous\s+Balance`),
	regexp.MustCompile(`(?i)^New\s+Balance`),
	regexp.MustCompile(`(?i)^Total\s+`),
	regexp.MustCompile(`(?i)^Summary`),
	regexp.MustCompile(`(?i)^Customer\s+Service`),
	regexp.MustCompile(`(?i)^Questions`),
	regexp.MustCompile(`(?i)^Visit\s+us`),
	regexp.MustCompile(`(?i)^Call\s+us`),
	regexp.MustCompile(`(?i)^www\.`),
	regexp.MustCompile(`(?i)^http`),
	regexp.MustCompile(`^\d+\s*$`),
	regexp.MustCompile(`^-+\s*$`),
	regexp.MustCompile(`^=+\s*$`),
}

// Generic metadata patterns, loosest variants last.
var (
	genericBalancePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:new|current|total|outstanding)\s+balance:?\s*(-?\$?[\d.,]+)`),
		regexp.MustCompile(`(?i)\bbalance:?\s*(-?\$?[\d.,]+)`),
	}
	genericDueDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:payment\s+)?due\s+date:?\s*(\d{1,2}/\d{1,2}/\d{2,4})`),
		regexp.MustCompile(`(?i)(?:payment\s+)?due\s+date:?\s*([A-Za-z]{3}\.?\s+\d{1,2},?\s+\d{4})`),
	}
	genericPeriodPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:statement|billing)\s+period:?\s*([^\n]+)`),
		regexp.MustCompile(`(?i)(?:statement|closing)\s+date:?\s*(\d{1,2}/\d{1,2}/\d{2,4})`),
	}
	genericAccountPattern = regexp.MustCompile(`(?i)(?:account|acct)\s+(?:number|#|ending)(?:\s+in)?:?\s*[*\-xX\s]*(\d{4,5})\b`)
)

// genericBankIndicators name the issuer when nothing primed the parser.
// Word boundaries matter: "purchase" must not read as Chase.
var genericBankIndicators = []struct {
	re   *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`(?i)american\s+express|\bamex\b`), "American Express"},
	{regexp.MustCompile(`(?i)\bjpmorgan\b|\bchase\b`), "Chase"},
	{regexp.MustCompile(`(?i)\bcitibank\b|\bciticards\b|citi\.com`), "Citibank"},
	{regexp.MustCompile(`(?i)bank\s+of\s+america`), "Bank of America"},
	{regexp.MustCompile(`(?i)capital\s+one`), "Capital One"},
	{regexp.MustCompile(`(?i)wells\s+fargo`), "Wells Fargo"},
	{regexp.MustCompile(`(?i)\bdiscover\b`), "Discover"},
	{regexp.MustCompile(`(?i)banco\s+(?:de\s+la\s+)?naci[óo]n`), "Banco Nación"},
	{regexp.MustCompile(`(?i)\bita[úu]`), "Itaú"},
	{regexp.MustCompile(`(?i)\bsynchrony\b`), "Synchrony Bank"},
	{regexp.MustCompile(`(?i)\bbarclays\b`), "Barclays"},
}

func (p *GenericParser) Parse(pages []models.ExtractedPage) (*Document, error) {
	doc := &Document{}

	var all []string
	for _, page := range pages {
		all = append(all, pageLines(page)...)
	}
	year := normalize.DetectYear(strings.Join(all, "\n"))

	format := p.vote(pages, year)

	doc.Metadata.BankName = p.documentBankName(all)
	doc.Metadata.Merge(genericMetadata(all))

	for _, page := range pages {
		txns, warns := p.parseLines(pageLines(page), page.Index+1, format, year)
		doc.Transactions = append(doc.Transactions, txns...)
		doc.Warnings = append(doc.Warnings, warns...)
	}
	return doc, nil
}

// candidates returns the formats compatible with the primed locale, or all
// of them for a fully unknown document.
func (p *GenericParser) candidates() []lineFormat {
	if !p.primed {
		return genericFormats
	}
	var out []lineFormat
	for _, f := range genericFormats {
		if f.decimalComma != p.decimalComma {
			continue
		}
		if !f.named && f.dayFirst != p.dayFirst {
			continue
		}
		out = append(out, f)
	}
	return out
}

// vote applies every candidate format to the whole document and returns
// the one that fully parses the most lines. Ties keep the earlier
// candidate. With no parsable line at all the first candidate is returned
// and the parse pass comes up empty.
func (p *GenericParser) vote(pages []models.ExtractedPage, year int) lineFormat {
	candidates := p.candidates()
	best, bestCount := candidates[0], 0

	for _, f := range candidates {
		count := 0
		for _, page := range pages {
			for _, line := range pageLines(page) {
				if line == "" || matchAny(line, genericNoisePatterns) {
					continue
				}
				m := f.re.FindStringSubmatch(line)
				if m == nil {
					continue
				}
				if _, err := normalize.ParseDate(m[1], f.dayFirst, year); err != nil {
					continue
				}
				if _, _, err := normalize.ParseAmount(m[3], f.decimalComma); err != nil {
					continue
				}
				count++
			}
		}
		if count > bestCount {
			best, bestCount = f, count
		}
	}
	return best
}

func (p *GenericParser) parseLines(lines []string, pageNo int, format lineFormat, year int) ([]models.RawTransaction, []models.Warning) {
	var txns []models.RawTransaction
	var warns []models.Warning

	for i, line := range lines {
		if line == "" || matchAny(line, genericNoisePatterns) {
			continue
		}

		m := format.re.FindStringSubmatch(line)
		if m == nil {
			if startsWithDate(line) {
				warns = append(warns, models.NewUnparsableLine(pageNo, i+1))
			}
			continue
		}
		if _, err := normalize.ParseDate(m[1], format.dayFirst, year); err != nil {
			warns = append(warns, models.NewUnparsableLine(pageNo, i+1))
			continue
		}
		if _, _, err := normalize.ParseAmount(m[3], format.decimalComma); err != nil {
			warns = append(warns, models.NewUnparsableLine(pageNo, i+1))
			continue
		}

		txns = append(txns, models.RawTransaction{
			Bank:         p.bank,
			Page:         pageNo,
			Line:         i + 1,
			DateText:     m[1],
			Description:  strings.TrimSpace(m[2]),
			AmountText:   m[3],
			DayFirst:     format.dayFirst,
			DecimalComma: format.decimalComma,
		})
	}
	return txns, warns
}

// documentBankName prefers the primed issuer name, then a recognizable
// letterhead, then the unknown marker.
func (p *GenericParser) documentBankName(lines []string) string {
	if p.primed {
		return p.name
	}
	text := strings.Join(lines, "\n")
	for _, ind := range genericBankIndicators {
		if ind.re.MatchString(text) {
			return ind.name
		}
	}
	return "Unknown Bank"
}

func genericMetadata(lines []string) models.StatementMetadata {
	meta := models.StatementMetadata{
		AccountNumber: maskAccount(firstSubmatch(lines, genericAccountPattern)),
	}
	for _, re := range genericBalancePatterns {
		if v := firstSubmatch(lines, re); v != "" {
			meta.Balance = v
			break
		}
	}
	for _, re := range genericDueDatePatterns {
		if v := firstSubmatch(lines, re); v != "" {
			meta.DueDate = v
			break
		}
	}
	for _, re := range genericPeriodPatterns {
		if v := firstSubmatch(lines, re); v != "" {
			meta.StatementPeriod = v
			break
		}
	}
	return meta
}
