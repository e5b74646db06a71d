package parser

import (
	"regexp"
	"strings"

	"github.com/cardlens/statement-converter/internal/models"
)

// Date shapes that can open a transaction line, across the supported
// statement layouts.
var (
	// MM/DD, DD/MM, MM/DD/YY, DD/MM/YYYY
	dateSlashPattern = regexp.MustCompile(`^(\d{1,2}/\d{1,2}(?:/\d{2,4})?)\b`)
	// Jan 15, Ene 15, with an optional trailing dot on the month
	dateMonthFirstPattern = regexp.MustCompile(`^([A-Za-z]{3,4}\.?\s+\d{1,2})\b`)
	// 15 Jan, 15 ene, 15 de enero
	dateDayFirstPattern = regexp.MustCompile(`^(\d{1,2}\s+(?:de\s+)?[A-Za-zÀ-ÿ]{3,10}\.?)(?:\s|$)`)
	// 02-ene.-24, 15-Jan-2024
	dateDashPattern = regexp.MustCompile(`^(\d{1,2}-[A-Za-zÀ-ÿ]{3,4}\.?-\d{2,4})\b`)
)

// startsWithDate reports whether a line opens with any recognized date
// shape. Month-name forms are only accepted when the name resolves to a
// real month, so merchant lines like "Gas 12" do not look like dates.
func startsWithDate(line string) bool {
	line = strings.TrimSpace(line)
	if dateSlashPattern.MatchString(line) || dateDashPattern.MatchString(line) {
		return true
	}
	if m := dateMonthFirstPattern.FindStringSubmatch(line); m != nil {
		return knownMonth(strings.Fields(m[1])[0])
	}
	if m := dateDayFirstPattern.FindStringSubmatch(line); m != nil {
		fields := strings.Fields(m[1])
		return knownMonth(fields[len(fields)-1])
	}
	return false
}

// monthNames covers English, Spanish, and Portuguese abbreviations. Values
// are accent-folded lowercase prefixes; a candidate matches when its first
// three letters do.
var monthNames = map[string]bool{
	"jan": true, "feb": true, "fev": true, "mar": true, "apr": true, "abr": true,
	"may": true, "mai": true, "jun": true, "jul": true, "aug": true, "ago": true,
	"sep": true, "set": true, "oct": true, "out": true, "nov": true, "dec": true,
	"dez": true, "dic": true, "ene": true,
}

func knownMonth(name string) bool {
	folded := strings.ToLower(strings.TrimSuffix(name, "."))
	folded = strings.Map(func(r rune) rune {
		switch r {
		case 'á', 'à', 'â', 'ã':
			return 'a'
		case 'é', 'ê':
			return 'e'
		case 'í':
			return 'i'
		case 'ó', 'ô', 'õ':
			return 'o'
		case 'ú':
			return 'u'
		case 'ç':
			return 'c'
		}
		return r
	}, folded)
	if len(folded) < 3 {
		return false
	}
	return monthNames[folded[:3]]
}

// hasDigit reports whether s contains at least one ASCII digit.
func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// matchAny reports whether any pattern matches at the start of the line.
func matchAny(line string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// firstSubmatch returns capture group 1 of the first line re matches, or "".
func firstSubmatch(lines []string, re *regexp.Regexp) string {
	for _, line := range lines {
		if m := re.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// pageLines returns trimmed page content with original 1-based line
// numbers, so warnings can point back into the document.
func pageLines(page models.ExtractedPage) []string {
	lines := page.Lines()
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}

// appendContinuation glues a wrapped description line onto the most recent
// transaction. Statements wrap long merchant names and addresses onto the
// following line with no date of their own.
func appendContinuation(txns []models.RawTransaction, line string) bool {
	if len(txns) == 0 {
		return false
	}
	last := &txns[len(txns)-1]
	last.Description = strings.TrimSpace(last.Description + " " + line)
	return true
}

// maskAccount renders captured trailing digits in the masked form the
// statements themselves use.
func maskAccount(digits string) string {
	if digits == "" {
		return ""
	}
	return "****" + digits
}
