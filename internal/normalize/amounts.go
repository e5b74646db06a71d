package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cardlens/statement-converter/internal/rules"
)

var (
	// 1,234.56 or 1234.56 or 1234
	amountUSPattern = regexp.MustCompile(`^\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?$|^\d+(?:\.\d{1,2})?$`)
	// 1.234,56 or 1234,56
	amountEUPattern = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})*(?:,\d{1,2})?$|^\d+(?:,\d{1,2})?$`)

	decimalCommaTail = regexp.MustCompile(`,\d{1,2}$`)
	decimalDotTail   = regexp.MustCompile(`\.\d{1,2}$`)
)

// ParseAmount converts a raw statement amount into a signed decimal.
// Currency symbols, grouping separators, and surrounding noise are stripped.
// DecimalComma selects the 1.234,56 scheme; otherwise 1,234.56 is assumed.
// The second return reports whether the text carried an explicit sign
// (leading or trailing minus, parentheses, or a CR/DB marker).
func ParseAmount(raw string, decimalComma bool) (decimal.Decimal, bool, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false, fmt.Errorf("empty amount")
	}

	s, negative, explicit := stripSign(s)
	s = stripCurrency(s)
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false, fmt.Errorf("amount %q has no digits", raw)
	}

	if decimalComma {
		if !amountEUPattern.MatchString(s) {
			return decimal.Zero, false, fmt.Errorf("amount %q does not match 1.234,56 format", raw)
		}
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else {
		if !amountUSPattern.MatchString(s) {
			return decimal.Zero, false, fmt.Errorf("amount %q does not match 1,234.56 format", raw)
		}
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("amount %q: %w", raw, err)
	}
	d = d.Round(2)
	if negative {
		d = d.Neg()
	}
	return d, explicit, nil
}

// LooksLikeAmount reports whether the text parses as an amount in the given
// scheme. The generic matcher votes with this across candidate lines.
func LooksLikeAmount(raw string, decimalComma bool) bool {
	_, _, err := ParseAmount(raw, decimalComma)
	return err == nil
}

// DecimalCommaLikely guesses the separator scheme from the amount text alone.
// Unambiguous inputs ("1.234,56", "12,50") vote true; US-style and
// indeterminate inputs vote false.
func DecimalCommaLikely(raw string) bool {
	s := stripCurrency(strings.TrimSpace(raw))
	s = strings.Trim(s, "+- ")
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		return strings.LastIndex(s, ",") > strings.LastIndex(s, ".")
	case hasComma:
		return decimalCommaTail.MatchString(s)
	case hasDot:
		// "1.234" is three-digit grouping, "12.34" a decimal point.
		return !decimalDotTail.MatchString(s) && strings.Count(s, ".") >= 1 && groupedThousands(s)
	default:
		return false
	}
}

func groupedThousands(s string) bool {
	parts := strings.Split(s, ".")
	for i, p := range parts {
		if i == 0 {
			continue
		}
		if len(p) != 3 {
			return false
		}
	}
	return len(parts) > 1
}

// stripSign removes sign markers and reports (rest, negative, explicit).
func stripSign(s string) (string, bool, bool) {
	negative, explicit := false, false

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
		negative, explicit = true, true
	}

	upper := strings.ToUpper(s)
	switch {
	case strings.HasSuffix(upper, "CR"):
		s = strings.TrimSpace(s[:len(s)-2])
		explicit = true
	case strings.HasSuffix(upper, "DB"), strings.HasSuffix(upper, "DR"):
		s = strings.TrimSpace(s[:len(s)-2])
		negative, explicit = true, true
	}

	if strings.HasPrefix(s, "-") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
		negative, explicit = true, true
	} else if strings.HasSuffix(s, "-") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "-"))
		negative, explicit = true, true
	} else if strings.HasPrefix(s, "+") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "+"))
		explicit = true
	}
	return s, negative, explicit
}

func stripCurrency(s string) string {
	for _, sym := range rules.CurrencySymbols() {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, " ", " ")
	return strings.TrimSpace(s)
}
