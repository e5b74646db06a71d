package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cardlens/statement-converter/internal/rules"
)

var (
	numericDateRe   = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2,4}))?$`)
	isoDateRe       = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	dayMonthRe      = regexp.MustCompile(`^(\d{1,2})[\s-]+([^\s.\d-]+)\.?(?:[\s-]+(\d{2,4}))?$`)
	monthDayRe      = regexp.MustCompile(`^([^\s.\d]+)\.?\s+(\d{1,2})(?:,?\s+(\d{2,4}))?$`)
	fourDigitYearRe = regexp.MustCompile(`\b(20\d{2})\b`)
)

// months accepts English, Spanish, and Portuguese names, full and
// abbreviated. Keys are accent-folded lowercase.
var months = map[string]time.Month{
	"jan": time.January, "january": time.January, "ene": time.January, "enero": time.January, "janeiro": time.January,
	"feb": time.February, "february": time.February, "febrero": time.February, "fev": time.February, "fevereiro": time.February,
	"mar": time.March, "march": time.March, "marzo": time.March, "marco": time.March,
	"apr": time.April, "april": time.April, "abr": time.April, "abril": time.April,
	"may": time.May, "mayo": time.May, "mai": time.May, "maio": time.May,
	"jun": time.June, "june": time.June, "junio": time.June, "junho": time.June,
	"jul": time.July, "july": time.July, "julio": time.July, "julho": time.July,
	"aug": time.August, "august": time.August, "ago": time.August, "agosto": time.August,
	"sep": time.September, "september": time.September, "sept": time.September,
	"set": time.September, "septiembre": time.September, "setiembre": time.September, "setembro": time.September,
	"oct": time.October, "october": time.October, "octubre": time.October, "out": time.October, "outubro": time.October,
	"nov": time.November, "november": time.November, "noviembre": time.November, "novembro": time.November,
	"dec": time.December, "december": time.December, "dic": time.December, "diciembre": time.December,
	"dez": time.December, "dezembro": time.December,
}

// ParseDate parses a statement date in any of the formats the matchers emit:
// numeric with slash or dash separators, ISO, or day/month spelled with a
// month name in English, Spanish, or Portuguese. dayFirst settles numeric
// dates where both fields could be a month; year fills in when the text
// carries none. Two-digit years land in 2000-2050, older ones in the 1900s.
func ParseDate(raw string, dayFirst bool, year int) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		return makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3]), raw)
	}

	if m := numericDateRe.FindStringSubmatch(s); m != nil {
		a, b := atoi(m[1]), atoi(m[2])
		y := year
		if m[3] != "" {
			y = expandYear(atoi(m[3]))
		}
		day, month, err := orderFields(a, b, dayFirst)
		if err != nil {
			return time.Time{}, fmt.Errorf("date %q: %w", raw, err)
		}
		return makeDate(y, month, day, raw)
	}

	if m := dayMonthRe.FindStringSubmatch(s); m != nil {
		month, ok := monthByName(m[2])
		if ok {
			y := year
			if m[3] != "" {
				y = expandYear(atoi(m[3]))
			}
			return makeDate(y, int(month), atoi(m[1]), raw)
		}
	}

	if m := monthDayRe.FindStringSubmatch(s); m != nil {
		month, ok := monthByName(m[1])
		if ok {
			y := year
			if m[3] != "" {
				y = expandYear(atoi(m[3]))
			}
			return makeDate(y, int(month), atoi(m[2]), raw)
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// HasYear reports whether the date text spells out its own year.
func HasYear(raw string) bool {
	s := strings.TrimSpace(raw)
	if m := numericDateRe.FindStringSubmatch(s); m != nil {
		return m[3] != ""
	}
	if isoDateRe.MatchString(s) {
		return true
	}
	if m := dayMonthRe.FindStringSubmatch(s); m != nil {
		if _, ok := monthByName(m[2]); ok {
			return m[3] != ""
		}
	}
	if m := monthDayRe.FindStringSubmatch(s); m != nil {
		if _, ok := monthByName(m[1]); ok {
			return m[3] != ""
		}
	}
	return false
}

// DetectYear returns the first four-digit year found in the text, falling
// back to the current year. Statements print the period or a date near the
// top of page one, so matchers call this on early lines.
func DetectYear(text string) int {
	if m := fourDigitYearRe.FindStringSubmatch(text); m != nil {
		return atoi(m[1])
	}
	return time.Now().Year()
}

func monthByName(name string) (time.Month, bool) {
	m, ok := months[rules.Fold(name)]
	return m, ok
}

func orderFields(a, b int, dayFirst bool) (day, month int, err error) {
	switch {
	case a > 12 && b > 12:
		return 0, 0, fmt.Errorf("no field can be a month")
	case a > 12:
		return a, b, nil
	case b > 12:
		return b, a, nil
	case dayFirst:
		return a, b, nil
	default:
		return b, a, nil
	}
}

func makeDate(year, month, day int, raw string) (time.Time, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1900 || year > 2100 {
		return time.Time{}, fmt.Errorf("date %q out of range", raw)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, fmt.Errorf("date %q does not exist", raw)
	}
	return t, nil
}

func expandYear(y int) int {
	if y >= 100 {
		return y
	}
	if y <= 50 {
		return 2000 + y
	}
	return 1900 + y
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
