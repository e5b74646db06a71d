// Package rules holds the process-wide pattern tables: bank signatures with
// locale info, merchant alias substitutions, and category keywords. The
// tables ship as embedded YAML, load once, and are never mutated per request.
package rules

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	_ "embed"

	"github.com/Rhymond/go-money"
	"gopkg.in/yaml.v3"

	"github.com/cardlens/statement-converter/internal/models"
)

//go:embed rules.yaml
var rulesYAML []byte

// Bank describes one supported issuer: how to recognize its statements and
// which locale conventions its parser should assume.
type Bank struct {
	ID         models.BankType `yaml:"id"`
	Name       string          `yaml:"name"`
	Tier       int             `yaml:"tier"`
	Locale     string          `yaml:"locale"`
	Currency   string          `yaml:"currency"`
	DateOrder  string          `yaml:"date_order"` // "dmy" or "mdy"
	Signatures []string        `yaml:"signatures"`
}

// DayFirst reports whether ambiguous numeric dates read day-before-month for
// this bank's locale.
func (b Bank) DayFirst() bool { return b.DateOrder == "dmy" }

// DecimalComma reports whether this bank's locale writes amounts with the
// 1.234,56 grouping scheme.
func (b Bank) DecimalComma() bool {
	return strings.HasPrefix(b.Locale, "es") || strings.HasPrefix(b.Locale, "pt")
}

// Alias maps a raw merchant fragment to its canonical display name.
type Alias struct {
	Match     string `yaml:"match"`
	Canonical string `yaml:"canonical"`
}

// Category names a spending category and the merchant keywords that imply it.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type tables struct {
	Banks      []Bank     `yaml:"banks"`
	Aliases    []Alias    `yaml:"aliases"`
	Categories []Category `yaml:"categories"`
}

var (
	loadOnce sync.Once
	loaded   tables
	byID     map[models.BankType]Bank
)

func load() {
	if err := yaml.Unmarshal(rulesYAML, &loaded); err != nil {
		panic(fmt.Sprintf("rules: embedded rules.yaml is invalid: %v", err))
	}
	byID = make(map[models.BankType]Bank, len(loaded.Banks))
	for _, b := range loaded.Banks {
		if b.ID == "" || b.Name == "" || len(b.Signatures) == 0 {
			panic(fmt.Sprintf("rules: bank entry %q is incomplete", b.ID))
		}
		if money.GetCurrency(b.Currency) == nil {
			panic(fmt.Sprintf("rules: bank %q has unknown currency %q", b.ID, b.Currency))
		}
		if b.DateOrder != "dmy" && b.DateOrder != "mdy" {
			panic(fmt.Sprintf("rules: bank %q has invalid date_order %q", b.ID, b.DateOrder))
		}
		if _, dup := byID[b.ID]; dup {
			panic(fmt.Sprintf("rules: duplicate bank id %q", b.ID))
		}
		byID[b.ID] = b
	}
}

// Banks returns all issuers in declaration order, which is also the
// tie-break priority order within a tier.
func Banks() []Bank {
	loadOnce.Do(load)
	return loaded.Banks
}

// BankByID looks up one issuer. The second result is false for unknown ids
// and for GENERIC, which has no rule entry.
func BankByID(id models.BankType) (Bank, bool) {
	loadOnce.Do(load)
	b, ok := byID[id]
	return b, ok
}

// CurrencyFor returns the ISO-4217 code for a bank, falling back to USD for
// GENERIC and unknown ids.
func CurrencyFor(id models.BankType) string {
	if b, ok := BankByID(id); ok {
		return b.Currency
	}
	return money.USD
}

// CurrencySymbols returns the distinct currency graphemes used by any
// configured bank (plus the common fallbacks), for amount cleanup. Longer
// graphemes sort first so "R$" is stripped before "$" would eat its half.
func CurrencySymbols() []string {
	loadOnce.Do(load)
	seen := map[string]bool{"$": true, "£": true, "€": true}
	for _, b := range loaded.Banks {
		if c := money.GetCurrency(b.Currency); c != nil && c.Grapheme != "" {
			seen[c.Grapheme] = true
		}
	}
	symbols := make([]string, 0, len(seen))
	for s := range seen {
		symbols = append(symbols, s)
	}
	sort.Slice(symbols, func(i, j int) bool {
		if len(symbols[i]) != len(symbols[j]) {
			return len(symbols[i]) > len(symbols[j])
		}
		return symbols[i] < symbols[j]
	})
	return symbols
}

// Aliases returns the merchant standardization table in declaration order.
func Aliases() []Alias {
	loadOnce.Do(load)
	return loaded.Aliases
}

// Categories returns the category keyword table in declaration order.
func Categories() []Category {
	loadOnce.Do(load)
	return loaded.Categories
}
