package categorize

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/cardlens/statement-converter/internal/rules"
)

// Canonical rewrites a cleaned description to its canonical merchant name
// when an alias matches, otherwise it returns the description unchanged.
//
// Long alias keys match as substrings so "AMZN MKTP US*2H4MW" still hits
// "amzn mktp". Short keys only match whole tokens, which keeps "uber" from
// firing inside "Schubert". A single-edit fuzzy pass catches statement
// mangling like "AMAZN" for keys long enough to make one edit meaningful.
func Canonical(description string) string {
	folded := rules.Fold(description)
	if folded == "" {
		return description
	}
	tokens := strings.Fields(folded)
	for _, a := range rules.Aliases() {
		if aliasHits(a.Match, folded, tokens) {
			return a.Canonical
		}
	}
	return description
}

func aliasHits(match, folded string, tokens []string) bool {
	if len(match) >= 4 {
		if strings.Contains(folded, match) {
			return true
		}
	} else {
		for _, tok := range tokens {
			if tok == match {
				return true
			}
		}
	}
	if len(match) >= 5 {
		for _, tok := range tokens {
			if fuzzy.LevenshteinDistance(tok, match) <= 1 {
				return true
			}
		}
	}
	return false
}
