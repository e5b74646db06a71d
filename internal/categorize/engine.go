// Package categorize assigns spending categories and canonical merchant
// names to transaction descriptions, using the shared rule tables.
package categorize

import (
	"sync"

	"github.com/cloudflare/ahocorasick"

	"github.com/cardlens/statement-converter/internal/rules"
)

// Engine matches descriptions against the category keyword table with a
// single Aho-Corasick pass. Build it once and share it; Match is safe for
// concurrent use.
type Engine struct {
	matcher  *ahocorasick.Matcher
	keywords []keywordRef
}

type keywordRef struct {
	category string
	priority int // declaration order of the category, lower wins
}

var (
	engineOnce sync.Once
	engine     *Engine
)

// Shared returns the process-wide engine built from the embedded rules.
func Shared() *Engine {
	engineOnce.Do(func() {
		engine = NewEngine(rules.Categories())
	})
	return engine
}

// NewEngine builds an engine from a category table. Keywords are folded so
// matching is accent- and case-insensitive.
func NewEngine(categories []rules.Category) *Engine {
	var dict [][]byte
	var refs []keywordRef
	for pri, cat := range categories {
		for _, kw := range cat.Keywords {
			folded := rules.Fold(kw)
			if folded == "" {
				continue
			}
			dict = append(dict, []byte(folded))
			refs = append(refs, keywordRef{category: cat.Name, priority: pri})
		}
	}
	return &Engine{
		matcher:  ahocorasick.NewMatcher(dict),
		keywords: refs,
	}
}

// Match returns the category for a description, or "" when no keyword hits.
// When keywords from several categories hit, the category declared first in
// the rule table wins.
func (e *Engine) Match(description string) string {
	folded := rules.Fold(description)
	if folded == "" {
		return ""
	}
	hits := e.matcher.Match([]byte(folded))
	if len(hits) == 0 {
		return ""
	}
	best := keywordRef{priority: int(^uint(0) >> 1)}
	for _, h := range hits {
		if h < 0 || h >= len(e.keywords) {
			continue
		}
		if ref := e.keywords[h]; ref.priority < best.priority {
			best = ref
		}
	}
	return best.category
}
