// Package classifier scores extracted statement text against per-bank
// signature sets and picks the issuer whose parser should run.
package classifier

import (
	"math"
	"sort"
	"strings"

	"github.com/cardlens/statement-converter/internal/models"
	"github.com/cardlens/statement-converter/internal/rules"
)

// pageTwoWeight discounts signatures whose only hit is on page 2. Real
// statements carry their issuer branding on page 1; a page-2-only match is
// weaker evidence.
const pageTwoWeight = 0.75

// Result is the classifier's decision for one document.
type Result struct {
	Bank          models.BankType
	Confidence    int
	Candidates    []models.BankCandidate // ranked, best first
	LowConfidence bool                   // top score fell below the threshold
}

// Detect inspects the first two pages only, which is where real statements
// identify themselves, and returns the ranked candidates plus the selected
// bank. When the best score is below threshold the selection falls back to
// GENERIC and LowConfidence is set.
func Detect(pages []models.ExtractedPage, threshold int) Result {
	page1 := foldPage(pages, 0)
	page2 := foldPage(pages, 1)

	type scored struct {
		cand  models.BankCandidate
		tier  int
		order int
	}
	banks := rules.Banks()
	list := make([]scored, 0, len(banks))
	for i, b := range banks {
		list = append(list, scored{
			cand:  models.BankCandidate{Bank: b.ID, Confidence: score(b, page1, page2)},
			tier:  b.Tier,
			order: i,
		})
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].cand.Confidence != list[j].cand.Confidence {
			return list[i].cand.Confidence > list[j].cand.Confidence
		}
		if list[i].tier != list[j].tier {
			return list[i].tier < list[j].tier
		}
		return list[i].order < list[j].order
	})

	candidates := make([]models.BankCandidate, len(list))
	for i, s := range list {
		candidates[i] = s.cand
	}

	res := Result{
		Bank:       candidates[0].Bank,
		Confidence: candidates[0].Confidence,
		Candidates: candidates,
	}
	if res.Confidence < threshold {
		res.Bank = models.BankGeneric
		res.LowConfidence = true
	}
	return res
}

// score rates one bank against the folded page texts: the fraction of its
// signature set matched, scaled to [0,100]. A signature found on page 1
// counts in full; one found only on page 2 counts at pageTwoWeight.
func score(b rules.Bank, page1, page2 string) int {
	if len(b.Signatures) == 0 {
		return 0
	}
	var matched float64
	for _, sig := range b.Signatures {
		folded := rules.Fold(sig)
		switch {
		case strings.Contains(page1, folded):
			matched++
		case strings.Contains(page2, folded):
			matched += pageTwoWeight
		}
	}
	s := int(math.Round(100 * matched / float64(len(b.Signatures))))
	if s > 100 {
		s = 100
	}
	return s
}

// foldPage returns the folded content of pages[i], tables included, or ""
// when the document is shorter.
func foldPage(pages []models.ExtractedPage, i int) string {
	if i >= len(pages) {
		return ""
	}
	return rules.Fold(strings.Join(pages[i].Lines(), "\n"))
}
