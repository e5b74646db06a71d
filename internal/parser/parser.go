// Package parser matches transaction lines in extracted statement pages.
// There is one parser per issuer layout plus a generic fallback for
// statements no dedicated parser understands. Parsers capture dates and
// amounts as text, together with the format conventions they observed; the
// normalizer does the actual value parsing so that format knowledge lives
// in one place.
package parser

import (
	"github.com/cardlens/statement-converter/internal/models"
)

// Document is everything one parser recovered from a statement: candidate
// transactions in page then line order, merged document metadata, and the
// warnings collected along the way.
type Document struct {
	Transactions []models.RawTransaction
	Metadata     models.StatementMetadata
	Warnings     []models.Warning
}

// Parser matches statement lines laid out the way one issuer prints them.
type Parser interface {
	// Bank returns the issuer this parser matches for.
	Bank() models.BankType
	// BankName returns the issuer's display name.
	BankName() string
	// Parse walks the pages in order and collects transaction candidates
	// plus whatever document-level metadata the layout exposes. A
	// malformed line never aborts the walk; it is skipped and recorded
	// as a warning. When err is non-nil it is a *models.ConversionError
	// and the Document is still valid alongside it.
	Parse(pages []models.ExtractedPage) (*Document, error)
}

// New returns the parser for a classified bank. Issuers without a
// dedicated layout are handled by the generic parser primed with their
// locale conventions, so a Citibank statement still reads MM/DD dates and
// point-decimal amounts. Unknown ids get the unprimed generic parser.
func New(bank models.BankType) Parser {
	switch bank {
	case models.BankChase:
		return &ChaseParser{}
	case models.BankAmex:
		return &AmexParser{}
	case models.BankBancoNacion:
		return &BancoNacionParser{}
	case models.BankItau:
		return &ItauParser{}
	default:
		return NewGeneric(bank)
	}
}
