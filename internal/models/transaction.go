package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BankType identifies the issuing institution of a credit-card statement.
type BankType string

const (
	BankChase         BankType = "chase"
	BankAmex          BankType = "amex"
	BankCitibank      BankType = "citibank"
	BankBankOfAmerica BankType = "bank_of_america"
	BankCapitalOne    BankType = "capital_one"
	BankWellsFargo    BankType = "wells_fargo"
	BankDiscover      BankType = "discover"
	BankBancoNacion   BankType = "banco_nacion"
	BankItau          BankType = "itau"
	BankGeneric       BankType = "generic"
)

// TransactionType classifies a statement line item.
type TransactionType string

const (
	TypePurchase TransactionType = "Purchase"
	TypePayment  TransactionType = "Payment"
	TypeFee      TransactionType = "Fee"
	TypeInterest TransactionType = "Interest"
	TypeRefund   TransactionType = "Refund"
	TypeOther    TransactionType = "Other"
)

// Credit reports whether the type represents money flowing back to the
// cardholder. Credits carry positive amounts, everything else negative.
func (t TransactionType) Credit() bool {
	return t == TypePayment || t == TypeRefund
}

// ExtractedPage is the extraction output for a single PDF page. A page holds
// either table cell grids or plain text, never both: table extraction is
// attempted first and text is the fallback.
type ExtractedPage struct {
	Index  int          // zero-based page position
	Text   string       // plain text fallback; empty when tables were found
	Tables [][][]string // cell grids in page order
}

// Empty reports whether the page produced neither text nor table cells.
func (p ExtractedPage) Empty() bool {
	if strings.TrimSpace(p.Text) != "" {
		return false
	}
	for _, table := range p.Tables {
		for _, row := range table {
			for _, cell := range row {
				if strings.TrimSpace(cell) != "" {
					return false
				}
			}
		}
	}
	return true
}

// Lines returns the page content as matchable lines in reading order.
// Table rows come out as their cells joined by double spaces so that
// column-aware patterns still see a gap between fields.
func (p ExtractedPage) Lines() []string {
	var lines []string
	if len(p.Tables) > 0 {
		for _, table := range p.Tables {
			for _, row := range table {
				joined := strings.TrimSpace(strings.Join(row, "  "))
				if joined != "" {
					lines = append(lines, joined)
				}
			}
		}
		return lines
	}
	for _, line := range strings.Split(p.Text, "\n") {
		lines = append(lines, line)
	}
	return lines
}

// BankCandidate is one classifier hypothesis about the issuing bank.
type BankCandidate struct {
	Bank       BankType
	Confidence int // 0-100
}

// RawTransaction is a matcher's pre-normalization candidate. Dates and
// amounts are still in the bank's own formatting; the normalizer turns them
// into the canonical schema or drops the record with a warning. DayFirst and
// DecimalComma record the format the matcher saw, so the normalizer parses
// the same way even when the bank was inferred rather than detected.
type RawTransaction struct {
	Bank         BankType
	Page         int // 1-based statement page
	Line         int // 1-based line within the page
	DateText     string
	PostingText  string
	Description  string
	AmountText   string
	Reference    string
	Category     string
	Type         TransactionType // empty when the layout does not imply one
	DayFirst     bool            // date fields read day-before-month
	DecimalComma bool            // amounts use 1.234,56 grouping
}

// Transaction is one normalized statement line item.
type Transaction struct {
	Date        time.Time
	PostingDate time.Time // zero when the statement has no posting column
	Description string
	Amount      decimal.Decimal // negative = purchase/debit, positive = payment/credit
	Currency    string          // ISO 4217
	Type        TransactionType
	Category    string
	Reference   string
	OutOfPeriod bool // date fell outside the statement period window
	Page        int
	Line        int
}

// StatementMetadata holds document-level fields merged across pages.
// Display fields keep the statement's own formatting; PeriodStart/PeriodEnd
// are parsed so transaction dates can be sanity-bounded.
type StatementMetadata struct {
	BankName          string
	AccountHolder     string
	AccountNumber     string // masked, usually last 4-5 digits
	StatementPeriod   string
	PeriodStart       time.Time
	PeriodEnd         time.Time
	DueDate           string
	NextClosing       string
	Balance           string
	MinimumPayment    string
	CreditLimit       string
	AvailableCredit   string
	TotalTransactions int
}

// Merge fills blank fields from other, first-found wins: a value already set
// on m is never overwritten. Pages must be merged in page order so the result
// is deterministic.
func (m *StatementMetadata) Merge(other StatementMetadata) {
	mergeString(&m.BankName, other.BankName)
	mergeString(&m.AccountHolder, other.AccountHolder)
	mergeString(&m.AccountNumber, other.AccountNumber)
	mergeString(&m.StatementPeriod, other.StatementPeriod)
	mergeString(&m.DueDate, other.DueDate)
	mergeString(&m.NextClosing, other.NextClosing)
	mergeString(&m.Balance, other.Balance)
	mergeString(&m.MinimumPayment, other.MinimumPayment)
	mergeString(&m.CreditLimit, other.CreditLimit)
	mergeString(&m.AvailableCredit, other.AvailableCredit)
	if m.PeriodStart.IsZero() {
		m.PeriodStart = other.PeriodStart
	}
	if m.PeriodEnd.IsZero() {
		m.PeriodEnd = other.PeriodEnd
	}
}

func mergeString(dst *string, src string) {
	if strings.TrimSpace(*dst) == "" && strings.TrimSpace(src) != "" {
		*dst = src
	}
}
