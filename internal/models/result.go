package models

// Headers is the fixed column order of conversion output rows.
var Headers = []string{"Date", "Description", "Amount", "Type", "Category", "Reference"}

// ResultMetadata is the document-level summary exposed to callers.
type ResultMetadata struct {
	TotalTransactions int    `json:"totalTransactions"`
	StatementPeriod   string `json:"statementPeriod"`
	DueDate           string `json:"dueDate"`
	NextClosing       string `json:"nextClosing"`
	Balance           string `json:"balance"`
	BankName          string `json:"bankName"`
}

// ResultData carries the tabular payload of a conversion.
type ResultData struct {
	Headers  []string       `json:"headers"`
	Rows     [][]string     `json:"rows"`
	Metadata ResultMetadata `json:"metadata"`
}

// ConversionResult is the outcome of one conversion request. Data is present
// whenever at least something was extracted, even on failure, so callers may
// accept partial results.
type ConversionResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    *ResultData `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`

	// Bank, Code, and Warnings carry structured detail for in-process
	// callers; the wire shape above is what serializes. Code is the failure
	// code when Success is false, empty otherwise.
	Bank     BankType  `json:"-"`
	Code     ErrorCode `json:"-"`
	Warnings []Warning `json:"-"`
}

// Partial reports whether the conversion failed but still recovered rows.
func (r *ConversionResult) Partial() bool {
	return !r.Success && r.Data != nil && len(r.Data.Rows) > 0
}

// AddWarning appends w to both the structured and wire-level warning lists.
func (r *ConversionResult) AddWarning(w Warning) {
	r.Warnings = append(r.Warnings, w)
	r.Errors = append(r.Errors, w.String())
}
