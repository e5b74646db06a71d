package models

import (
	"reflect"
	"testing"
)

func TestTransactionTypeCredit(t *testing.T) {
	tests := []struct {
		typ  TransactionType
		want bool
	}{
		{TypePayment, true},
		{TypeRefund, true},
		{TypePurchase, false},
		{TypeFee, false},
		{TypeInterest, false},
		{TypeOther, false},
	}
	for _, tt := range tests {
		if got := tt.typ.Credit(); got != tt.want {
			t.Errorf("%s.Credit(): got %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestExtractedPageEmpty(t *testing.T) {
	tests := []struct {
		name string
		page ExtractedPage
		want bool
	}{
		{"zero value", ExtractedPage{}, true},
		{"whitespace text", ExtractedPage{Text: "  \n\t"}, true},
		{"real text", ExtractedPage{Text: "Fatura"}, false},
		{"blank cells", ExtractedPage{Tables: [][][]string{{{"", " "}}}}, true},
		{"real cell", ExtractedPage{Tables: [][][]string{{{"", "12.50"}}}}, false},
	}
	for _, tt := range tests {
		if got := tt.page.Empty(); got != tt.want {
			t.Errorf("%s: Empty() got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestExtractedPageLines(t *testing.T) {
	text := ExtractedPage{Text: "first\nsecond"}
	if got := text.Lines(); !reflect.DeepEqual(got, []string{"first", "second"}) {
		t.Errorf("text lines: got %v", got)
	}

	table := ExtractedPage{
		Text: "ignored when tables exist",
		Tables: [][][]string{{
			{"01/15", "COFFEE SHOP", "4.50"},
			{"", "", ""},
		}},
	}
	want := []string{"01/15  COFFEE SHOP  4.50"}
	if got := table.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("table lines: got %v, want %v", got, want)
	}
}

func TestMetadataMergeKeepsExisting(t *testing.T) {
	m := StatementMetadata{BankName: "Itaú", DueDate: ""}
	m.Merge(StatementMetadata{BankName: "Unknown Bank", DueDate: "10/02/2024", Balance: "R$ 812,40"})

	if m.BankName != "Itaú" {
		t.Errorf("bankName overwritten: got %q", m.BankName)
	}
	if m.DueDate != "10/02/2024" {
		t.Errorf("dueDate not filled: got %q", m.DueDate)
	}
	if m.Balance != "R$ 812,40" {
		t.Errorf("balance not filled: got %q", m.Balance)
	}
}
