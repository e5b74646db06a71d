package parser

import (
	"testing"

	"github.com/cardlens/statement-converter/internal/models"
)

func TestItauParser_Parse(t *testing.T) {
	p := &ItauParser{}

	pages := []models.ExtractedPage{textPage(0, `ITAU UNIBANCO S.A.
Fatura do cartão de crédito
Cartão final 4321
Vencimento: 10/02/2024
Total desta fatura: R$ 2.345,67
Pagamento mínimo: R$ 234,56
Limite de crédito: R$ 12.000,00
Limite disponível: R$ 9.654,33
Período: 13/01 a 12/02

Pagamentos efetuados
10/01 PAGAMENTO EFETUADO -800,00
Total dos lançamentos R$ -800,00

Lançamentos
15/01 PADARIA STELLA SAO PAULO 38,90
18/01 POSTO IPIRANGA R$ 250,00
20/01 SUPERMERCADO PAO DE ACUCAR 1.234,56
www.itau.com.br
Total dos lançamentos R$ 1.523,46`)}

	doc, err := p.Parse(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Metadata.BankName != "Itaú" {
		t.Errorf("bank name: got %q, want %q", doc.Metadata.BankName, "Itaú")
	}
	if doc.Metadata.AccountNumber != "****4321" {
		t.Errorf("account: got %q, want %q", doc.Metadata.AccountNumber, "****4321")
	}
	if doc.Metadata.DueDate != "10/02/2024" {
		t.Errorf("due date: got %q, want %q", doc.Metadata.DueDate, "10/02/2024")
	}
	if doc.Metadata.Balance != "R$ 2.345,67" {
		t.Errorf("balance: got %q, want %q", doc.Metadata.Balance, "R$ 2.345,67")
	}
	if doc.Metadata.MinimumPayment != "R$ 234,56" {
		t.Errorf("minimum: got %q, want %q", doc.Metadata.MinimumPayment, "R$ 234,56")
	}
	if doc.Metadata.CreditLimit != "R$ 12.000,00" {
		t.Errorf("limit: got %q, want %q", doc.Metadata.CreditLimit, "R$ 12.000,00")
	}
	if doc.Metadata.AvailableCredit != "R$ 9.654,33" {
		t.Errorf("available: got %q, want %q", doc.Metadata.AvailableCredit, "R$ 9.654,33")
	}
	if doc.Metadata.StatementPeriod != "13/01 a 12/02" {
		t.Errorf("period: got %q, want %q", doc.Metadata.StatementPeriod, "13/01 a 12/02")
	}

	if len(doc.Transactions) != 4 {
		t.Fatalf("transactions: got %d, want 4", len(doc.Transactions))
	}

	pay := doc.Transactions[0]
	if pay.Type != models.TypePayment {
		t.Errorf("payment type: got %q, want %q", pay.Type, models.TypePayment)
	}
	if pay.AmountText != "-800,00" {
		t.Errorf("payment amount: got %q, want %q", pay.AmountText, "-800,00")
	}

	charge := doc.Transactions[1]
	if charge.DateText != "15/01" {
		t.Errorf("charge date: got %q, want %q", charge.DateText, "15/01")
	}
	if charge.Description != "PADARIA STELLA SAO PAULO" {
		t.Errorf("charge description: got %q", charge.Description)
	}
	if charge.AmountText != "38,90" {
		t.Errorf("charge amount: got %q, want %q", charge.AmountText, "38,90")
	}
	if charge.Type != "" {
		t.Errorf("charge type: got %q, want empty", charge.Type)
	}
	if !charge.DayFirst || !charge.DecimalComma {
		t.Errorf("locale flags: got dayFirst=%v decimalComma=%v, want both true", charge.DayFirst, charge.DecimalComma)
	}

	// Currency prefix stays inside the amount text.
	if got := doc.Transactions[2].AmountText; got != "R$ 250,00" {
		t.Errorf("txn[2].AmountText: got %q, want %q", got, "R$ 250,00")
	}
	if got := doc.Transactions[3].AmountText; got != "1.234,56" {
		t.Errorf("txn[3].AmountText: got %q, want %q", got, "1.234,56")
	}
}

func TestItauParser_DateLedLinesOpenSection(t *testing.T) {
	p := &ItauParser{}

	// Short faturas print charges without a lançamentos heading.
	pages := []models.ExtractedPage{textPage(0, `Vencimento: 10/02/2024
15/01 LOJA AMERICANA 99,90
16/01 FARMACIA DROGASIL 45,00`)}

	doc, err := p.Parse(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Transactions) != 2 {
		t.Fatalf("transactions: got %d, want 2", len(doc.Transactions))
	}
	if doc.Transactions[0].Description != "LOJA AMERICANA" {
		t.Errorf("description: got %q", doc.Transactions[0].Description)
	}
}

func TestItauParser_MalformedLineWarns(t *testing.T) {
	p := &ItauParser{}

	pages := []models.ExtractedPage{textPage(0, `Lançamentos
15/01 PADARIA STELLA 38,90
16/01 LINHA QUEBRADA 38,9
Total dos lançamentos`)}

	doc, err := p.Parse(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Transactions) != 1 {
		t.Fatalf("transactions: got %d, want 1", len(doc.Transactions))
	}
	if len(doc.Warnings) != 1 {
		t.Fatalf("warnings: got %d, want 1", len(doc.Warnings))
	}
	w := doc.Warnings[0]
	if w.Code != models.CodeUnparsableLine {
		t.Errorf("warning code: got %q, want %q", w.Code, models.CodeUnparsableLine)
	}
	if w.Page != 1 || w.Line != 3 {
		t.Errorf("warning position: got page %d line %d, want page 1 line 3", w.Page, w.Line)
	}
}
