package writer

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"strings"
	"testing"

	"github.com/cardlens/statement-converter/internal/models"
)

func sampleData() *models.ResultData {
	return &models.ResultData{
		Headers: []string{"Date", "Description", "Amount", "Type", "Category", "Reference"},
		Rows: [][]string{
			{"2024-01-15", "COFFEE, SHOP", "-4.50", "Purchase", "Restaurants", ""},
			{"2024-01-16", `JOE'S "DINER"`, "-25.00", "Purchase", "Restaurants", "84521"},
			{"2024-01-20", "PAYMENT THANK YOU", "500.00", "Payment", "", ""},
		},
		Metadata: models.ResultMetadata{
			TotalTransactions: 3,
			StatementPeriod:   "01/01/2024 to 31/01/2024",
			BankName:          "Itaú",
		},
	}
}

func TestWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := &Writer{}
	if err := w.Write(&buf, sampleData()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "\uFEFF") {
		t.Error("output missing UTF-8 BOM")
	}

	want := "\uFEFF" +
		"Date,Description,Amount,Type,Category,Reference\n" +
		"2024-01-15,\"COFFEE, SHOP\",-4.50,Purchase,Restaurants,\n" +
		"2024-01-16,\"JOE'S \"\"DINER\"\"\",-25.00,Purchase,Restaurants,84521\n" +
		"2024-01-20,PAYMENT THANK YOU,500.00,Payment,,\n"
	if out != want {
		t.Errorf("output:\n got %q\nwant %q", out, want)
	}
}

func TestWriter_MetadataRows(t *testing.T) {
	var buf bytes.Buffer
	w := &Writer{IncludeMetadata: true}
	if err := w.Write(&buf, sampleData()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Bank,Itaú\n",
		"# Statement Period,01/01/2024 to 31/01/2024\n",
		"# Transactions,3\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing metadata row %q", want)
		}
	}
	// Unset fields stay out.
	if strings.Contains(out, "# Due Date") {
		t.Error("output has a metadata row for an unset field")
	}
	// Metadata comes before the column headers.
	if strings.Index(out, "# Bank") > strings.Index(out, "Date,Description") {
		t.Error("metadata rows below the column headers")
	}
}

func TestWriter_RoundTrip(t *testing.T) {
	data := sampleData()

	w := &Writer{}
	rendered := w.Render(data)

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(rendered, []byte("\uFEFF"))))
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if len(records) != 1+len(data.Rows) {
		t.Fatalf("records: got %d, want %d", len(records), 1+len(data.Rows))
	}
	if !reflect.DeepEqual(records[0], data.Headers) {
		t.Errorf("headers:\n got %q\nwant %q", records[0], data.Headers)
	}
	for i, row := range data.Rows {
		if !reflect.DeepEqual(records[i+1], row) {
			t.Errorf("row %d:\n got %q\nwant %q", i, records[i+1], row)
		}
	}
}

func TestEscapeCell(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"plain", "COFFEE SHOP", "COFFEE SHOP"},
		{"comma", "COFFEE, SHOP", `"COFFEE, SHOP"`},
		{"quote", `5" DISPLAY`, `"5"" DISPLAY"`},
		{"newline", "LINE\nBREAK", "\"LINE\nBREAK\""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeCell(tt.in); got != tt.want {
				t.Errorf("escapeCell(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
