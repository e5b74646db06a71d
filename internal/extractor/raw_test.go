package extractor

import (
	"reflect"
	"testing"
)

func TestUnescapePDF(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"plain", "no escapes", "no escapes"},
		{"newline and tab", `line\none\ttab`, "line\none\ttab"},
		{"escaped parens", `\(nested\)`, "(nested)"},
		{"backslash", `a\\b`, `a\b`},
		{"octal", `\101\102\103`, "ABC"},
		{"octal stops at non digit", `\12!`, "\n!"},
		{"trailing backslash", `end\`, `end\`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unescapePDF(tt.in); got != tt.want {
				t.Errorf("unescapePDF(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseCMap(t *testing.T) {
	content := `begincmap
beginbfchar
<0041> <0053>
<0042> <0074>
endbfchar
beginbfrange
<0050> <0052> <0061>
endbfrange
endcmap`

	dst := map[string]string{}
	parseCMap(content, dst)

	want := map[string]string{
		"0041": "S",
		"0042": "t",
		"0050": "a",
		"0051": "b",
		"0052": "c",
	}
	if !reflect.DeepEqual(dst, want) {
		t.Errorf("cmap: got %v, want %v", dst, want)
	}
}

func TestParseCMap_ArrayRange(t *testing.T) {
	content := `beginbfrange
<01> <03> [<0058> <0059> <005A>]
endbfrange`

	dst := map[string]string{}
	parseCMap(content, dst)

	want := map[string]string{"01": "X", "02": "Y", "03": "Z"}
	if !reflect.DeepEqual(dst, want) {
		t.Errorf("cmap: got %v, want %v", dst, want)
	}
}

func TestCMapDecode(t *testing.T) {
	cm := &cmap{codes: map[string]string{"0041": "S", "0042": "t"}}

	if got := cm.decode([]byte{0x00, 0x41, 0x00, 0x42, 0x00, 0x41}); got != "StS" {
		t.Errorf("decode: got %q, want %q", got, "StS")
	}

	var missing *cmap
	if got := missing.decode([]byte{0x41}); got != "" {
		t.Errorf("nil cmap decode: got %q, want empty", got)
	}
}

func TestDecodeTJArray(t *testing.T) {
	cm := &cmap{codes: map[string]string{"21": "!"}}

	got := decodeTJArray(`(Pay)-20(ment due)15<21>`, cm)

	if got != "Payment due!" {
		t.Errorf("TJ array: got %q, want %q", got, "Payment due!")
	}
}

func TestExtractRaw_LineBreaksFromPositioning(t *testing.T) {
	data := []byte(`stream
BT
(Minimum Payment:) Tj
12 0 Td
($25.00) Tj
0 -14 TD
(Thank you) Tj
ET
endstream`)

	pages := extractRaw(data)

	if len(pages) != 1 {
		t.Fatalf("pages: got %d, want 1", len(pages))
	}
	want := "Minimum Payment:\n$25.00\nThank you"
	if pages[0].Text != want {
		t.Errorf("text:\n got %q\nwant %q", pages[0].Text, want)
	}
}
