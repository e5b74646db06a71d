package normalize

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		dayFirst bool
		year     int
		want     string
		wantErr  bool
	}{
		{name: "US slash full year", raw: "03/15/2024", year: 2024, want: "2024-03-15"},
		{name: "US slash no year", raw: "03/15", year: 2024, want: "2024-03-15"},
		{name: "US two digit year", raw: "03/15/24", year: 2020, want: "2024-03-15"},
		{name: "day first ambiguous", raw: "05/03/2024", dayFirst: true, year: 2024, want: "2024-03-05"},
		{name: "month first ambiguous", raw: "05/03/2024", dayFirst: false, year: 2024, want: "2024-05-03"},
		{name: "day forced by value", raw: "15/03/2024", dayFirst: false, year: 2024, want: "2024-03-15"},
		{name: "month forced by value", raw: "03/15/2024", dayFirst: true, year: 2024, want: "2024-03-15"},
		{name: "iso", raw: "2024-03-15", year: 2020, want: "2024-03-15"},
		{name: "english month day", raw: "Jan 15", year: 2024, want: "2024-01-15"},
		{name: "english month day year", raw: "Jan 15, 2024", year: 2020, want: "2024-01-15"},
		{name: "english day month", raw: "15 Jan 2024", year: 2020, want: "2024-01-15"},
		{name: "spanish dashed", raw: "05-ene.-24", dayFirst: true, year: 2020, want: "2024-01-05"},
		{name: "spanish full month", raw: "5 enero 2024", dayFirst: true, year: 2020, want: "2024-01-05"},
		{name: "spanish december", raw: "12-dic-23", dayFirst: true, year: 2020, want: "2023-12-12"},
		{name: "portuguese month", raw: "10 fev 2024", dayFirst: true, year: 2020, want: "2024-02-10"},
		{name: "portuguese december", raw: "02-dez-24", dayFirst: true, year: 2020, want: "2024-12-02"},
		{name: "both fields over twelve", raw: "15/15/2024", year: 2024, wantErr: true},
		{name: "nonexistent day", raw: "02/30/2024", year: 2024, wantErr: true},
		{name: "not a date", raw: "TOTAL", year: 2024, wantErr: true},
		{name: "empty", raw: "", year: 2024, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.raw, tt.dayFirst, tt.year)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDate(%q) = %v, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tt.raw, err)
			}
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.raw, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestHasYear(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"03/15/2024", true},
		{"03/15/24", true},
		{"03/15", false},
		{"Jan 15", false},
		{"Jan 15, 2024", true},
		{"05-ene.-24", true},
		{"15 Jan", false},
		{"2024-03-15", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := HasYear(tt.raw); got != tt.want {
				t.Errorf("HasYear(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDetectYear(t *testing.T) {
	if got := DetectYear("Statement Period: 12/01/2024 - 12/31/2024"); got != 2024 {
		t.Errorf("DetectYear() = %d, want 2024", got)
	}
	if got := DetectYear("Opening Date 2023-11-05"); got != 2023 {
		t.Errorf("DetectYear() = %d, want 2023", got)
	}
	if got := DetectYear("no year anywhere"); got != time.Now().Year() {
		t.Errorf("DetectYear() fallback = %d, want current year", got)
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		dayFirst  bool
		year      int
		wantStart string
		wantEnd   string
		wantOK    bool
	}{
		{
			name: "US slash", text: "12/15/2024 - 01/14/2025", year: 2024,
			wantStart: "2024-12-15", wantEnd: "2025-01-14", wantOK: true,
		},
		{
			name: "argentine", text: "01/05/2024 al 31/05/2024", dayFirst: true, year: 2024,
			wantStart: "2024-05-01", wantEnd: "2024-05-31", wantOK: true,
		},
		{
			name: "english months", text: "Nov 15, 2024 - Dec 14, 2024", year: 2024,
			wantStart: "2024-11-15", wantEnd: "2024-12-14", wantOK: true,
		},
		{name: "reversed", text: "12/31/2024 - 01/01/2024", year: 2024, wantOK: false},
		{name: "garbage", text: "Minimum Payment Due", year: 2024, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := ParsePeriod(tt.text, tt.dayFirst, tt.year)
			if ok != tt.wantOK {
				t.Fatalf("ParsePeriod(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if start.Format("2006-01-02") != tt.wantStart || end.Format("2006-01-02") != tt.wantEnd {
				t.Errorf("ParsePeriod(%q) = %s..%s, want %s..%s",
					tt.text, start.Format("2006-01-02"), end.Format("2006-01-02"), tt.wantStart, tt.wantEnd)
			}
		})
	}
}
