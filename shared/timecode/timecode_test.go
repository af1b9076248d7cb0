package timecode

import (
	"math"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"Hours minutes seconds", "01:02:03", 3723},
		{"Minutes seconds", "02:05", 125},
		{"Empty", "", 0},
		{"Whitespace", "   ", 0},
		{"Single component", "75", 0},
		{"Too many components", "1:2:3:4", 0},
		{"Letters", "ab:cd", 0},
		{"Negative", "-1:30", 0},
		{"Fractional seconds truncated", "01:02.75", 62},
		{"Padded", " 00:07 ", 7},
		{"Unpadded", "1:05", 65},
		{"Minutes above sixty", "90:00", 5400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.in); got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLooks(t *testing.T) {
	for in, want := range map[string]bool{
		"00:05":     true,
		"1:02:03":   true,
		"00:05.5":   true,
		"objects":   false,
		"12":        false,
		"a:b":       false,
		"1:2:3:4":   false,
		"":          false,
		"10:00 am?": false,
	} {
		if got := Looks(in); got != want {
			t.Errorf("Looks(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{4, "0:04"},
		{83.9, "1:23"},
		{5025, "1:23:45"},
		{-3, "0:00"},
		{math.NaN(), "—"},
	}
	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Errorf("Format(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFormatClockRoundTrip(t *testing.T) {
	for _, secs := range []float64{0, 7, 125, 3723} {
		if got := Parse(FormatClock(secs)); got != secs {
			t.Errorf("Parse(FormatClock(%v)) = %v", secs, got)
		}
	}
}
