package inventory

import "testing"

func TestInchesToPixels(t *testing.T) {
	tests := []struct {
		input    float64
		expected int
	}{
		{0, 0},
		{1, 96},
		{0.5, 48},
		{8.5, 816},
		{-1, -96},
		{0.3, 29},
	}

	for _, tt := range tests {
		result := InchesToPixels(tt.input)
		if result != tt.expected {
			t.Errorf("InchesToPixels(%v) = %d, expected %d", tt.input, result, tt.expected)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
		ok       bool
	}{
		{"light", ModeLight, true},
		{"standard", ModeStandard, true},
		{"verbose", ModeVerbose, true},
		{"", ModeStandard, true},
		{"full", "", false},
	}

	for _, tt := range tests {
		result, err := ParseMode(tt.input)
		if (err == nil) != tt.ok {
			t.Errorf("ParseMode(%q) error = %v, expected ok=%v", tt.input, err, tt.ok)
			continue
		}
		if result != tt.expected {
			t.Errorf("ParseMode(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}
