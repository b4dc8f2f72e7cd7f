package parser

import "testing"

func TestParseRating(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		// Numbers with separators
		{"dot decimal", "4.5 stars", 4.5},
		{"comma decimal", "4,5", 4.5},
		{"comma decimal with label", "4,7 Sterne", 4.7},
		{"integer", "5 stars", 5.0},

		// Other scripts
		{"arabic-indic digits", "٤,٥ نجوم", 4.5},
		{"arabic decimal separator", "٤٫٢", 4.2},
		{"devanagari digits", "३.८ stars", 3.8},
		{"fullwidth digits", "４．５", 4.0},

		// First match wins
		{"first number wins", "Rated 3.9 stars by 120 reviews", 3.9},
		{"number in the middle", "Average: 4.2 (1,234)", 4.2},

		// No number
		{"empty", "", 0},
		{"only letters", "No reviews", 0},
		{"only punctuation", ".,.,", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRating(tt.input)
			diff := got - tt.expected
			if diff < 0 {
				diff = -diff
			}
			if diff > 0.0001 {
				t.Errorf("ParseRating(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
