package fuzzy

import "testing"

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"invoice", "invoice", 0},
		{"invoice", "invioce", 2},
		{"budget", "gadget", 2},
		{"flaw", "lawn", 2},
	}

	for _, tt := range tests {
		if got := Distance(tt.a, tt.b); got != tt.want {
			t.Errorf("Distance(%q, %q) = %d; want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilar(t *testing.T) {
	tests := []struct {
		name      string
		a, b      string
		threshold float64
		want      bool
	}{
		{"identical", "invoice", "invoice", DefaultThreshold, true},
		{"transposition within threshold", "invoice", "invioce", DefaultThreshold, true},
		{"case insensitive", "Invoice", "invoice", DefaultThreshold, true},
		{"unrelated words", "invoice", "meeting", DefaultThreshold, false},
		{"both empty", "", "", DefaultThreshold, true},
		{"one empty", "a", "", DefaultThreshold, false},
		{"exact boundary", "abcdefghij", "abcdefgzzz", 0.3, true}, // 3/10 == 0.3
		{"just past boundary", "abcdefghij", "abcdefzzzz", 0.3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similar(tt.a, tt.b, tt.threshold); got != tt.want {
				t.Errorf("Similar(%q, %q, %v) = %v; want %v", tt.a, tt.b, tt.threshold, got, tt.want)
			}
		})
	}
}
