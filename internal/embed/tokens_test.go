package embed

import "testing"

func TestHeuristicTokens(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 2}, // ceil(1 * 4/3)
		{"one two three", 4},
		{"a b c d e f", 8},
		{"hello world", 3},
	}
	for _, tc := range cases {
		if got := HeuristicTokens(tc.text); got != tc.want {
			t.Errorf("HeuristicTokens(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestTokenCounter_HeuristicFallback(t *testing.T) {
	c, err := NewTokenCounter("")
	if err != nil {
		t.Fatalf("NewTokenCounter error: %v", err)
	}
	if c.Exact() {
		t.Error("counter without a tokenizer file must not report exact")
	}
	if got := c.Count("one two three"); got != 4 {
		t.Errorf("Count = %d, want heuristic 4", got)
	}
}

func TestNewTokenCounter_MissingFile(t *testing.T) {
	if _, err := NewTokenCounter("/no/such/tokenizer.json"); err == nil {
		t.Fatal("expected an error for a missing tokenizer file")
	}
}
