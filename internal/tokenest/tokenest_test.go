package tokenest

import "testing"

func TestEstimateBasic(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"hello", 1},
		{"hello world", 3},
		{"hello, world!", 3},
	}
	for _, c := range cases {
		got := Estimate(c.text)
		if got != c.want {
			t.Errorf("Estimate(%q) = %d, want %d", c.text, got, c.want)
		}
	}
}

func TestEstimateIdempotent(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog, 42 times."
	a := Estimate(text)
	b := Estimate(text)
	if a != b {
		t.Fatalf("Estimate not idempotent: %d != %d", a, b)
	}
}

func TestEstimateLocaleIndependent(t *testing.T) {
	// Non-ASCII letters still count as word runes.
	text := "café naïve日本語"
	got := Estimate(text)
	if got <= 0 {
		t.Fatalf("expected positive estimate, got %d", got)
	}
}

func TestSumMatchesEstimateAll(t *testing.T) {
	texts := []string{"one two", "three", ""}
	all := EstimateAll(texts)
	total := 0
	for _, v := range all {
		total += v
	}
	if got := Sum(texts...); got != total {
		t.Fatalf("Sum() = %d, want %d", got, total)
	}
}
