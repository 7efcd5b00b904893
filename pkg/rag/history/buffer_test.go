package history

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestAppendDropsOldestOnOverflow(t *testing.T) {
	b := NewBuffer(nil)
	for i := 0; i < DefaultCapacity+3; i++ {
		b.Append("s1", "user", fmt.Sprintf("turn-%d", i))
	}

	turns := b.Turns("s1")
	if len(turns) != DefaultCapacity {
		t.Fatalf("window size = %d, want %d", len(turns), DefaultCapacity)
	}
	if turns[0].Text != "turn-3" {
		t.Errorf("oldest surviving turn = %q, want turn-3", turns[0].Text)
	}
	if turns[len(turns)-1].Text != fmt.Sprintf("turn-%d", DefaultCapacity+2) {
		t.Errorf("newest turn = %q", turns[len(turns)-1].Text)
	}
}

func TestDecayWeightSchedule(t *testing.T) {
	cases := []struct {
		age  int
		want float64
	}{
		{0, 1.0},
		{1, 0.6},
		{2, 0.36},
		{5, 0.07776},
		{6, 0.02},
		{100, 0.02},
	}
	for _, tc := range cases {
		got := DecayWeight(tc.age)
		if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("DecayWeight(%d) = %v, want %v", tc.age, got, tc.want)
		}
	}
}

func TestCondensedDropsLowWeightTurns(t *testing.T) {
	b := NewBuffer(nil)
	for i := 0; i < 10; i++ {
		b.Append("s1", "user", fmt.Sprintf("msg-%d", i))
	}

	out := b.Condensed("s1", 12, 4000)

	// Ages 0..4 survive (weights 1.0 .. 0.1296); age 5+ fall below 0.1.
	for i := 5; i <= 9; i++ {
		if !strings.Contains(out, fmt.Sprintf("msg-%d", i)) {
			t.Errorf("turn msg-%d (weight >= 0.1) should survive", i)
		}
	}
	for i := 0; i <= 4; i++ {
		if strings.Contains(out, fmt.Sprintf("msg-%d", i)) {
			t.Errorf("turn msg-%d (weight < 0.1) should be dropped", i)
		}
	}
}

func TestCondensedPreservesChronologicalOrder(t *testing.T) {
	b := NewBuffer(nil)
	b.Append("s1", "user", "alpha")
	b.Append("s1", "assistant", "beta")
	b.Append("s1", "user", "gamma")

	out := b.Condensed("s1", 12, 4000)
	ia, ib, ic := strings.Index(out, "alpha"), strings.Index(out, "beta"), strings.Index(out, "gamma")
	if ia < 0 || ib < 0 || ic < 0 || ia > ib || ib > ic {
		t.Errorf("survivors out of chronological order: %q", out)
	}
}

func TestCondensedHardTruncatesToMaxChars(t *testing.T) {
	b := NewBuffer(nil)
	b.Append("s1", "user", strings.Repeat("x", 500))
	out := b.Condensed("s1", 12, 100)
	if len(out) > 100 {
		t.Errorf("len = %d, want <= 100", len(out))
	}
}

func TestCondensedTruncationKeepsValidUTF8(t *testing.T) {
	b := NewBuffer(nil)
	b.Append("s1", "user", strings.Repeat("£", 400))

	for _, maxChars := range []int{0, 50, 100, 301} {
		out := b.Condensed("s1", 12, maxChars)
		if !utf8.ValidString(out) {
			t.Errorf("maxChars=%d: condensed output must stay valid UTF-8", maxChars)
		}
	}
}

func TestCondensedPrependsStyleHint(t *testing.T) {
	b := NewBuffer(nil)
	b.Append("s1", "user", "hello")
	out := b.Condensed("s1", 12, 4000)
	if !strings.HasPrefix(out, "Style:") {
		t.Errorf("style hint must lead the condensed context, got %q", out)
	}
}

func TestSanitizerRedactsPII(t *testing.T) {
	s := NewSanitizer()
	in := "email me at jo.bloggs@example.ac.uk or call +44 7911 123456"
	out := s.Sanitize(in)
	if strings.Contains(out, "example.ac.uk") {
		t.Error("email should be redacted")
	}
	if strings.Contains(out, "7911") {
		t.Error("phone should be redacted")
	}
	if !strings.Contains(out, "[email]") || !strings.Contains(out, "[phone]") {
		t.Errorf("placeholders missing: %q", out)
	}
}

func TestSanitizerProtectsCitationLines(t *testing.T) {
	s := NewSanitizer()
	in := "[S1] Admissions contact: admissions@uni.example.com"
	if out := s.Sanitize(in); out != in {
		t.Errorf("citation line must be preserved verbatim, got %q", out)
	}
}

func TestBufferAppendSanitizes(t *testing.T) {
	b := NewBuffer(NewSanitizer())
	b.Append("s1", "user", "reach me on test@example.com")
	turns := b.Turns("s1")
	if strings.Contains(turns[0].Text, "example.com") {
		t.Error("stored text must be sanitized")
	}
}
