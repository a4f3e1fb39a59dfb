package textnorm

import (
	"math/rand"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases text",
			input:    "EXPLAIN The KDD Process",
			expected: "explain the kdd process",
		},
		{
			name:     "strips inline page annotations",
			input:    "explain paging page 3 and segmentation",
			expected: "explain paging and segmentation",
		},
		{
			name:     "strips dashed page number lines",
			input:    "first question\n- 2 -\nsecond question",
			expected: "first question\n\nsecond question",
		},
		{
			name:     "strips bracketed page number lines",
			input:    "first question\n[4]\nsecond question",
			expected: "first question\n\nsecond question",
		},
		{
			name:     "collapses space runs",
			input:    "q1.   define    deadlock",
			expected: "q1. define deadlock",
		},
		{
			name:     "caps newline runs at paragraph breaks",
			input:    "section a\n\n\n\n\nsection b",
			expected: "section a\n\nsection b",
		},
		{
			name:     "trims line edges and overall whitespace",
			input:    "  \t q1. define deadlock \t \n",
			expected: "q1. define deadlock",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	text := Normalize("Q1. Explain the process scheduling algorithms. [7 marks]")

	first := Fingerprint(text)
	second := Fingerprint(text)

	if first != second {
		t.Errorf("fingerprint not deterministic: %s != %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("expected 64-char hex digest, got %d chars", len(first))
	}
}

func TestFingerprintIgnoresWhitespaceAndPageNumbers(t *testing.T) {
	base := "q1. explain virtual memory\nq2. describe page replacement"
	variants := []string{
		"q1.  explain   virtual memory\n\nq2. describe page replacement",
		"q1. explain virtual memory\nPage 2\nq2. describe page replacement",
		"  q1. explain virtual memory  \n- 1 -\n  q2. describe page replacement  ",
		"Q1. EXPLAIN VIRTUAL MEMORY\nq2. describe PAGE replacement",
	}

	want := Fingerprint(Normalize(base))
	for _, v := range variants {
		if got := Fingerprint(Normalize(v)); got != want {
			t.Errorf("variant %q fingerprinted to %s, want %s", v, got, want)
		}
	}
}

// Property test: inserting random whitespace anywhere must not change the
// fingerprint, while changing any retained character must.
func TestFingerprintWhitespaceInsertionProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := "q1. explain deadlock detection and recovery with an example"
	want := Fingerprint(base)

	for i := 0; i < 100; i++ {
		pos := rng.Intn(len(base))
		ws := []string{" ", "\t", "\n", "  ", "\n\n"}[rng.Intn(5)]
		mutated := base[:pos] + ws + base[pos:]

		if got := Fingerprint(mutated); got != want {
			t.Fatalf("whitespace insertion at %d changed fingerprint", pos)
		}
	}

	changed := strings.Replace(base, "deadlock", "livelock", 1)
	if Fingerprint(changed) == want {
		t.Error("distinct content produced identical fingerprint")
	}
}

func TestHasQuestionNumbering(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1. explain paging", true},
		{"Q1: define process", true},
		{"question 4 carries 10 marks", true},
		{"general instructions for candidates", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := HasQuestionNumbering(tt.input); got != tt.want {
			t.Errorf("HasQuestionNumbering(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
