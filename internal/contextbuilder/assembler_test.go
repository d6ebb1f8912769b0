package contextbuilder

import (
	"strings"
	"testing"
)

func testInput() Input {
	return Input{
		CoreFacts:       []string{"name: Alex", "city: Lisbon"},
		UserFacts:       []string{"likes: espresso", "pet: a cat named Miso"},
		RecentTurns:     []string{"user: good morning", "assistant: morning! sleep well?"},
		SemanticMatches: []string{"user mentioned training for a half marathon"},
	}
}

func TestAssemble_NeverExceedsBudget(t *testing.T) {
	estimator := NewEstimator()

	for _, budget := range []int{1, 5, 10, 25, 50, 200} {
		assembler := New(estimator, budget)

		result := assembler.Assemble(testInput())
		if result.Tokens > budget {
			t.Errorf("Assemble() with budget %d produced %d tokens", budget, result.Tokens)
		}
	}
}

func TestAssemble_Deterministic(t *testing.T) {
	assembler := New(NewEstimator(), 30)

	first := assembler.Assemble(testInput())
	second := assembler.Assemble(testInput())

	if first.Text != second.Text || first.Tokens != second.Tokens {
		t.Errorf("Assemble() not deterministic: %q vs %q", first.Text, second.Text)
	}
}

func TestAssemble_AllSectionsUnderGenerousBudget(t *testing.T) {
	assembler := New(NewEstimator(), 10000)

	result := assembler.Assemble(testInput())

	for _, header := range []string{headerCoreFacts, headerUserFacts, headerRecent, headerSemantic} {
		if !strings.Contains(result.Text, header) {
			t.Errorf("Assemble() missing header %q in:\n%s", header, result.Text)
		}
	}

	if !strings.Contains(result.Text, "- name: Alex") {
		t.Errorf("Assemble() missing core fact item in:\n%s", result.Text)
	}
}

func TestAssemble_DropsLowestPriorityFirst(t *testing.T) {
	estimator := NewEstimator()
	input := testInput()

	// Find a budget that forces some truncation but keeps the core facts.
	full := New(estimator, 10000).Assemble(input)

	assembler := New(estimator, full.Tokens-1)
	result := assembler.Assemble(input)

	if strings.Contains(result.Text, headerSemantic) {
		t.Errorf("Assemble() kept semantic section under tight budget:\n%s", result.Text)
	}

	if !strings.Contains(result.Text, headerCoreFacts) {
		t.Errorf("Assemble() dropped core facts before semantic matches:\n%s", result.Text)
	}
}

func TestAssemble_EmptyInput(t *testing.T) {
	assembler := New(NewEstimator(), 100)

	result := assembler.Assemble(Input{})
	if result.Text != "" || result.Tokens != 0 {
		t.Errorf("Assemble(empty) = (%q, %d), want empty", result.Text, result.Tokens)
	}
}

func TestAssemble_SkipsEmptyItems(t *testing.T) {
	assembler := New(NewEstimator(), 100)

	result := assembler.Assemble(Input{CoreFacts: []string{"", "tz: UTC"}})
	if strings.Contains(result.Text, "- \n") {
		t.Errorf("Assemble() rendered an empty item:\n%s", result.Text)
	}

	if !strings.Contains(result.Text, "- tz: UTC") {
		t.Errorf("Assemble() missing non-empty item:\n%s", result.Text)
	}
}

func TestEstimatorCount(t *testing.T) {
	estimator := NewEstimator()

	if got := estimator.Count(""); got != 0 {
		t.Errorf("Count(\"\") = %d, want 0", got)
	}

	short := estimator.Count("hello")
	long := estimator.Count("hello there, this is a much longer sentence about nothing in particular")

	if short <= 0 {
		t.Errorf("Count(short) = %d, want > 0", short)
	}

	if long <= short {
		t.Errorf("Count(long) = %d, want > %d", long, short)
	}
}
