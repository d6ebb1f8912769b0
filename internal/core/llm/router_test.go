package llm

import (
	"testing"
)

const testErrClassifyFmt = "classify(%q) = %q, want %q"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected TaskType
	}{
		{"plain greeting", "hi there, how are you doing today?", TaskTypeConversation},
		{"empty text", "", TaskTypeConversation},
		{"emotional support", "I feel really anxious about tomorrow", TaskTypeEmotionalSupport},
		{"technical keyword", "my python script throws an error", TaskTypeTechnical},
		{"code fence", "what does this do?\n```\nfmt.Println(1)\n```", TaskTypeTechnical},
		{"creative", "write me a short poem about autumn", TaskTypeCreative},
		{"analysis", "compare these two approaches for me", TaskTypeAnalysis},
		{"research", "explain how photosynthesis works", TaskTypeResearch},
		{"problem solving", "I have a problem with my bike lock", TaskTypeProblemSolving},
		{"summarization", "give me a tldr of this article", TaskTypeSummarization},
		{"translation", "translate this to french please", TaskTypeTranslation},
		{"keyword inside word ignored", "the scoder conference was great", TaskTypeConversation},
		{"stem variant feeling", "I'm feeling overwhelmed today", TaskTypeEmotionalSupport},
		{"stem variant summarized", "give me a summarized version of this article", TaskTypeSummarization},
		{"stem variant debugging", "she was debugging all night", TaskTypeTechnical},
		{"stem variant writing", "I enjoy writing short stories", TaskTypeCreative},
		{"precedence emotional over technical", "I feel bad about this code", TaskTypeEmotionalSupport},
		{"case insensitive", "CAN YOU ANALYZE THIS?", TaskTypeAnalysis},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.text, "")

			if got != tt.expected {
				t.Errorf(testErrClassifyFmt, tt.text, got, tt.expected)
			}
		})
	}
}

func TestClassify_Override(t *testing.T) {
	got := classify("write me a poem", TaskTypeTranslation)
	if got != TaskTypeTranslation {
		t.Errorf("classify() with override = %q, want %q", got, TaskTypeTranslation)
	}

	// An unknown override falls back to keyword classification.
	got = classify("write me a poem", TaskType("bogus"))
	if got != TaskTypeCreative {
		t.Errorf("classify() with invalid override = %q, want %q", got, TaskTypeCreative)
	}
}

func TestIsValidTask(t *testing.T) {
	for _, task := range taskPrecedence {
		if !IsValidTask(task) {
			t.Errorf("IsValidTask(%q) = false, want true", task)
		}
	}

	if !IsValidTask(TaskTypeConversation) {
		t.Error("IsValidTask(conversation) = false, want true")
	}

	if IsValidTask(TaskType("nonsense")) {
		t.Error("IsValidTask(nonsense) = true, want false")
	}
}

func TestContainsWord(t *testing.T) {
	tests := []struct {
		text     string
		keyword  string
		expected bool
	}{
		{"fix my code", "code", true},
		{"the encoder broke", "code", false},
		{"code review time", "code", true},
		{"code", "code", true},
		{"barcode", "code", false},
		{"code-golf", "code", true},
		{"", "code", false},
	}

	for _, tt := range tests {
		if got := containsWord(tt.text, tt.keyword); got != tt.expected {
			t.Errorf("containsWord(%q, %q) = %v, want %v", tt.text, tt.keyword, got, tt.expected)
		}
	}
}

func TestDefaultTaskChains_KnownProviders(t *testing.T) {
	if err := validateChains(DefaultTaskChains()); err != nil {
		t.Errorf("validateChains() error = %v", err)
	}

	chains := DefaultTaskChains()
	for _, task := range taskPrecedence {
		if len(chains[task]) == 0 {
			t.Errorf("DefaultTaskChains() missing chain for %q", task)
		}
	}

	if len(chains[TaskTypeConversation]) == 0 {
		t.Error("DefaultTaskChains() missing chain for conversation")
	}
}

func TestValidateChains_UnknownProvider(t *testing.T) {
	chains := map[TaskType][]ProviderName{
		TaskTypeConversation: {ProviderName("gemini")},
	}

	if err := validateChains(chains); err == nil {
		t.Error("validateChains() expected error for unknown provider")
	}
}
