package llm

import (
	"strings"

	"github.com/lueurxax/assistant-bot/internal/platform/observability"
)

// TaskType identifies the category of an incoming message. It determines
// which provider chain handles the request.
type TaskType string

// Task type constants.
const (
	TaskTypeConversation     TaskType = "conversation"
	TaskTypeEmotionalSupport TaskType = "emotional_support"
	TaskTypeTechnical        TaskType = "technical"
	TaskTypeCreative         TaskType = "creative"
	TaskTypeAnalysis         TaskType = "analysis"
	TaskTypeResearch         TaskType = "research"
	TaskTypeProblemSolving   TaskType = "problem_solving"
	TaskTypeSummarization    TaskType = "summarization"
	TaskTypeTranslation      TaskType = "translation"
)

// taskKeywords maps each category to the keywords that signal it. Categories
// are checked in the order of taskPrecedence, first match wins.
//
//nolint:gochecknoglobals
var taskKeywords = map[TaskType][]string{
	TaskTypeEmotionalSupport: {"sad", "depressed", "anxious", "worried", "upset", "feel", "feeling", "feelings", "emotion"},
	TaskTypeTechnical:        {"code", "coding", "programming", "function", "algorithm", "debug", "debugging", "error", "python", "javascript"},
	TaskTypeCreative:         {"story", "write", "writing", "creative", "poem", "fiction", "character"},
	TaskTypeAnalysis:         {"analyze", "analyzing", "analysis", "compare", "evaluate", "review", "assess"},
	TaskTypeResearch:         {"research", "information", "fact", "explain", "learn", "study"},
	TaskTypeProblemSolving:   {"problem", "solve", "solution", "help", "fix", "issue"},
	TaskTypeSummarization:    {"summarize", "summarized", "summarizing", "summary", "brief", "overview", "tldr"},
	TaskTypeTranslation:      {"translate", "translating", "translation", "language"},
}

// taskPrecedence fixes the evaluation order so classification stays
// deterministic when a message matches several categories.
//
//nolint:gochecknoglobals
var taskPrecedence = []TaskType{
	TaskTypeEmotionalSupport,
	TaskTypeTechnical,
	TaskTypeCreative,
	TaskTypeAnalysis,
	TaskTypeResearch,
	TaskTypeProblemSolving,
	TaskTypeSummarization,
	TaskTypeTranslation,
}

// IsValidTask reports whether t names a known task category.
func IsValidTask(t TaskType) bool {
	if t == TaskTypeConversation {
		return true
	}

	for _, known := range taskPrecedence {
		if t == known {
			return true
		}
	}

	return false
}

// Classify determines the task category for a message. An explicit valid
// override wins; otherwise the message text is matched against keyword sets.
// Classification never fails: anything unmatched is a conversation.
func Classify(text string, override TaskType) TaskType {
	task := classify(text, override)

	observability.TaskClassifications.WithLabelValues(string(task)).Inc()

	return task
}

func classify(text string, override TaskType) TaskType {
	if override != "" && IsValidTask(override) {
		return override
	}

	lower := strings.ToLower(text)

	// Code fences are a strong technical signal regardless of keywords.
	if strings.Contains(lower, "```") {
		return TaskTypeTechnical
	}

	for _, task := range taskPrecedence {
		for _, keyword := range taskKeywords[task] {
			if containsWord(lower, keyword) {
				return task
			}
		}
	}

	return TaskTypeConversation
}

// containsWord matches keyword as a whole word inside text.
func containsWord(text, keyword string) bool {
	idx := 0

	for {
		i := strings.Index(text[idx:], keyword)
		if i < 0 {
			return false
		}

		start := idx + i
		end := start + len(keyword)

		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])

		if beforeOK && afterOK {
			return true
		}

		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_'
}

// DefaultTaskChains returns the provider preference order per task category.
// Providers missing from a chain are appended by registration priority at
// lookup time, so every registered provider remains reachable as a fallback.
func DefaultTaskChains() map[TaskType][]ProviderName {
	return map[TaskType][]ProviderName{
		TaskTypeConversation:     {ProviderDeepSeek, ProviderOpenAI, ProviderAnthropic},
		TaskTypeEmotionalSupport: {ProviderAnthropic, ProviderOpenAI, ProviderDeepSeek},
		TaskTypeTechnical:        {ProviderAnthropic, ProviderDeepSeek, ProviderOpenAI},
		TaskTypeCreative:         {ProviderAnthropic, ProviderOpenAI, ProviderDeepSeek},
		TaskTypeAnalysis:         {ProviderAnthropic, ProviderOpenAI, ProviderDeepSeek},
		TaskTypeResearch:         {ProviderOpenAI, ProviderAnthropic, ProviderDeepSeek},
		TaskTypeProblemSolving:   {ProviderAnthropic, ProviderOpenAI, ProviderDeepSeek},
		TaskTypeSummarization:    {ProviderOpenAI, ProviderDeepSeek, ProviderAnthropic},
		TaskTypeTranslation:      {ProviderOpenAI, ProviderDeepSeek, ProviderAnthropic},
	}
}
