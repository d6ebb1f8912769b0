package contextbuilder

import (
	"strings"

	"github.com/lueurxax/assistant-bot/internal/platform/observability"
)

// Section names, in priority order. When the budget is tight, whole items
// are dropped from the lowest-priority end first.
const (
	SectionCoreFacts = "core_facts"
	SectionUserFacts = "user_facts"
	SectionRecent    = "recent_turns"
	SectionSemantic  = "semantic_matches"
)

// Section headers rendered into the prompt.
const (
	headerCoreFacts = "Core facts:"
	headerUserFacts = "What I know about the user:"
	headerRecent    = "Recent conversation:"
	headerSemantic  = "Related memories:"
)

// Input carries the memory layers to assemble, each already ordered by its
// own source (facts by creation, turns chronologically, matches by score).
type Input struct {
	CoreFacts       []string
	UserFacts       []string
	RecentTurns     []string
	SemanticMatches []string
}

// Result is the assembled context.
type Result struct {
	Text   string
	Tokens int
}

// Assembler builds prompt context under a token budget.
type Assembler struct {
	estimator *Estimator
	maxTokens int
}

// New creates an Assembler with the given budget.
func New(estimator *Estimator, maxTokens int) *Assembler {
	return &Assembler{
		estimator: estimator,
		maxTokens: maxTokens,
	}
}

type contextItem struct {
	section string
	text    string
	tokens  int
}

// Assemble renders the memory layers into prompt text. The output never
// exceeds the token budget: items are dropped whole, starting from the end
// of the lowest-priority section, so the same input always yields the same
// output.
func (a *Assembler) Assemble(input Input) Result {
	items := a.collect(input)

	total := 0
	for _, it := range items {
		total += it.tokens
	}

	for total > a.maxTokens && len(items) > 0 {
		last := items[len(items)-1]
		total -= last.tokens
		items = items[:len(items)-1]

		observability.ContextTruncations.WithLabelValues(last.section).Inc()
	}

	text := render(items)

	// Headers add tokens on top of the items; shed more items until the
	// rendered whole fits.
	tokens := a.estimator.Count(text)
	for tokens > a.maxTokens && len(items) > 0 {
		observability.ContextTruncations.WithLabelValues(items[len(items)-1].section).Inc()

		items = items[:len(items)-1]
		text = render(items)
		tokens = a.estimator.Count(text)
	}

	observability.ContextTokens.Observe(float64(tokens))

	return Result{Text: text, Tokens: tokens}
}

// collect flattens the input into a single priority-ordered item list.
func (a *Assembler) collect(input Input) []contextItem {
	items := make([]contextItem, 0, len(input.CoreFacts)+len(input.UserFacts)+len(input.RecentTurns)+len(input.SemanticMatches))

	add := func(section string, texts []string) {
		for _, t := range texts {
			if t == "" {
				continue
			}

			items = append(items, contextItem{
				section: section,
				text:    t,
				tokens:  a.estimator.Count(t),
			})
		}
	}

	add(SectionCoreFacts, input.CoreFacts)
	add(SectionUserFacts, input.UserFacts)
	add(SectionRecent, input.RecentTurns)
	add(SectionSemantic, input.SemanticMatches)

	return items
}

// render builds the final context text with one header per non-empty section.
func render(items []contextItem) string {
	headers := map[string]string{
		SectionCoreFacts: headerCoreFacts,
		SectionUserFacts: headerUserFacts,
		SectionRecent:    headerRecent,
		SectionSemantic:  headerSemantic,
	}

	var (
		sb          strings.Builder
		lastSection string
	)

	for _, it := range items {
		if it.section != lastSection {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}

			sb.WriteString(headers[it.section])
			sb.WriteString("\n")

			lastSection = it.section
		}

		sb.WriteString("- ")
		sb.WriteString(it.text)
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}
