package telegrambot

import "strings"

// splitMessage splits plain text into parts no longer than limit. It
// prefers splitting at line breaks, then at spaces, and only cuts
// mid-word as a last resort.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var parts []string

	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = strings.LastIndex(text[:limit], " ")
		}

		if cut <= 0 {
			cut = limit
		}

		parts = append(parts, strings.TrimSpace(text[:cut]))
		text = strings.TrimLeft(text[cut:], " \n")
	}

	if text != "" {
		parts = append(parts, text)
	}

	return parts
}
