package telegrambot

import (
	"strings"
	"testing"
)

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		limit    int
		expected []string
	}{
		{
			name:     "short text untouched",
			text:     "hello",
			limit:    10,
			expected: []string{"hello"},
		},
		{
			name:     "empty text",
			text:     "",
			limit:    10,
			expected: []string{""},
		},
		{
			name:     "splits at line break",
			text:     "first line\nsecond line",
			limit:    15,
			expected: []string{"first line", "second line"},
		},
		{
			name:     "splits at space when no line break",
			text:     "one two three four",
			limit:    10,
			expected: []string{"one two", "three four"},
		},
		{
			name:     "hard cut without separators",
			text:     "abcdefghij",
			limit:    4,
			expected: []string{"abcd", "efgh", "ij"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitMessage(tt.text, tt.limit)

			if len(got) != len(tt.expected) {
				t.Fatalf("splitMessage() = %q, want %q", got, tt.expected)
			}

			for i := range tt.expected {
				if got[i] != tt.expected[i] {
					t.Errorf("splitMessage()[%d] = %q, want %q", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestSplitMessage_PartsRespectLimit(t *testing.T) {
	text := strings.Repeat("some words in a long message ", 300)

	for _, part := range splitMessage(text, messageLimit) {
		if len(part) > messageLimit {
			t.Errorf("part length %d exceeds limit %d", len(part), messageLimit)
		}

		if part == "" {
			t.Error("splitMessage() produced an empty part")
		}
	}
}
