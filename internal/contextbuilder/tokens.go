// Package contextbuilder assembles the prompt context for a message from
// the memory layers under a fixed token budget.
package contextbuilder

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const (
	tokenEncoding = "cl100k_base"

	// Fallback approximation when the tokenizer is unavailable.
	charsPerToken = 4
)

// Estimator counts tokens using the cl100k_base encoding with a character
// heuristic as fallback.
type Estimator struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewEstimator creates a token estimator. The tokenizer is loaded lazily on
// first use.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Count returns the number of tokens in text.
func (e *Estimator) Count(text string) int {
	if text == "" {
		return 0
	}

	e.once.Do(func() {
		enc, err := tiktoken.GetEncoding(tokenEncoding)
		if err == nil {
			e.enc = enc
		}
	})

	if e.enc == nil {
		return (len(text) + charsPerToken - 1) / charsPerToken
	}

	return len(e.enc.Encode(text, nil, nil))
}
