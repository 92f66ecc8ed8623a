package embed

import (
	"strings"

	tokenizer "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// TokenCounter estimates how many tokens a text costs. Used for batch
// budgeting and metered-cost estimation before paid calls.
type TokenCounter struct {
	tok *tokenizer.Tokenizer
}

// NewTokenCounter loads a tokenizer.json when a path is given. With an empty
// path the counter falls back to a word-ratio heuristic; the real tokenizer
// is preferred whenever the provider ships one.
func NewTokenCounter(tokenizerPath string) (*TokenCounter, error) {
	if tokenizerPath == "" {
		return &TokenCounter{}, nil
	}
	tok, err := pretrained.FromFile(tokenizerPath)
	if err != nil {
		return nil, err
	}
	return &TokenCounter{tok: tok}, nil
}

// Count returns the token count for text.
func (c *TokenCounter) Count(text string) int {
	if c != nil && c.tok != nil {
		return CountTokens(c.tok, text)
	}
	return HeuristicTokens(text)
}

// Exact reports whether a real tokenizer backs this counter.
func (c *TokenCounter) Exact() bool {
	return c != nil && c.tok != nil
}

// CountTokens counts tokens with a loaded tokenizer.
func CountTokens(tok *tokenizer.Tokenizer, text string) int {
	encoding, err := tok.EncodeSingle(text)
	if err != nil {
		return 0
	}
	return len(encoding.GetIds())
}

// HeuristicTokens approximates token count as words * 4/3, the usual
// rule of thumb for English subword vocabularies.
func HeuristicTokens(text string) int {
	n := len(strings.Fields(text))
	if n == 0 {
		return 0
	}
	return (n*4 + 2) / 3
}
