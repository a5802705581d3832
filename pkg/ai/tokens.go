package ai

import (
	"github.com/pkoukk/tiktoken-go"
)

const tokenEncoding = "o200k_base"

// CountTokens estimates the number of tokens in text. It uses the o200k_base
// encoding when available and falls back to a bytes/4 heuristic when the
// encoding cannot be loaded (e.g. offline environments).
func CountTokens(text string) int {
	enc, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// TruncateToTokens returns text shortened so it fits within maxTokens.
// With the o200k_base encoding available the cut is exact; otherwise a
// bytes/4 approximation is used. maxTokens <= 0 returns text unchanged.
func TruncateToTokens(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}

	enc, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		limit := maxTokens * 4
		if len(text) <= limit {
			return text
		}
		return text[:limit]
	}

	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return enc.Decode(tokens[:maxTokens])
}
