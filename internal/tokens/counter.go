// internal/tokens/counter.go

// Package tokens provides transcript token accounting.
package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/docchat/internal/types"
)

// Counter counts tokens with the cl100k_base encoding, which is what the
// answering services behind this client use.
type Counter struct {
	tokenizer *tiktoken.Tiktoken
}

// New creates a Counter. Fails when the encoding cannot be loaded.
func New() (*Counter, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("get tokenizer: %w", err)
	}
	return &Counter{tokenizer: enc}, nil
}

// Count returns the token count for a string.
func (c *Counter) Count(text string) int {
	return len(c.tokenizer.Encode(text, nil, nil))
}

// TranscriptTokens returns the total token count of a transcript, including
// cited source snippets.
func (c *Counter) TranscriptTokens(msgs []*types.Message) int {
	total := 0
	for _, msg := range msgs {
		total += c.Count(msg.Content)
		for _, src := range msg.Sources {
			total += c.Count(src.Content)
		}
	}
	return total
}
