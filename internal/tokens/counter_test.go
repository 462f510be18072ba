// internal/tokens/counter_test.go
package tokens

import (
	"testing"
	"time"

	"github.com/user/docchat/internal/types"
)

func TestTranscriptTokens(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Skipf("tokenizer unavailable: %v", err)
	}

	if got := c.Count(""); got != 0 {
		t.Errorf("expected 0 tokens for empty string, got %d", got)
	}
	if got := c.Count("hello world"); got == 0 {
		t.Error("expected non-zero token count")
	}

	msgs := []*types.Message{
		{Role: types.RoleUser, Content: "What is the summary?", At: time.Now()},
		{
			Role:    types.RoleAssistant,
			Content: "It is a summary.",
			At:      time.Now(),
			Sources: []types.Source{{Content: "some snippet", Source: "report.pdf", Type: "text"}},
		},
	}

	total := c.TranscriptTokens(msgs)
	withoutSources := c.Count(msgs[0].Content) + c.Count(msgs[1].Content)
	if total <= withoutSources {
		t.Errorf("expected source snippets counted, got %d <= %d", total, withoutSources)
	}
}
