package session

import (
	"encoding/json"

	"github.com/brandloom/agentforge/pkg/utils"
)

// TiktokenCounter adapts pkg/utils.TokenCounter (tiktoken-go) to the
// TokenCounter contract, counting an Event's text plus a flat
// per-event overhead for its tool-call/media envelope, the way the
// teacher's token_aware_history.go estimates message overhead
// alongside raw content tokens.
type TiktokenCounter struct {
	counter *utils.TokenCounter
}

const eventOverheadTokens = 4

func NewTiktokenCounter(model string) (*TiktokenCounter, error) {
	c, err := utils.NewTokenCounter(model)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{counter: c}, nil
}

func (t *TiktokenCounter) CountEvent(e Event) int {
	n := eventOverheadTokens
	if e.Text != "" {
		n += t.counter.Count(e.Text)
	}
	if e.ToolCall != nil {
		args, _ := json.Marshal(e.ToolCall.Args)
		n += t.counter.Count(e.ToolCall.Name) + t.counter.Count(string(args))
	}
	if e.ToolResult != nil {
		content, _ := json.Marshal(e.ToolResult.Content)
		n += t.counter.Count(string(content)) + t.counter.Count(e.ToolResult.Message)
	}
	n += len(e.Media) * eventOverheadTokens
	return n
}
