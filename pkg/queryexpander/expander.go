// Package queryexpander implements the Generative Query Expander
// (C12): given a user search phrase, produce the phrase plus up to
// K-1 diverse rewrites via an auxiliary LLM call, degrading to the
// original phrase alone on error or deadline (spec §4.12).
//
// Grounded on pkg/context/query_expansion.go's LLMQueryExpander:
// same prompt shape and the same "parse the model's array, fall back
// to line-scraping the raw text" two-tier parse strategy, adapted
// from pb.Message/llms.LLMProvider to capability.LLMPort and from a
// RAG-retrieval helper to the Search Index Manager's (C7) query path.
package queryexpander

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brandloom/agentforge/pkg/capability"
)

const (
	defaultK       = 5
	defaultTimeout = 3 * time.Second
)

// Expander generates K-1 diverse rewrites of a query via llm,
// degrading to the original alone on failure or timeout.
type Expander struct {
	llm     capability.LLMPort
	timeout time.Duration
}

func New(llm capability.LLMPort) *Expander {
	return &Expander{llm: llm, timeout: defaultTimeout}
}

// WithTimeout overrides the default 3s generation deadline.
func (e *Expander) WithTimeout(d time.Duration) *Expander {
	e.timeout = d
	return e
}

// Expand returns a slice starting with query itself, followed by up
// to k-1 rewrites. Expansion never changes the semantics of the
// caller's filter set (spec §4.12) — callers treat the result as
// additional candidates to fan out, not a replacement for query.
func (e *Expander) Expand(ctx context.Context, query string, k int) []string {
	if k <= 0 {
		k = defaultK
	}
	if k == 1 {
		return []string{query}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rewrites, err := e.generate(ctx, query, k-1)
	if err != nil || len(rewrites) == 0 {
		return []string{query}
	}

	out := append([]string{query}, rewrites...)
	if len(out) > k {
		out = out[:k]
	}
	return out
}

func (e *Expander) generate(ctx context.Context, query string, count int) ([]string, error) {
	prompt := fmt.Sprintf(`Generate %d different search query rewrites for the following query. Each rewrite should:
1. Use different wording or phrasing
2. Focus on a different aspect or perspective
3. Be semantically close to the original but not identical

Original query: %s

Return only a JSON array of strings, nothing else.`, count, query)

	text, _, err := e.llm.GenerateStructured(ctx, []capability.Message{
		{Role: "user", Content: prompt},
	}, capability.StructuredOutputConfig{Schema: rewriteSchema})
	if err != nil {
		return nil, err
	}

	rewrites := parseJSONArray(text)
	if len(rewrites) == 0 {
		rewrites = extractLinesAsQueries(text)
	}
	return rewrites, nil
}

var rewriteSchema = map[string]any{
	"type":  "array",
	"items": map[string]any{"type": "string"},
}

// parseJSONArray extracts a flat JSON string array from text, even
// when the model wraps it in prose — grounded on the teacher's own
// bracket-depth scan rather than a strict json.Unmarshal, since the
// model is not guaranteed to emit the array as the entire response.
func parseJSONArray(text string) []string {
	start, end := -1, -1
	depth := 0
	for i, r := range text {
		switch r {
		case '[':
			if start == -1 {
				start = i
			}
			depth++
		case ']':
			depth--
			if depth == 0 && start != -1 {
				end = i + 1
			}
		}
		if end != -1 {
			break
		}
	}
	if start == -1 || end == -1 {
		return nil
	}

	var out []string
	var current strings.Builder
	inQuotes, escape := false, false
	for _, r := range text[start+1 : end-1] {
		if escape {
			current.WriteRune(r)
			escape = false
			continue
		}
		switch r {
		case '\\':
			escape = true
		case '"':
			if inQuotes {
				out = append(out, current.String())
				current.Reset()
			}
			inQuotes = !inQuotes
		default:
			if inQuotes {
				current.WriteRune(r)
			}
		}
	}
	return out
}

// extractLinesAsQueries is the degrade-gracefully fallback when the
// model doesn't emit valid JSON: pull plausible query lines out of
// free text.
func extractLinesAsQueries(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, `"'`)
		if len(line) > 3 && !strings.Contains(line, ":") {
			out = append(out, line)
		}
	}
	return out
}
