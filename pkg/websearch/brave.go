// Package websearch adapts the Brave Search API to capability.WebSearchPort
// (spec §4.1), used by the webSearch tool. Grounded on
// haasonsaas-nexus/internal/tools/websearch's Brave backend, which the
// teacher has no equivalent of.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
	"github.com/brandloom/agentforge/pkg/httpclient"
)

const braveSearchURL = "https://api.search.brave.com/res/v1/web/search"

// Config configures the Brave Search adapter.
type Config struct {
	APIKey string `yaml:"api_key"`
}

// Brave implements capability.WebSearchPort over the Brave Search API.
type Brave struct {
	client *httpclient.Client
	apiKey string
}

func New(cfg Config) *Brave {
	return &Brave{client: httpclient.New(), apiKey: cfg.APIKey}
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search queries the Brave Search API and returns up to maxResults hits.
func (b *Brave) Search(ctx context.Context, query string, maxResults int) ([]capability.WebResult, error) {
	if b.apiKey == "" {
		return nil, apperr.New(apperr.KindValidation, "websearch: brave api key not configured")
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	searchURL, err := url.Parse(braveSearchURL)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "websearch: parse brave url", err)
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(maxResults))
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "websearch: build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "websearch: brave request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		kind := apperr.KindPermanent
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			kind = apperr.KindTransient
		}
		return nil, apperr.New(kind, fmt.Sprintf("websearch: brave api status %d: %s", resp.StatusCode, string(body)))
	}

	var out braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "websearch: decode brave response", err)
	}

	results := make([]capability.WebResult, 0, len(out.Web.Results))
	for _, r := range out.Web.Results {
		results = append(results, capability.WebResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Description,
		})
		if len(results) >= maxResults {
			break
		}
	}
	return results, nil
}

var _ capability.WebSearchPort = (*Brave)(nil)
