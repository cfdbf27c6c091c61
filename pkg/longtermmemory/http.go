// Package longtermmemory adapts a resource-name-addressed remote memory
// service to capability.LongTermMemoryPort (spec §3, §4.6). The remote
// service is expected to mint names of the form
// "brands/{brandId}/users/{userId}/memories/{id}";
// the store layer (pkg/memory) takes the tail segment as the local factId.
package longtermmemory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
	"github.com/brandloom/agentforge/pkg/httpclient"
)

// Config configures the remote memory service endpoint.
type Config struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key,omitempty"`
}

// HTTP implements capability.LongTermMemoryPort over a REST memory service.
type HTTP struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string
}

func New(cfg Config) *HTTP {
	return &HTTP{
		client:  httpclient.New(),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

type saveRequest struct {
	Content string `json:"content"`
}

type saveResponse struct {
	Name string `json:"name"`
}

// Save persists content under a userId-scoped parent resource and returns
// the provider-minted resource name.
func (h *HTTP) Save(ctx context.Context, brandID, userID, content string) (string, error) {
	parent := fmt.Sprintf("brands/%s/users/%s", brandID, userID)
	body, err := json.Marshal(saveRequest{Content: content})
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, "longtermmemory: marshal save request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/v1/%s/memories", h.baseURL, parent), bytes.NewReader(body))
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "longtermmemory: build save request", err)
	}
	h.setHeaders(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", wrapErr(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", statusErr(resp.StatusCode, "save")
	}

	var out saveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "longtermmemory: decode save response", err)
	}
	return out.Name, nil
}

type recallResponse struct {
	Memories []struct {
		Name    string `json:"name"`
		Content string `json:"content"`
		SavedAt string `json:"savedAt"`
	} `json:"memories"`
}

// Recall searches the parent resource's memories for query, returning up
// to limit results.
func (h *HTTP) Recall(ctx context.Context, brandID, userID, query string, limit int) ([]capability.MemoryFact, error) {
	parent := fmt.Sprintf("brands/%s/users/%s", brandID, userID)
	url := fmt.Sprintf("%s/v1/%s/memories:search?query=%s&limit=%d", h.baseURL, parent, urlEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "longtermmemory: build recall request", err)
	}
	h.setHeaders(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, statusErr(resp.StatusCode, "recall")
	}

	var out recallResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "longtermmemory: decode recall response", err)
	}

	facts := make([]capability.MemoryFact, 0, len(out.Memories))
	for _, m := range out.Memories {
		facts = append(facts, capability.MemoryFact{
			FactID:   tailOf(m.Name),
			RemoteID: m.Name,
			Content:  m.Content,
			SavedAt:  m.SavedAt,
		})
	}
	return facts, nil
}

// Delete removes the memory identified by its full resource name. A
// not-found response is treated as success: the caller (pkg/memory) deletes
// its local record unconditionally regardless of this outcome, so a
// double-delete racing against itself must not surface as an error.
func (h *HTTP) Delete(ctx context.Context, remoteID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/v1/%s", h.baseURL, remoteID), nil)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "longtermmemory: build delete request", err)
	}
	h.setHeaders(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return wrapErr(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return statusErr(resp.StatusCode, "delete")
	}
	return nil
}

func (h *HTTP) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}
}

func tailOf(resourceName string) string {
	idx := strings.LastIndex(resourceName, "/")
	if idx < 0 {
		return resourceName
	}
	return resourceName[idx+1:]
}

func urlEscape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "&", "%26"), " ", "+")
}

func wrapErr(err error) error {
	return apperr.Wrap(apperr.KindTransient, "longtermmemory: request failed", err)
}

func statusErr(status int, op string) error {
	kind := apperr.KindPermanent
	if status == http.StatusTooManyRequests || status >= 500 {
		kind = apperr.KindTransient
	}
	return apperr.New(kind, fmt.Sprintf("longtermmemory: %s failed with status %d", op, status))
}

var _ capability.LongTermMemoryPort = (*HTTP)(nil)
