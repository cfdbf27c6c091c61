package websearch

import (
	"context"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
)

// FetchConfig configures the headless-browser fetch adapter.
type FetchConfig struct {
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// RodFetcher implements capability.HTTPFetchPort using a headless Chromium
// instance (go-rod/rod), so crawlWebsite and processYoutubeVideo can read
// JS-rendered pages a plain HTTP GET would return empty. Adopted from
// vanducng-goclaw's go.mod — the teacher has no crawler of its own.
type RodFetcher struct {
	browser *rod.Browser
	timeout time.Duration
}

func NewRodFetcher(cfg FetchConfig) (*RodFetcher, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	path, ok := launcher.LookPath()
	if !ok {
		return nil, apperr.New(apperr.KindInternal, "websearch: no chromium binary found for headless fetch")
	}
	url := launcher.New().Bin(path).Headless(true).MustLaunch()

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "websearch: connect to headless browser", err)
	}

	return &RodFetcher{browser: browser, timeout: timeout}, nil
}

// Fetch renders url in a headless tab and extracts its title and visible
// text. Each call opens and closes its own page so concurrent fetches
// don't share navigation state.
func (f *RodFetcher) Fetch(ctx context.Context, url string) (capability.FetchResult, error) {
	page, err := f.browser.Page(rod.PageInfo{})
	if err != nil {
		return capability.FetchResult{}, apperr.Wrap(apperr.KindTransient, "websearch: open page", err)
	}
	defer page.Close()

	page = page.Context(ctx).Timeout(f.timeout)
	if err := page.Navigate(url); err != nil {
		return capability.FetchResult{}, apperr.Wrap(apperr.KindTransient, "websearch: navigate", err)
	}
	if err := page.WaitLoad(); err != nil {
		return capability.FetchResult{}, apperr.Wrap(apperr.KindTransient, "websearch: wait for page load", err)
	}

	title, err := page.Eval(`() => document.title`)
	if err != nil {
		return capability.FetchResult{}, apperr.Wrap(apperr.KindInternal, "websearch: read page title", err)
	}
	body, err := page.Eval(`() => document.body ? document.body.innerText : ""`)
	if err != nil {
		return capability.FetchResult{}, apperr.Wrap(apperr.KindInternal, "websearch: read page text", err)
	}

	return capability.FetchResult{
		URL:      url,
		Title:    title.Value.String(),
		Text:     strings.TrimSpace(body.Value.String()),
		MimeType: "text/plain",
	}, nil
}

func (f *RodFetcher) Close() error {
	return f.browser.Close()
}

var _ capability.HTTPFetchPort = (*RodFetcher)(nil)
