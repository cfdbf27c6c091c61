package catalog

import (
	"github.com/brandloom/agentforge/pkg/capability"
	"github.com/brandloom/agentforge/pkg/tool"
	"github.com/brandloom/agentforge/pkg/tool/functiontool"
)

// WebSearchArgs are the parameters for the webSearch tool.
type WebSearchArgs struct {
	Query      string `json:"query" jsonschema:"required,description=Search query"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"description=Maximum number of results,default=5"`
}

// NewWebSearch builds the webSearch tool over a WebSearchPort.
func NewWebSearch(search capability.WebSearchPort) (tool.CallableTool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "webSearch",
			Description: "Search the public web for up-to-date information and return titles, URLs, and snippets.",
		},
		func(ctx tool.Context, args WebSearchArgs) (map[string]any, error) {
			max := args.MaxResults
			if max <= 0 {
				max = 5
			}
			results, err := search.Search(ctx, args.Query, max)
			if err != nil {
				return tool.Failure(err.Error(), nil), nil
			}
			return tool.Success(results, "", nil), nil
		},
	)
}

// CrawlWebsiteArgs are the parameters for the crawlWebsite tool.
type CrawlWebsiteArgs struct {
	URL string `json:"url" jsonschema:"required,description=URL of the page to fetch and extract readable content from"`
}

// NewCrawlWebsite builds the crawlWebsite tool over an
// HTTPFetchPort.
func NewCrawlWebsite(fetch capability.HTTPFetchPort) (tool.CallableTool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "crawlWebsite",
			Description: "Fetch a web page (including JavaScript-rendered content) and extract its title and readable text.",
		},
		func(ctx tool.Context, args CrawlWebsiteArgs) (map[string]any, error) {
			result, err := fetch.Fetch(ctx, args.URL)
			if err != nil {
				return tool.Failure(err.Error(), nil), nil
			}
			return tool.Success(result.Text, "", map[string]any{
				"title": result.Title,
				"url":   result.URL,
			}), nil
		},
	)
}

// ProcessYoutubeVideoArgs are the parameters for the
// processYoutubeVideo tool.
type ProcessYoutubeVideoArgs struct {
	URL string `json:"url" jsonschema:"required,description=YouTube video URL"`
}

// NewProcessYoutubeVideo builds the processYoutubeVideo tool. It
// reuses the same HTTPFetchPort as crawlWebsite: the headless
// browser renders the watch page (including the caption track
// panel), and the tool returns whatever readable text the page
// exposes rather than decoding the video stream itself.
func NewProcessYoutubeVideo(fetch capability.HTTPFetchPort) (tool.CallableTool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "processYoutubeVideo",
			Description: "Fetch a YouTube video's page content (title, description, visible captions) for summarization.",
		},
		func(ctx tool.Context, args ProcessYoutubeVideoArgs) (map[string]any, error) {
			result, err := fetch.Fetch(ctx, args.URL)
			if err != nil {
				return tool.Failure(err.Error(), nil), nil
			}
			return tool.Success(result.Text, "", map[string]any{
				"title": result.Title,
				"url":   result.URL,
			}), nil
		},
	)
}
