package wiki

import (
	"context"
	"log"
	"net/http"
	"time"
)

// SearchHit is one raw fulltext search result: a candidate article title plus
// the highlight snippet returned by the search endpoint.
type SearchHit struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// ResolvedVia records how an article's content was obtained.
type ResolvedVia string

const (
	ViaSummary  ResolvedVia = "summary"
	ViaFallback ResolvedVia = "fallback"
)

// Article is a search hit resolved to usable content. SourceURL is always
// non-empty: when the summary payload carries no URL it is derived from the
// title.
type Article struct {
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	SourceURL string      `json:"url"`
	Via       ResolvedVia `json:"resolved_via"`
}

// Searcher finds candidate articles for a query. A failed lookup degrades to
// an empty slice; context enrichment is always optional.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) []SearchHit
}

// Resolver turns a search hit into an Article. Resolution never fails: when
// the summary fetch does, the hit's snippet and a derived URL are used.
type Resolver interface {
	Resolve(ctx context.Context, hit SearchHit) Article
}

// Client talks to the MediaWiki search API and the REST summary API. It
// implements both Searcher and Resolver.
type Client struct {
	searchURL  string
	summaryURL string
	userAgent  string
	httpClient *http.Client
	logger     *log.Logger
}

func NewClient(searchURL, summaryURL, userAgent string, timeout time.Duration, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(log.Writer(), "[WIKI] ", log.LstdFlags)
	}
	return &Client{
		searchURL:  searchURL,
		summaryURL: summaryURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}
