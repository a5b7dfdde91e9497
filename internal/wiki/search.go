package wiki

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// searchmatch markup is the one literal highlight pattern the search endpoint
// wraps matches in; only this exact pair is stripped.
const (
	searchMatchOpen  = `<span class="searchmatch">`
	searchMatchClose = `</span>`
)

// Search queries the MediaWiki fulltext search API for up to limit candidate
// articles. Any transport or protocol failure degrades to an empty slice:
// context enrichment must never fail the request that asked for it.
func (c *Client) Search(ctx context.Context, query string, limit int) []SearchHit {
	if limit < 1 {
		limit = 1
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", strconv.Itoa(limit))
	params.Set("srprop", "snippet")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		c.logger.Printf("search request build failed: %v", err)
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Printf("search request failed for %q: %v", query, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Printf("search returned status %d for %q", resp.StatusCode, query)
		return nil
	}

	var raw struct {
		Query struct {
			Search []struct {
				Title   string `json:"title"`
				Snippet string `json:"snippet"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		c.logger.Printf("search response decode failed for %q: %v", query, err)
		return nil
	}
	if len(raw.Query.Search) == 0 {
		c.logger.Printf("no search results for %q", query)
		return nil
	}

	hits := make([]SearchHit, 0, limit)
	for i, item := range raw.Query.Search {
		if i >= limit {
			break
		}
		hits = append(hits, SearchHit{Title: item.Title, Snippet: CleanSnippet(item.Snippet)})
	}
	return hits
}

// CleanSnippet removes the literal searchmatch highlight markup from a search
// snippet. No other markup is touched.
func CleanSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, searchMatchOpen, "")
	return strings.ReplaceAll(snippet, searchMatchClose, "")
}
