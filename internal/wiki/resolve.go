package wiki

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

const articleBaseURL = "https://en.wikipedia.org/wiki/"

type pageSummary struct {
	extract string
	url     string
}

// Resolve fetches the canonical summary for a hit's title. When the fetch
// fails the hit's snippet becomes the content and the URL is derived from the
// title, so resolution degrades in quality but never in availability.
func (c *Client) Resolve(ctx context.Context, hit SearchHit) Article {
	if s, ok := c.fetchSummary(ctx, hit.Title); ok {
		u := s.url
		if u == "" {
			u = TitleURL(hit.Title)
		}
		return Article{Title: hit.Title, Content: s.extract, SourceURL: u, Via: ViaSummary}
	}
	c.logger.Printf("summary unavailable for %q, falling back to snippet", hit.Title)
	return Article{Title: hit.Title, Content: hit.Snippet, SourceURL: TitleURL(hit.Title), Via: ViaFallback}
}

// fetchSummary calls the REST summary endpoint. Absence (non-200, transport
// error, or a payload without an extract field) is reported via ok=false, not
// an error: the caller always has a fallback.
func (c *Client) fetchSummary(ctx context.Context, title string) (pageSummary, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.summaryURL+underscored(title), nil)
	if err != nil {
		c.logger.Printf("summary request build failed for %q: %v", title, err)
		return pageSummary{}, false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Printf("summary request failed for %q: %v", title, err)
		return pageSummary{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pageSummary{}, false
	}

	var raw struct {
		Extract     *string `json:"extract"`
		ContentURLs struct {
			Desktop struct {
				Page string `json:"page"`
			} `json:"desktop"`
		} `json:"content_urls"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		c.logger.Printf("summary response decode failed for %q: %v", title, err)
		return pageSummary{}, false
	}
	if raw.Extract == nil {
		return pageSummary{}, false
	}
	return pageSummary{extract: *raw.Extract, url: raw.ContentURLs.Desktop.Page}, true
}

// TitleURL derives the canonical article URL for a title. The
// spaces-to-underscores substitution is an exact-format requirement: the
// result is shown to the user as a source link.
func TitleURL(title string) string {
	return articleBaseURL + underscored(title)
}

func underscored(title string) string {
	return strings.ReplaceAll(title, " ", "_")
}
