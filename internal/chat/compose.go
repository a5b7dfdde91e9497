package chat

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/wikichat/internal/wiki"
)

// DefaultContextCharLimit bounds each article's contribution to the prompt.
// Truncation applies only to prompt text, never to the source URL list.
const DefaultContextCharLimit = 800

const ellipsis = "..."

// ContextBlock is the composed, size-bounded text derived from resolved
// articles. Zero value means no context was available.
type ContextBlock struct {
	Text         string
	ArticleCount int
}

// Empty reports whether the block carries no context
func (b ContextBlock) Empty() bool {
	return b.ArticleCount == 0
}

// ComposeContext renders articles into one context block, preserving input
// order. Each article's content is cut to the first charLimit characters with
// an ellipsis appended only when truncation occurred. An empty input yields
// an empty block; no block is ever fabricated.
func ComposeContext(articles []wiki.Article, charLimit int) ContextBlock {
	if len(articles) == 0 {
		return ContextBlock{}
	}
	if charLimit <= 0 {
		charLimit = DefaultContextCharLimit
	}

	parts := make([]string, 0, len(articles))
	for _, a := range articles {
		content := a.Content
		if runes := []rune(content); len(runes) > charLimit {
			content = string(runes[:charLimit]) + ellipsis
		}
		parts = append(parts, fmt.Sprintf("Wikipedia Article: %s\n%s", a.Title, content))
	}
	return ContextBlock{Text: strings.Join(parts, "\n\n"), ArticleCount: len(articles)}
}
