package engine

import (
	"context"
	"sort"
	"strings"

	"github.com/bambooty57/tunershop-search/internal/tokenizer"
)

// Suggest returns up to limit distinct keywords for query completion.
// Keywords starting with the normalized query come first; if that yields
// fewer than limit, keywords merely containing the query fill the rest.
// Like Search, it degrades to no suggestions instead of failing.
func (e *Engine) Suggest(ctx context.Context, query string, limit int) []string {
	if limit <= 0 {
		limit = e.cfg.SuggestLimit
	}
	if err := e.ensureInitialized(ctx); err != nil {
		e.logger.Error("suggest degraded, index unavailable", "query", query, "error", err)
		return []string{}
	}

	needle := strings.ToLower(tokenizer.Normalize(query))
	if needle == "" {
		return []string{}
	}

	e.mu.RLock()
	keywords := make([]string, 0, len(e.keywords))
	for kw := range e.keywords {
		keywords = append(keywords, kw)
	}
	e.mu.RUnlock()
	sort.Strings(keywords)

	suggestions := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)
	for _, kw := range keywords {
		if len(suggestions) >= limit {
			return suggestions
		}
		if strings.HasPrefix(kw, needle) {
			suggestions = append(suggestions, kw)
			seen[kw] = struct{}{}
		}
	}
	for _, kw := range keywords {
		if len(suggestions) >= limit {
			break
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		if strings.Contains(kw, needle) {
			suggestions = append(suggestions, kw)
			seen[kw] = struct{}{}
		}
	}
	return suggestions
}
