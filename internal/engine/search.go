package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/bambooty57/tunershop-search/internal/tokenizer"
)

// SearchOptions control candidate selection, filtering, and pagination.
// Exact takes precedence over Fuzzy; with both false a plain keyword search
// runs. The zero value means keyword search — use DefaultSearchOptions for
// the fuzzy-by-default behaviour the HTTP API exposes.
type SearchOptions struct {
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
	Fields []string  `json:"fields,omitempty"`
	Fuzzy  bool      `json:"fuzzy"`
	Exact  bool      `json:"exact"`
	From   time.Time `json:"from,omitempty"`
	To     time.Time `json:"to,omitempty"`
}

// DefaultSearchOptions returns the options Search applies when the caller
// specifies nothing: fuzzy matching, first page of 20.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{Fuzzy: true}
}

// SearchResult is one ranked hit.
type SearchResult struct {
	ID         int64             `json:"id"`
	Score      float64           `json:"score"`
	Fields     SearchableFields  `json:"fields"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// SearchResponse is the full outcome of a search call.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
	TookMS  int64          `json:"took_ms"`
	Cached  bool           `json:"-"`
}

// Search runs a query against the index. It never returns an error: an
// uninitialized engine or an internal failure degrades to an empty result
// set, and cache failures are logged and ignored.
func (e *Engine) Search(ctx context.Context, query string, opts SearchOptions) *SearchResponse {
	start := time.Now()
	opts = e.boundOptions(opts)

	if err := e.ensureInitialized(ctx); err != nil {
		e.logger.Error("search degraded, index unavailable", "query", query, "error", err)
		return &SearchResponse{Results: []SearchResult{}, TookMS: time.Since(start).Milliseconds()}
	}

	key := queryCacheKey(query, opts)
	if resp, ok := e.cachedResponse(ctx, key); ok {
		resp.TookMS = time.Since(start).Milliseconds()
		resp.Cached = true
		return resp
	}

	v, _, _ := e.group.Do(key, func() (any, error) {
		resp := e.executeSearch(query, opts)
		e.storeResponse(ctx, key, resp)
		return resp, nil
	})
	shared := v.(*SearchResponse)
	resp := *shared
	resp.TookMS = time.Since(start).Milliseconds()
	return &resp
}

// boundOptions applies defaults and clamps pagination.
func (e *Engine) boundOptions(opts SearchOptions) SearchOptions {
	if opts.Limit <= 0 {
		opts.Limit = e.cfg.DefaultLimit
	}
	if opts.Limit > e.cfg.MaxLimit {
		opts.Limit = e.cfg.MaxLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return opts
}

func (e *Engine) executeSearch(query string, opts SearchOptions) *SearchResponse {
	queryKeywords := tokenizer.Keywords(query)

	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := e.selectCandidatesLocked(query, opts)
	if len(opts.Fields) > 0 {
		ids = e.filterByFieldsLocked(ids, opts.Fields)
	}
	if !opts.From.IsZero() || !opts.To.IsZero() {
		ids = e.filterByDateLocked(ids, opts.From, opts.To)
	}

	scored := e.scoreLocked(ids, queryKeywords)
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	total := len(scored)
	page := paginate(scored, opts.Offset, opts.Limit)

	results := make([]SearchResult, 0, len(page))
	for _, s := range page {
		doc := e.docs[s.id]
		results = append(results, SearchResult{
			ID:         doc.ID,
			Score:      s.score,
			Fields:     doc.Fields,
			Highlights: highlightFields(doc.Fields, queryKeywords),
		})
	}
	return &SearchResponse{Results: results, Total: total}
}

// selectCandidatesLocked picks candidate documents with one of three
// mutually exclusive strategies: exact substring over content, n-gram
// overlap (fuzzy), or inverted-index keyword lookup. Candidates come back
// sorted by ID so equal-score results rank deterministically.
func (e *Engine) selectCandidatesLocked(query string, opts SearchOptions) []int64 {
	set := make(map[int64]struct{})
	switch {
	case opts.Exact:
		needle := strings.ToLower(tokenizer.Normalize(query))
		for id, doc := range e.docs {
			if strings.Contains(doc.Content, needle) {
				set[id] = struct{}{}
			}
		}
	case opts.Fuzzy:
		for _, gram := range tokenizer.NGrams(query, e.cfg.NGramSize) {
			for id := range e.ngrams[gram] {
				set[id] = struct{}{}
			}
		}
	default:
		for _, kw := range tokenizer.Keywords(query) {
			for id := range e.keywords[kw] {
				set[id] = struct{}{}
			}
		}
	}
	return sortedIDs(set)
}

func (e *Engine) filterByFieldsLocked(ids []int64, fields []string) []int64 {
	kept := ids[:0]
	for _, id := range ids {
		doc := e.docs[id]
		for _, name := range fields {
			if doc.Fields.Value(name) != "" {
				kept = append(kept, id)
				break
			}
		}
	}
	return kept
}

func (e *Engine) filterByDateLocked(ids []int64, from, to time.Time) []int64 {
	kept := ids[:0]
	for _, id := range ids {
		created := e.docs[id].CreatedAt
		if !from.IsZero() && created.Before(from) {
			continue
		}
		if !to.IsZero() && created.After(to) {
			continue
		}
		kept = append(kept, id)
	}
	return kept
}

type scoredDoc struct {
	id    int64
	score float64
}

// scoreLocked computes each candidate's score: term frequency in content,
// field-weighted matches, and a recency bonus for documents younger than
// thirty days.
func (e *Engine) scoreLocked(ids []int64, queryKeywords []string) []scoredDoc {
	now := e.now()
	scored := make([]scoredDoc, 0, len(ids))
	for _, id := range ids {
		doc := e.docs[id]
		var score float64
		for _, kw := range queryKeywords {
			score += float64(strings.Count(doc.Content, kw))
			for _, name := range fieldNames {
				value := doc.Fields.Value(name)
				if value == "" {
					continue
				}
				if strings.Contains(strings.ToLower(value), kw) {
					weight, ok := fieldWeights[name]
					if !ok {
						weight = defaultFieldWeight
					}
					score += weight
				}
			}
		}
		score += recencyBonus(now, doc.CreatedAt)
		scored = append(scored, scoredDoc{id: id, score: score})
	}
	return scored
}

// recencyBonus decays linearly from 3.0 at day zero to zero at day thirty.
func recencyBonus(now, createdAt time.Time) float64 {
	if createdAt.IsZero() {
		return 0
	}
	days := now.Sub(createdAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	remaining := 30 - days
	if remaining <= 0 {
		return 0
	}
	return remaining * 0.1
}

func paginate(scored []scoredDoc, offset, limit int) []scoredDoc {
	if offset >= len(scored) {
		return nil
	}
	end := offset + limit
	if end > len(scored) {
		end = len(scored)
	}
	return scored[offset:end]
}

// queryCacheKey derives a stable cache key from the query and its options.
func queryCacheKey(query string, opts SearchOptions) string {
	payload, _ := json.Marshal(struct {
		Query string        `json:"query"`
		Opts  SearchOptions `json:"opts"`
	}{Query: query, Opts: opts})
	sum := sha256.Sum256(payload)
	return queryKeyPrefix + hex.EncodeToString(sum[:16])
}

func (e *Engine) cachedResponse(ctx context.Context, key string) (*SearchResponse, bool) {
	value, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("query cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var resp SearchResponse
	if err := json.Unmarshal([]byte(value), &resp); err != nil {
		e.logger.Warn("query cache decode failed", "key", key, "error", err)
		return nil, false
	}
	if resp.Results == nil {
		resp.Results = []SearchResult{}
	}
	return &resp, true
}

func (e *Engine) storeResponse(ctx context.Context, key string, resp *SearchResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		e.logger.Warn("query cache encode failed", "key", key, "error", err)
		return
	}
	if err := e.cache.Set(ctx, key, string(data), e.cfg.QueryCacheTTL); err != nil {
		e.logger.Warn("query cache write failed", "key", key, "error", err)
	}
}
