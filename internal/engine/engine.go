// Package engine implements the in-memory full-text search engine behind the
// tuning workshop's record search: a document store, an inverted keyword
// index, and a character n-gram index for fuzzy matching, with scoring,
// suggestions, and snapshot persistence through a cache layer.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bambooty57/tunershop-search/internal/tokenizer"
	apperr "github.com/bambooty57/tunershop-search/pkg/errors"
)

// Config tunes the engine's index and cache behaviour.
type Config struct {
	NGramSize     int
	DefaultLimit  int
	MaxLimit      int
	SuggestLimit  int
	SnapshotTTL   time.Duration
	QueryCacheTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.NGramSize <= 0 {
		c.NGramSize = tokenizer.DefaultNGramSize
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = 20
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = 100
	}
	if c.SuggestLimit <= 0 {
		c.SuggestLimit = 10
	}
	if c.SnapshotTTL <= 0 {
		c.SnapshotTTL = 30 * 24 * time.Hour
	}
	if c.QueryCacheTTL <= 0 {
		c.QueryCacheTTL = 5 * time.Minute
	}
	return c
}

// Engine holds the three index structures and serves all search operations.
// Reads and writes are safe for concurrent use; rebuilds additionally
// serialise on their own mutex so two rebuilds can never interleave their
// clear and populate phases.
type Engine struct {
	mu       sync.RWMutex
	docs     map[int64]*IndexedDocument
	keywords map[string]map[int64]struct{}
	ngrams   map[string]map[int64]struct{}

	initMu      sync.Mutex
	initialized bool
	rebuildMu   sync.Mutex

	source RecordSource
	cache  Cache
	cfg    Config
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time
}

// New creates an Engine over the given record source and cache. The engine
// starts uninitialized; call Initialize, or let the first Search or Suggest
// initialize it lazily.
func New(source RecordSource, cache Cache, cfg Config) *Engine {
	return &Engine{
		docs:     make(map[int64]*IndexedDocument),
		keywords: make(map[string]map[int64]struct{}),
		ngrams:   make(map[string]map[int64]struct{}),
		source:   source,
		cache:    cache,
		cfg:      cfg.withDefaults(),
		logger:   slog.Default().With("component", "search-engine"),
		now:      time.Now,
	}
}

// Initialize populates the index, restoring the snapshot from the cache when
// one exists and rebuilding from the record source otherwise. It is
// idempotent; on failure the engine stays uninitialized and the next call
// tries again.
func (e *Engine) Initialize(ctx context.Context) error {
	e.initMu.Lock()
	defer e.initMu.Unlock()
	if e.initialized {
		return nil
	}
	restored, err := e.restoreSnapshot(ctx)
	if err != nil {
		e.logger.Warn("snapshot restore failed, rebuilding from source", "error", err)
	}
	if !restored {
		if err := e.RebuildIndex(ctx); err != nil {
			return fmt.Errorf("initial index build: %w", err)
		}
	}
	e.initialized = true
	e.logger.Info("search engine initialized",
		"documents", e.DocumentCount(),
		"restored_from_cache", restored,
	)
	return nil
}

// ensureInitialized lazily initializes the engine before a read operation.
func (e *Engine) ensureInitialized(ctx context.Context) error {
	e.initMu.Lock()
	ready := e.initialized
	e.initMu.Unlock()
	if ready {
		return nil
	}
	return e.Initialize(ctx)
}

// RebuildIndex clears every index structure and repopulates it from the
// record source, then persists a fresh snapshot. A record-source failure
// aborts the rebuild and leaves the index cleared; per-document failures are
// logged and skipped. The previous snapshot is only overwritten after a
// successful rebuild, so a restart can still restore the last good index.
func (e *Engine) RebuildIndex(ctx context.Context) error {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()
	start := time.Now()

	e.mu.Lock()
	e.docs = make(map[int64]*IndexedDocument)
	e.keywords = make(map[string]map[int64]struct{})
	e.ngrams = make(map[string]map[int64]struct{})
	e.mu.Unlock()

	records, err := e.source.ListWorkOrders(ctx)
	if err != nil {
		return fmt.Errorf("listing work orders: %w", err)
	}

	indexed := 0
	for _, rec := range records {
		if err := e.IndexDocument(rec); err != nil {
			e.logger.Error("indexing work order failed", "work_order_id", rec.ID, "error", err)
			continue
		}
		indexed++
	}

	if err := e.persistSnapshot(ctx); err != nil {
		e.logger.Warn("persisting index snapshot failed", "error", err)
	}
	e.logger.Info("index rebuilt",
		"work_orders", indexed,
		"skipped", len(records)-indexed,
		"took_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// IndexDocument indexes a single work order. Any postings a previous version
// of the same work order left behind are retracted first, so re-indexing an
// edited record never leaves stale entries.
func (e *Engine) IndexDocument(rec WorkOrderRecord) error {
	if rec.ID <= 0 {
		return fmt.Errorf("%w: work order id must be positive, got %d", apperr.ErrInvalidInput, rec.ID)
	}
	fields := extractFields(rec)
	content := buildContent(fields)
	doc := &IndexedDocument{
		ID:        rec.ID,
		Content:   content,
		Fields:    fields,
		Keywords:  tokenizer.Keywords(content),
		NGrams:    tokenizer.NGrams(content, e.cfg.NGramSize),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: e.now(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeLocked(rec.ID)
	e.docs[rec.ID] = doc
	for _, kw := range doc.Keywords {
		addPosting(e.keywords, kw, rec.ID)
	}
	for _, gram := range doc.NGrams {
		addPosting(e.ngrams, gram, rec.ID)
	}
	return nil
}

// RemoveDocument drops a work order from the store and retracts its postings
// from both indexes. Removing an unknown ID is a no-op.
func (e *Engine) RemoveDocument(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeLocked(id)
}

// removeLocked retracts a document's postings from both indexes using the
// keyword and n-gram sets recorded on the stored document.
func (e *Engine) removeLocked(id int64) {
	old, ok := e.docs[id]
	if !ok {
		return
	}
	for _, kw := range old.Keywords {
		dropPosting(e.keywords, kw, id)
	}
	for _, gram := range old.NGrams {
		dropPosting(e.ngrams, gram, id)
	}
	delete(e.docs, id)
}

// DocumentCount returns the number of indexed documents.
func (e *Engine) DocumentCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.docs)
}

// Stats describes the index's current shape and approximate size.
type Stats struct {
	TotalDocuments int `json:"total_documents"`
	TotalKeywords  int `json:"total_keywords"`
	TotalNGrams    int `json:"total_ngrams"`
	IndexSizeBytes int `json:"index_size_bytes"`
}

// Stats returns index counts and the byte length of the serialized snapshot,
// a cheap approximation of the index's memory footprint.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		TotalDocuments: len(e.docs),
		TotalKeywords:  len(e.keywords),
		TotalNGrams:    len(e.ngrams),
		IndexSizeBytes: e.snapshotSizeLocked(),
	}
}

func addPosting(index map[string]map[int64]struct{}, key string, id int64) {
	set, ok := index[key]
	if !ok {
		set = make(map[int64]struct{})
		index[key] = set
	}
	set[id] = struct{}{}
}

func dropPosting(index map[string]map[int64]struct{}, key string, id int64) {
	set, ok := index[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(index, key)
	}
}
