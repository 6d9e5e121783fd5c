package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// indexSnapshot is the serialized form of all three index structures.
// Posting sets are stored as sorted slices so identical index contents
// always serialize to identical bytes.
type indexSnapshot struct {
	Documents map[int64]*IndexedDocument `json:"documents"`
	Keywords  map[string][]int64         `json:"keywords"`
	NGrams    map[string][]int64         `json:"ngrams"`
	SavedAt   time.Time                  `json:"saved_at"`
}

func (e *Engine) snapshotLocked() *indexSnapshot {
	snap := &indexSnapshot{
		Documents: make(map[int64]*IndexedDocument, len(e.docs)),
		Keywords:  make(map[string][]int64, len(e.keywords)),
		NGrams:    make(map[string][]int64, len(e.ngrams)),
	}
	for id, doc := range e.docs {
		snap.Documents[id] = doc
	}
	for kw, set := range e.keywords {
		snap.Keywords[kw] = sortedIDs(set)
	}
	for gram, set := range e.ngrams {
		snap.NGrams[gram] = sortedIDs(set)
	}
	return snap
}

// persistSnapshot serializes the whole index and writes it to the cache
// under SnapshotKey with the long snapshot TTL.
func (e *Engine) persistSnapshot(ctx context.Context) error {
	e.mu.RLock()
	snap := e.snapshotLocked()
	e.mu.RUnlock()
	snap.SavedAt = e.now()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding index snapshot: %w", err)
	}
	if err := e.cache.Set(ctx, SnapshotKey, string(data), e.cfg.SnapshotTTL); err != nil {
		return fmt.Errorf("writing index snapshot: %w", err)
	}
	e.logger.Debug("index snapshot persisted", "bytes", len(data))
	return nil
}

// restoreSnapshot loads the serialized index from the cache, if present,
// and swaps it in. Returns whether a snapshot was restored.
func (e *Engine) restoreSnapshot(ctx context.Context) (bool, error) {
	value, ok, err := e.cache.Get(ctx, SnapshotKey)
	if err != nil {
		return false, fmt.Errorf("reading index snapshot: %w", err)
	}
	if !ok {
		return false, nil
	}
	var snap indexSnapshot
	if err := json.Unmarshal([]byte(value), &snap); err != nil {
		return false, fmt.Errorf("decoding index snapshot: %w", err)
	}

	docs := make(map[int64]*IndexedDocument, len(snap.Documents))
	for id, doc := range snap.Documents {
		docs[id] = doc
	}
	keywords := make(map[string]map[int64]struct{}, len(snap.Keywords))
	for kw, ids := range snap.Keywords {
		keywords[kw] = idSet(ids)
	}
	ngrams := make(map[string]map[int64]struct{}, len(snap.NGrams))
	for gram, ids := range snap.NGrams {
		ngrams[gram] = idSet(ids)
	}

	e.mu.Lock()
	e.docs = docs
	e.keywords = keywords
	e.ngrams = ngrams
	e.mu.Unlock()
	e.logger.Info("index snapshot restored",
		"documents", len(docs),
		"saved_at", snap.SavedAt,
	)
	return true, nil
}

// snapshotSizeLocked returns the byte length of the serialized index.
func (e *Engine) snapshotSizeLocked() int {
	data, err := json.Marshal(e.snapshotLocked())
	if err != nil {
		return 0
	}
	return len(data)
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func idSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
