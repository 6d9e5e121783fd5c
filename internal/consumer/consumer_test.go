package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bambooty57/tunershop-search/internal/engine"
)

type fakeFetcher struct {
	records map[int64]engine.WorkOrderRecord
	err     error
}

func (f *fakeFetcher) GetWorkOrder(_ context.Context, id int64) (engine.WorkOrderRecord, error) {
	if f.err != nil {
		return engine.WorkOrderRecord{}, f.err
	}
	rec, ok := f.records[id]
	if !ok {
		return engine.WorkOrderRecord{}, errors.New("not found")
	}
	return rec, nil
}

type fakeIndexer struct {
	indexed []int64
	removed []int64
	err     error
}

func (f *fakeIndexer) IndexDocument(rec engine.WorkOrderRecord) error {
	if f.err != nil {
		return f.err
	}
	f.indexed = append(f.indexed, rec.ID)
	return nil
}

func (f *fakeIndexer) RemoveDocument(id int64) {
	f.removed = append(f.removed, id)
}

func eventPayload(t *testing.T, typ string, id int64) []byte {
	t.Helper()
	data, err := json.Marshal(WorkOrderEvent{Type: typ, WorkOrderID: id})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestHandleEventIndexesCreatedAndUpdated(t *testing.T) {
	fetcher := &fakeFetcher{records: map[int64]engine.WorkOrderRecord{
		1: {ID: 1, CustomerName: "김철수", CreatedAt: time.Now()},
		2: {ID: 2, CustomerName: "이영희", CreatedAt: time.Now()},
	}}
	indexer := &fakeIndexer{}
	handle := HandleEvent(fetcher, indexer, nil)
	ctx := context.Background()

	if err := handle(ctx, nil, eventPayload(t, EventCreated, 1)); err != nil {
		t.Fatalf("created event: %v", err)
	}
	if err := handle(ctx, nil, eventPayload(t, EventUpdated, 2)); err != nil {
		t.Fatalf("updated event: %v", err)
	}
	if len(indexer.indexed) != 2 || indexer.indexed[0] != 1 || indexer.indexed[1] != 2 {
		t.Errorf("indexed = %v, want [1 2]", indexer.indexed)
	}
}

func TestHandleEventRemovesDeleted(t *testing.T) {
	indexer := &fakeIndexer{}
	handle := HandleEvent(&fakeFetcher{}, indexer, nil)

	if err := handle(context.Background(), nil, eventPayload(t, EventDeleted, 7)); err != nil {
		t.Fatalf("deleted event: %v", err)
	}
	if len(indexer.removed) != 1 || indexer.removed[0] != 7 {
		t.Errorf("removed = %v, want [7]", indexer.removed)
	}
	if len(indexer.indexed) != 0 {
		t.Errorf("deleted event should not index, indexed %v", indexer.indexed)
	}
}

func TestHandleEventSkipsUnknownType(t *testing.T) {
	indexer := &fakeIndexer{}
	handle := HandleEvent(&fakeFetcher{}, indexer, nil)

	if err := handle(context.Background(), nil, eventPayload(t, "archived", 1)); err != nil {
		t.Fatalf("unknown type should be skipped without error, got %v", err)
	}
	if len(indexer.indexed) != 0 {
		t.Errorf("unknown event type should not index, indexed %v", indexer.indexed)
	}
}

func TestHandleEventSkipsMalformedPayload(t *testing.T) {
	handle := HandleEvent(&fakeFetcher{}, &fakeIndexer{}, nil)
	if err := handle(context.Background(), nil, []byte("{not json")); err != nil {
		t.Fatalf("malformed payload should be skipped without error, got %v", err)
	}
}

func TestHandleEventReturnsFetchError(t *testing.T) {
	fetchErr := errors.New("database down")
	handle := HandleEvent(&fakeFetcher{err: fetchErr}, &fakeIndexer{}, nil)

	err := handle(context.Background(), nil, eventPayload(t, EventCreated, 1))
	if !errors.Is(err, fetchErr) {
		t.Fatalf("expected fetch error to propagate, got %v", err)
	}
}

func TestHandleEventReturnsIndexError(t *testing.T) {
	fetcher := &fakeFetcher{records: map[int64]engine.WorkOrderRecord{1: {ID: 1}}}
	indexErr := errors.New("bad record")
	handle := HandleEvent(fetcher, &fakeIndexer{err: indexErr}, nil)

	err := handle(context.Background(), nil, eventPayload(t, EventCreated, 1))
	if !errors.Is(err, indexErr) {
		t.Fatalf("expected index error to propagate, got %v", err)
	}
}
