// Package consumer follows work-order change events from Kafka and keeps
// the search index current between full rebuilds. The record-management
// application publishes an event whenever an operator creates, edits, or
// deletes a work order; this consumer fetches the fresh row and re-indexes
// it, or drops the document on deletion.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bambooty57/tunershop-search/internal/engine"
	"github.com/bambooty57/tunershop-search/pkg/kafka"
	"github.com/bambooty57/tunershop-search/pkg/metrics"
)

// Event types published by the record-management application.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// WorkOrderEvent is the JSON payload on the work-order events topic.
type WorkOrderEvent struct {
	Type        string `json:"type"`
	WorkOrderID int64  `json:"work_order_id"`
}

// RecordFetcher loads a single work order for re-indexing.
type RecordFetcher interface {
	GetWorkOrder(ctx context.Context, id int64) (engine.WorkOrderRecord, error)
}

// Indexer receives the fetched work order, or a deletion.
type Indexer interface {
	IndexDocument(rec engine.WorkOrderRecord) error
	RemoveDocument(id int64)
}

// IndexConsumer wraps a Kafka consumer to drive incremental indexing.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates an IndexConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleEvent returns a Kafka MessageHandler that re-indexes the work order
// named by each change event. Malformed payloads and unknown event types
// are logged and skipped rather than re-delivered; fetch and index failures
// are returned so the message stays uncommitted.
func HandleEvent(fetcher RecordFetcher, indexer Indexer, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[WorkOrderEvent](value)
		if err != nil {
			logger.Error("failed to decode work-order event",
				"error", err,
				"key", string(key),
			)
			return nil
		}

		switch event.Type {
		case EventCreated, EventUpdated:
		case EventDeleted:
			indexer.RemoveDocument(event.WorkOrderID)
			logger.Info("work order removed from index", "work_order_id", event.WorkOrderID)
			return nil
		default:
			logger.Warn("skipping unknown event type",
				"type", event.Type,
				"work_order_id", event.WorkOrderID,
			)
			return nil
		}

		rec, err := fetcher.GetWorkOrder(ctx, event.WorkOrderID)
		if err != nil {
			return fmt.Errorf("fetching work order %d: %w", event.WorkOrderID, err)
		}
		if err := indexer.IndexDocument(rec); err != nil {
			return fmt.Errorf("indexing work order %d: %w", event.WorkOrderID, err)
		}
		if m != nil {
			m.DocsIndexedTotal.Inc()
		}
		logger.Info("work order indexed",
			"work_order_id", event.WorkOrderID,
			"event_type", event.Type,
		)
		return nil
	}
}
