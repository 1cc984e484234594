// Package events publishes domain events about user data changes so other
// services (notifications, sync workers) can react without polling.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/logger"
)

// Routing keys.
const (
	TransactionCreated     = "transaction.created"
	TransactionSeriesAdded = "transaction.series_created"
	TransactionDeleted     = "transaction.deleted"
	TransactionsBulkDelete = "transaction.bulk_deleted"
)

// Event is the JSON body of a published message.
type Event struct {
	Type       string         `json:"type"`
	UserID     string         `json:"user_id"`
	ResourceID string         `json:"resource_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType, userID, resourceID string, data map[string]any) Event {
	return Event{
		Type:       eventType,
		UserID:     userID,
		ResourceID: resourceID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

func (e Event) encode() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event %s: %w", e.Type, err)
	}
	return body, nil
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// New returns an AMQP publisher when cfg.URL is set and a no-op publisher
// otherwise.
func New(cfg config.AMQPConfig) (Publisher, error) {
	if cfg.URL == "" {
		logger.Get().Info("AMQP_URL not set, domain events are disabled")
		return NopPublisher{}, nil
	}
	return NewAMQPPublisher(cfg.URL, cfg.Exchange)
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// MemoryPublisher keeps published events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (m *MemoryPublisher) Publish(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *MemoryPublisher) Close() error { return nil }

// Events returns a copy of everything published so far.
func (m *MemoryPublisher) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// PublishBestEffort publishes within timeout and logs
// failures. Events are best effort and never fail the originating request.
func PublishBestEffort(p Publisher, e Event, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := p.Publish(ctx, e); err != nil {
		logger.Get().Warnw("failed to publish event",
			"type", e.Type,
			"user_id", e.UserID,
			"resource_id", e.ResourceID,
			"error", err,
		)
	}
}
