package services

import (
	"context"
	"log/slog"
	"sync"

	"mmex/internal/amqp"
	"mmex/internal/metrics"
)

// ChangeHandler reacts to a data change, either in-process or delivered by
// the broker.
type ChangeHandler func(ctx context.Context, msg *amqp.ChangeMessage) error

// Notifier fans a change out to local handlers and publishes it on the
// broker. It never fails the caller: the data is already committed when a
// change is announced. A nil *Notifier is valid and does nothing.
type Notifier struct {
	publisher ChangePublisher

	mu       sync.RWMutex
	handlers []ChangeHandler
}

// NewNotifier accepts a nil publisher, which disables broker events.
func NewNotifier(publisher ChangePublisher) *Notifier {
	return &Notifier{publisher: publisher}
}

// Subscribe registers h for changes made by this process.
func (n *Notifier) Subscribe(h ChangeHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers = append(n.handlers, h)
}

func (n *Notifier) Notify(ctx context.Context, msg *amqp.ChangeMessage) {
	if n == nil {
		return
	}

	n.mu.RLock()
	handlers := n.handlers
	n.mu.RUnlock()
	for _, h := range handlers {
		if err := h(ctx, msg); err != nil {
			slog.WarnContext(ctx, "Change handler failed",
				"entity", msg.Entity,
				"action", msg.Action,
				"error", err)
		}
	}

	if n.publisher == nil {
		metrics.EventsPublished.WithLabelValues("disabled").Inc()
		return
	}
	if err := n.publisher.PublishChange(ctx, msg); err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		slog.ErrorContext(ctx, "Failed to publish change message",
			"entity", msg.Entity,
			"action", msg.Action,
			"id", msg.ID,
			"error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues("ok").Inc()
}

func (n *Notifier) changed(ctx context.Context, entity amqp.Entity, action amqp.Action, id int64) {
	if n == nil {
		return
	}
	n.Notify(ctx, amqp.NewChangeMessage(entity, action, id))
}
