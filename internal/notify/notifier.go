// Package notify dispatches post-commit order events to the outside world.
// Delivery is asynchronous and best-effort: a committed order is never rolled
// back because a notification failed.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

type Event struct {
	ID          string
	Type        string
	OrderNumber string
	Email       string
	Status      string
	OccurredAt  time.Time
}

// Sender is the delivery boundary (email, queue, webhook). The default
// implementation just logs.
type Sender interface {
	Send(event Event) error
}

type LogSender struct {
	Log *slog.Logger
}

func (s *LogSender) Send(event Event) error {
	s.Log.Info("notification sent",
		"event_id", event.ID,
		"type", event.Type,
		"order_number", event.OrderNumber,
		"status", event.Status,
	)
	return nil
}

type Notifier struct {
	log    *slog.Logger
	sender Sender
	events chan Event
	wg     sync.WaitGroup
	once   sync.Once
}

func New(log *slog.Logger, sender Sender) *Notifier {
	n := &Notifier{
		log:    log,
		sender: sender,
		events: make(chan Event, 256),
	}
	n.wg.Add(1)
	go n.run()
	return n
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for event := range n.events {
		if err := n.sender.Send(event); err != nil {
			n.log.Error("notification delivery failed",
				"event_id", event.ID,
				"type", event.Type,
				"order_number", event.OrderNumber,
				"err", err,
			)
		}
	}
}

// Publish never blocks the caller on delivery; if the buffer is full the
// event is dropped and logged.
func (n *Notifier) Publish(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	select {
	case n.events <- event:
	default:
		n.log.Warn("notification buffer full, dropping event",
			"event_id", event.ID,
			"type", event.Type,
			"order_number", event.OrderNumber,
		)
	}
}

// Close drains pending events and stops the worker.
func (n *Notifier) Close() {
	n.once.Do(func() {
		close(n.events)
	})
	n.wg.Wait()
}
