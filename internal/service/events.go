package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Strob0t/rentalmanager/internal/domain/event"
	"github.com/Strob0t/rentalmanager/internal/domain/user"
	"github.com/Strob0t/rentalmanager/internal/port/broadcast"
	"github.com/Strob0t/rentalmanager/internal/port/messagequeue"
)

// RecordNotifier is told about every successful write to an owned record.
type RecordNotifier interface {
	RecordChanged(ctx context.Context, collection event.Collection, op event.Op, id string)
}

// EventPublisher fans session and record events out to connected browsers.
//
// With a queue configured, events are published to NATS and Forward relays
// them from there to the local WebSocket hub, so every instance behind a
// load balancer reaches its own clients. Without a queue, events go to the
// hub directly.
type EventPublisher struct {
	queue messagequeue.Queue
	hub   broadcast.Broadcaster
	now   func() time.Time
}

// NewEventPublisher creates a publisher. Either argument may be nil.
func NewEventPublisher(queue messagequeue.Queue, hub broadcast.Broadcaster) *EventPublisher {
	return &EventPublisher{queue: queue, hub: hub, now: time.Now}
}

// AuthStateChanged is registered with the auth service's OnAuthStateChange.
func (p *EventPublisher) AuthStateChanged(ev event.AuthState) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.emit(ctx, ev.UserID, messagequeue.SubjectAuthState, broadcast.EventAuthState, ev)
}

// RecordChanged publishes a change of one record owned by the context's user.
func (p *EventPublisher) RecordChanged(ctx context.Context, collection event.Collection, op event.Op, id string) {
	u := user.FromContext(ctx)
	if u == nil {
		return
	}
	ev := event.RecordChanged{
		Collection: collection,
		Op:         op,
		ID:         id,
		UserID:     u.ID,
		Timestamp:  p.now().UTC(),
	}
	p.emit(ctx, u.ID, messagequeue.RecordsSubject(string(collection)), broadcast.EventRecordChanged, ev)
}

func (p *EventPublisher) emit(ctx context.Context, userID, subject, eventType string, payload any) {
	if p.queue != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			slog.ErrorContext(ctx, "marshal event", "subject", subject, "error", err)
			return
		}
		if err := p.queue.Publish(ctx, subject, data); err != nil {
			slog.WarnContext(ctx, "publish event failed", "subject", subject, "error", err)
		}
		return
	}
	if p.hub != nil {
		p.hub.BroadcastEvent(ctx, userID, eventType, payload)
	}
}

// Forward subscribes to the event subjects and relays every message to the
// hub. It is a no-op without both a queue and a hub. The returned function
// cancels the subscriptions.
func (p *EventPublisher) Forward(ctx context.Context) (func(), error) {
	if p.queue == nil || p.hub == nil {
		return func() {}, nil
	}

	cancelAuth, err := p.queue.Subscribe(ctx, messagequeue.SubjectAuthState, p.relayAuth)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", messagequeue.SubjectAuthState, err)
	}
	cancelRecords, err := p.queue.Subscribe(ctx, messagequeue.SubjectRecordsChanged+".>", p.relayRecord)
	if err != nil {
		cancelAuth()
		return nil, fmt.Errorf("subscribe %s: %w", messagequeue.SubjectRecordsChanged, err)
	}
	return func() {
		cancelAuth()
		cancelRecords()
	}, nil
}

func (p *EventPublisher) relayAuth(ctx context.Context, _ string, data []byte) error {
	var ev event.AuthState
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("decode auth state: %w", err)
	}
	p.hub.BroadcastEvent(ctx, ev.UserID, broadcast.EventAuthState, ev)
	return nil
}

func (p *EventPublisher) relayRecord(ctx context.Context, subject string, data []byte) error {
	if strings.HasSuffix(subject, ".dlq") {
		return nil
	}
	var ev event.RecordChanged
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("decode record change: %w", err)
	}
	p.hub.BroadcastEvent(ctx, ev.UserID, broadcast.EventRecordChanged, ev)
	return nil
}
