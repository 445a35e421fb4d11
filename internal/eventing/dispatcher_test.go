package eventing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type postedEvent struct {
	DocumentID string `json:"document_id"`
	PeriodID   string `json:"period_id"`
}

type memOutbox struct {
	pending []OutboxRecord
	sent    []string
	failed  []string
}

func (m *memOutbox) ListPending(ctx context.Context, limit int) ([]OutboxRecord, error) {
	_ = ctx
	if limit > len(m.pending) {
		limit = len(m.pending)
	}
	return m.pending[:limit], nil
}

func (m *memOutbox) MarkSent(ctx context.Context, id string) error {
	_ = ctx
	m.sent = append(m.sent, id)
	return nil
}

func (m *memOutbox) MarkFailed(ctx context.Context, id string) error {
	_ = ctx
	m.failed = append(m.failed, id)
	return nil
}

type memDLQ struct {
	records []Envelope
}

func (m *memDLQ) RecordFailure(ctx context.Context, env Envelope, err error) error {
	_ = ctx
	_ = err
	m.records = append(m.records, env)
	return nil
}

type recordingBus struct {
	events []any
	envs   []Envelope
	err    error
}

func (b *recordingBus) Publish(ctx context.Context, event any) error {
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, event)
	if env, ok := EnvelopeFromContext(ctx); ok {
		b.envs = append(b.envs, env)
	}
	return nil
}

func outboxRecord(t *testing.T, id string, event any) OutboxRecord {
	t.Helper()
	env, err := BuildEnvelope(event, Meta{EventID: id})
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	return OutboxRecord{ID: id, Envelope: env}
}

func TestDispatchDeliversAndMarksSent(t *testing.T) {
	registry := NewRegistry()
	registry.Register(postedEvent{})
	outbox := &memOutbox{pending: []OutboxRecord{
		outboxRecord(t, "rec-1", postedEvent{DocumentID: "doc-1", PeriodID: "2026-03"}),
	}}
	bus := &recordingBus{}
	dlq := &memDLQ{}

	if err := NewDispatcher(bus, outbox, registry, dlq).Dispatch(context.Background(), 10); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(bus.events) != 1 {
		t.Fatalf("published = %d, want 1", len(bus.events))
	}
	evt, ok := bus.events[0].(postedEvent)
	if !ok || evt.DocumentID != "doc-1" {
		t.Errorf("published %+v", bus.events[0])
	}
	if len(bus.envs) != 1 || bus.envs[0].EventID != "rec-1" {
		t.Errorf("envelope not attached to delivery context: %+v", bus.envs)
	}
	if len(outbox.sent) != 1 || outbox.sent[0] != "rec-1" {
		t.Errorf("sent = %v", outbox.sent)
	}
	if len(outbox.failed) != 0 || len(dlq.records) != 0 {
		t.Errorf("unexpected failures: %v / %v", outbox.failed, dlq.records)
	}
}

func TestDispatchUnknownTypeGoesToDLQ(t *testing.T) {
	registry := NewRegistry()
	env := Envelope{EventID: "rec-1", EventType: "eventing.unregistered", Payload: json.RawMessage(`{}`), OccurredAt: time.Now()}
	outbox := &memOutbox{pending: []OutboxRecord{{ID: "rec-1", Envelope: env}}}
	bus := &recordingBus{}
	dlq := &memDLQ{}

	if err := NewDispatcher(bus, outbox, registry, dlq).Dispatch(context.Background(), 10); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(outbox.failed) != 1 {
		t.Errorf("failed = %v, want rec-1", outbox.failed)
	}
	if len(dlq.records) != 1 || dlq.records[0].EventID != "rec-1" {
		t.Errorf("dlq = %+v", dlq.records)
	}
	if len(bus.events) != 0 {
		t.Errorf("nothing should publish for an undecodable record")
	}
}

func TestDispatchBusFailureRetriesLater(t *testing.T) {
	registry := NewRegistry()
	registry.Register(postedEvent{})
	outbox := &memOutbox{pending: []OutboxRecord{
		outboxRecord(t, "rec-1", postedEvent{DocumentID: "doc-1"}),
		outboxRecord(t, "rec-2", postedEvent{DocumentID: "doc-2"}),
	}}
	bus := &recordingBus{err: errors.New("handler down")}
	dlq := &memDLQ{}

	if err := NewDispatcher(bus, outbox, registry, dlq).Dispatch(context.Background(), 10); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	// Both records fail but the batch keeps going.
	if len(outbox.failed) != 2 {
		t.Errorf("failed = %v, want both records", outbox.failed)
	}
	if len(outbox.sent) != 0 {
		t.Errorf("sent = %v, want none", outbox.sent)
	}
	if len(dlq.records) != 2 {
		t.Errorf("dlq = %d records, want 2", len(dlq.records))
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&postedEvent{})

	env, err := BuildEnvelope(postedEvent{DocumentID: "doc-9", PeriodID: "2026-03"}, Meta{})
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	decoded, err := registry.DecodePayload(env)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	evt, ok := decoded.(postedEvent)
	if !ok || evt.DocumentID != "doc-9" || evt.PeriodID != "2026-03" {
		t.Errorf("decoded %+v", decoded)
	}

	if _, err := registry.DecodePayload(Envelope{EventType: "nope"}); !errors.Is(err, ErrUnknownEventType) {
		t.Errorf("err = %v, want ErrUnknownEventType", err)
	}
}
