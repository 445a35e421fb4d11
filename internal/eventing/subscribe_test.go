package eventing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ledger-core/internal/eventing/eventbus"
)

type memProcessed struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newMemProcessed() *memProcessed {
	return &memProcessed{seen: make(map[string]bool)}
}

func (m *memProcessed) HasProcessed(ctx context.Context, eventID, consumerName string) (bool, error) {
	_ = ctx
	if m.err != nil {
		return false, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[eventID+"/"+consumerName], nil
}

func (m *memProcessed) MarkProcessed(ctx context.Context, eventID, consumerName string) error {
	_ = ctx
	m.mu.Lock()
	m.seen[eventID+"/"+consumerName] = true
	m.mu.Unlock()
	return nil
}

func TestWrapHandlerSkipsProcessedEvents(t *testing.T) {
	store := newMemProcessed()
	calls := 0
	wrapped := WrapHandler("consumer-a", func(ctx context.Context, event any) error {
		_ = ctx
		_ = event
		calls++
		return nil
	}, store)

	ctx := WithEnvelope(context.Background(), Envelope{EventID: "evt-1"})
	if err := wrapped(ctx, "payload"); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := wrapped(ctx, "payload"); err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}
}

func TestWrapHandlerPerConsumerIsolation(t *testing.T) {
	store := newMemProcessed()
	handler := func(ctx context.Context, event any) error { return nil }
	a := WrapHandler("consumer-a", handler, store)
	b := WrapHandler("consumer-b", handler, store)

	ctx := WithEnvelope(context.Background(), Envelope{EventID: "evt-1"})
	if err := a(ctx, nil); err != nil {
		t.Fatal(err)
	}

	processed, err := store.HasProcessed(context.Background(), "evt-1", "consumer-b")
	if err != nil {
		t.Fatal(err)
	}
	if processed {
		t.Error("consumer-b should not be marked by consumer-a's delivery")
	}
	if err := b(ctx, nil); err != nil {
		t.Fatal(err)
	}
}

func TestWrapHandlerFailureNotMarked(t *testing.T) {
	store := newMemProcessed()
	fail := errors.New("handler boom")
	wrapped := WrapHandler("consumer-a", func(ctx context.Context, event any) error {
		return fail
	}, store)

	ctx := WithEnvelope(context.Background(), Envelope{EventID: "evt-1"})
	if err := wrapped(ctx, nil); !errors.Is(err, fail) {
		t.Fatalf("err = %v, want handler error", err)
	}
	processed, _ := store.HasProcessed(context.Background(), "evt-1", "consumer-a")
	if processed {
		t.Error("failed delivery must stay unprocessed for retry")
	}
}

func TestWrapHandlerWithoutEnvelope(t *testing.T) {
	store := newMemProcessed()
	calls := 0
	wrapped := WrapHandler("consumer-a", func(ctx context.Context, event any) error {
		calls++
		return nil
	}, store)

	// No envelope in context: deliver without idempotency bookkeeping.
	if err := wrapped(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if err := wrapped(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("handler calls = %d, want 2", calls)
	}
}

func TestSubscribeDeliversThroughBus(t *testing.T) {
	bus := eventbus.NewInMemoryBus()
	store := newMemProcessed()
	var got []any
	Subscribe(bus, eventbus.EventTypeOf[testEvent](), "consumer-a", func(ctx context.Context, event any) error {
		got = append(got, event)
		return nil
	}, store)

	ctx := WithEnvelope(context.Background(), Envelope{EventID: "evt-1"})
	if err := bus.Publish(ctx, testEvent{Value: 7}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := bus.Publish(ctx, testEvent{Value: 7}); err != nil {
		t.Fatalf("republish: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(got))
	}
	if evt, ok := got[0].(testEvent); !ok || evt.Value != 7 {
		t.Errorf("delivered %+v", got[0])
	}
}

type testEvent struct {
	Value int
}
