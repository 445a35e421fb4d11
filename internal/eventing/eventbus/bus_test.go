package eventbus

import (
	"context"
	"errors"
	"testing"
)

type sampleEvent struct {
	Value string
}

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewInMemoryBus()
	var got []string
	bus.Subscribe(EventTypeOf[sampleEvent](), func(ctx context.Context, event any) error {
		got = append(got, event.(sampleEvent).Value)
		return nil
	})
	bus.Subscribe(EventTypeOf[sampleEvent](), func(ctx context.Context, event any) error {
		got = append(got, "second:"+event.(sampleEvent).Value)
		return nil
	})

	if err := bus.Publish(context.Background(), sampleEvent{Value: "a"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "second:a" {
		t.Errorf("deliveries = %v", got)
	}
}

func TestPublishNilEvent(t *testing.T) {
	bus := NewInMemoryBus()
	if err := bus.Publish(context.Background(), nil); !errors.Is(err, ErrNilEvent) {
		t.Fatalf("err = %v, want ErrNilEvent", err)
	}
}

func TestPublishReturnsFirstHandlerError(t *testing.T) {
	bus := NewInMemoryBus()
	first := errors.New("first failure")
	bus.Subscribe(EventTypeOf[sampleEvent](), func(ctx context.Context, event any) error {
		return first
	})
	called := false
	bus.Subscribe(EventTypeOf[sampleEvent](), func(ctx context.Context, event any) error {
		called = true
		return errors.New("second failure")
	})

	err := bus.Publish(context.Background(), sampleEvent{})
	if !errors.Is(err, first) {
		t.Fatalf("err = %v, want first handler error", err)
	}
	if !called {
		t.Error("later handlers must still run after a failure")
	}
}

func TestEventTypeDereferencesPointers(t *testing.T) {
	direct := EventType(sampleEvent{})
	viaPointer := EventType(&sampleEvent{})
	if direct == "" || direct != viaPointer {
		t.Errorf("EventType mismatch: %q vs %q", direct, viaPointer)
	}
	if direct != EventTypeOf[sampleEvent]() {
		t.Errorf("EventTypeOf = %q, want %q", EventTypeOf[sampleEvent](), direct)
	}
}

func TestSubscribeIgnoresEmptyRegistrations(t *testing.T) {
	bus := NewInMemoryBus()
	bus.Subscribe("", func(ctx context.Context, event any) error { return errors.New("must not run") })
	bus.Subscribe(EventTypeOf[sampleEvent](), nil)
	if err := bus.Publish(context.Background(), sampleEvent{}); err != nil {
		t.Fatalf("publish: %v", err)
	}
}
