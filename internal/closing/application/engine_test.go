package application

import (
	"context"
	"errors"
	"testing"
	"time"

	closing "ledger-core/internal/closing/domain"
	periods "ledger-core/internal/periods/domain"
)

type stubPeriodReader struct {
	period *periods.Period
	err    error
}

func (s stubPeriodReader) Get(_ context.Context, _ string) (*periods.Period, error) {
	return s.period, s.err
}

type stubCheck struct {
	id  string
	run func(ctx context.Context, period *periods.Period) error
}

func (c stubCheck) ID() string       { return c.id }
func (c stubCheck) Name() string     { return c.id }
func (c stubCheck) Category() string { return "test" }
func (c stubCheck) Run(ctx context.Context, period *periods.Period) error {
	return c.run(ctx, period)
}

func testPeriod() *periods.Period {
	return &periods.Period{
		ID:        "p1",
		Name:      "November 2025",
		StartDate: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC),
	}
}

func TestEngineRun_Classification(t *testing.T) {
	configured := []ConfiguredCheck{
		{Required: true, Check: stubCheck{id: "ok", run: func(context.Context, *periods.Period) error {
			return nil
		}}},
		{Required: true, Check: stubCheck{id: "business-fail", run: func(context.Context, *periods.Period) error {
			return closing.CheckFailedError{Reason: "3 draft document(s) still in period"}
		}}},
		{Required: false, Check: stubCheck{id: "broken", run: func(context.Context, *periods.Period) error {
			return errors.New("connection refused")
		}}},
	}
	engine, err := NewEngine(stubPeriodReader{period: testPeriod()}, configured, time.Second)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	result, err := engine.Run(context.Background(), "p1")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(result.Results))
	}

	byID := map[string]closing.CheckItem{}
	for _, item := range result.Results {
		byID[item.ID] = item
	}
	if byID["ok"].Status != closing.StatusCompleted {
		t.Errorf("ok: expected completed, got %s", byID["ok"].Status)
	}
	if byID["business-fail"].Status != closing.StatusFailed {
		t.Errorf("business-fail: expected failed, got %s", byID["business-fail"].Status)
	}
	if byID["business-fail"].ErrorMessage != "3 draft document(s) still in period" {
		t.Errorf("business-fail: reason not carried: %q", byID["business-fail"].ErrorMessage)
	}
	if byID["broken"].Status != closing.StatusError {
		t.Errorf("broken: expected error status, got %s", byID["broken"].Status)
	}

	if result.Summary.CanClose {
		t.Fatalf("required failure must block close")
	}
	if result.Summary.SuccessRate != 33 {
		t.Fatalf("expected success rate 33, got %d", result.Summary.SuccessRate)
	}
}

func TestEngineRun_Timeout(t *testing.T) {
	configured := []ConfiguredCheck{
		{Required: true, Check: stubCheck{id: "slow", run: func(ctx context.Context, _ *periods.Period) error {
			<-ctx.Done()
			return ctx.Err()
		}}},
	}
	engine, err := NewEngine(stubPeriodReader{period: testPeriod()}, configured, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	result, err := engine.Run(context.Background(), "p1")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	item := result.Results[0]
	if item.Status != closing.StatusError {
		t.Fatalf("expected error status, got %s", item.Status)
	}
	if item.ErrorMessage != "execution timeout" {
		t.Fatalf("expected timeout message, got %q", item.ErrorMessage)
	}
	if result.Summary.CanClose {
		t.Fatalf("timed out required check must block close")
	}
}

func TestEngineRun_Cancellation(t *testing.T) {
	configured := []ConfiguredCheck{
		{Required: true, Check: stubCheck{id: "ok", run: func(context.Context, *periods.Period) error {
			return nil
		}}},
	}
	engine, err := NewEngine(stubPeriodReader{period: testPeriod()}, configured, time.Second)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine.Run(ctx, "p1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEngineRun_PeriodNotFound(t *testing.T) {
	configured := []ConfiguredCheck{
		{Required: true, Check: stubCheck{id: "ok", run: func(context.Context, *periods.Period) error {
			return nil
		}}},
	}
	engine, err := NewEngine(stubPeriodReader{}, configured, time.Second)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, err := engine.Run(context.Background(), "missing"); !errors.Is(err, periods.ErrPeriodNotFound) {
		t.Fatalf("expected ErrPeriodNotFound, got %v", err)
	}
}

func TestEngineRun_Repeatable(t *testing.T) {
	calls := 0
	configured := []ConfiguredCheck{
		{Required: true, Check: stubCheck{id: "flaky", run: func(context.Context, *periods.Period) error {
			calls++
			if calls == 1 {
				return closing.CheckFailedError{Reason: "first run fails"}
			}
			return nil
		}}},
	}
	engine, err := NewEngine(stubPeriodReader{period: testPeriod()}, configured, time.Second)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	first, err := engine.Run(context.Background(), "p1")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Summary.CanClose {
		t.Fatalf("first run must block")
	}

	second, err := engine.Run(context.Background(), "p1")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.Summary.CanClose {
		t.Fatalf("second run reflects current state, not first run's verdict")
	}
}
