package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	closing "ledger-core/internal/closing/domain"
	ledger "ledger-core/internal/ledger/domain"
	periods "ledger-core/internal/periods/domain"
	periodsmem "ledger-core/internal/periods/infrastructure/memory"
)

type stubTotals struct {
	totals ledger.PeriodTotals
	err    error
}

func (s stubTotals) SumPostedTotals(ctx context.Context, periodID string) (ledger.PeriodTotals, error) {
	_ = ctx
	_ = periodID
	return s.totals, s.err
}

type stubRunner struct {
	result *closing.CheckResult
	err    error
	runs   int
}

func (s *stubRunner) Run(ctx context.Context, periodID string) (*closing.CheckResult, error) {
	_ = ctx
	_ = periodID
	s.runs++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type eventSink struct {
	events []any
}

func (s *eventSink) Publish(ctx context.Context, event any) error {
	_ = ctx
	s.events = append(s.events, event)
	return nil
}

func passingResult(periodID string) *closing.CheckResult {
	items := []closing.CheckItem{
		{ID: "draft-backlog", Name: "Draft backlog", Required: true, Status: closing.StatusCompleted},
		{ID: "posted-balance", Name: "Posted balance", Required: true, Status: closing.StatusCompleted},
	}
	result := closing.Summarize(items, periodID, time.Now().UTC())
	return &result
}

func blockedResult(periodID string) *closing.CheckResult {
	items := []closing.CheckItem{
		{ID: "draft-backlog", Name: "Draft backlog", Required: true, Status: closing.StatusFailed, ErrorMessage: "2 draft document(s) still in period"},
		{ID: "posted-balance", Name: "Posted balance", Required: true, Status: closing.StatusCompleted},
	}
	result := closing.Summarize(items, periodID, time.Now().UTC())
	return &result
}

func newService(t *testing.T, repo periods.Repository, totals TotalsReader, runner CheckRunner, bus EventPublisher) *PeriodService {
	t.Helper()
	service, err := NewPeriodService(repo, totals, runner, periods.NewLockRegistry(), bus)
	if err != nil {
		t.Fatalf("period service: %v", err)
	}
	return service
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateRejectsOverlap(t *testing.T) {
	repo := periodsmem.NewPeriodRepository()
	service := newService(t, repo, stubTotals{}, &stubRunner{}, nil)

	if _, err := service.Create(context.Background(), "March 2026", date(2026, time.March, 1), date(2026, time.March, 31)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := service.Create(context.Background(), "Mid March", date(2026, time.March, 15), date(2026, time.April, 10))
	var overlap periods.OverlapError
	if !errors.As(err, &overlap) {
		t.Fatalf("err = %v, want OverlapError", err)
	}
	if overlap.ExistingName != "March 2026" {
		t.Errorf("overlap names %q, want March 2026", overlap.ExistingName)
	}

	// Adjacent ranges do not overlap.
	if _, err := service.Create(context.Background(), "April 2026", date(2026, time.April, 1), date(2026, time.April, 30)); err != nil {
		t.Fatalf("adjacent Create: %v", err)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	repo := periodsmem.NewPeriodRepository()
	service := newService(t, repo, stubTotals{}, &stubRunner{}, nil)

	if _, err := service.Create(context.Background(), "", date(2026, time.March, 1), date(2026, time.March, 31)); !errors.Is(err, periods.ErrEmptyPeriodName) {
		t.Errorf("empty name: err = %v, want ErrEmptyPeriodName", err)
	}
	if _, err := service.Create(context.Background(), "Backwards", date(2026, time.March, 31), date(2026, time.March, 1)); !errors.Is(err, periods.ErrInvalidDateRange) {
		t.Errorf("inverted range: err = %v, want ErrInvalidDateRange", err)
	}
}

func TestRequestCloseCommits(t *testing.T) {
	repo := periodsmem.NewPeriodRepository()
	totals := stubTotals{totals: ledger.PeriodTotals{
		Revenue:  decimal.RequireFromString("5000.00"),
		Expenses: decimal.RequireFromString("3200.00"),
	}}
	bus := &eventSink{}
	service := newService(t, repo, totals, &stubRunner{result: passingResult("")}, bus)

	period, err := service.Create(context.Background(), "March 2026", date(2026, time.March, 1), date(2026, time.March, 31))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	closedAt := date(2026, time.April, 1)
	closed, checks, err := service.RequestClose(context.Background(), period.ID, closedAt, "month end", "controller-1")
	if err != nil {
		t.Fatalf("RequestClose: %v", err)
	}
	if !closed.IsClosed {
		t.Error("period not marked closed")
	}
	if !closed.ClosedAt.Equal(closedAt) {
		t.Errorf("closed at %v, want %v", closed.ClosedAt, closedAt)
	}
	if closed.ClosedBy != "controller-1" {
		t.Errorf("closed by %q", closed.ClosedBy)
	}
	if !closed.NetIncome.Equal(decimal.RequireFromString("1800.00")) {
		t.Errorf("net income = %s, want 1800.00", closed.NetIncome)
	}
	if checks == nil || !checks.Summary.CanClose {
		t.Errorf("check result %+v, want passing", checks)
	}

	stored, err := service.Get(context.Background(), period.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !stored.IsClosed || !stored.TotalRevenue.Equal(totals.totals.Revenue) {
		t.Errorf("stored period %+v not committed", stored)
	}

	if len(bus.events) != 1 {
		t.Fatalf("events = %d, want 1", len(bus.events))
	}
	evt, ok := bus.events[0].(PeriodClosed)
	if !ok {
		t.Fatalf("event type %T", bus.events[0])
	}
	if evt.PeriodID != period.ID || evt.ClosedBy != "controller-1" {
		t.Errorf("unexpected event %+v", evt)
	}
	if !evt.NetIncome.Equal(decimal.RequireFromString("1800.00")) {
		t.Errorf("event net income = %s", evt.NetIncome)
	}
}

func TestRequestCloseBlockedLeavesStateUntouched(t *testing.T) {
	repo := periodsmem.NewPeriodRepository()
	bus := &eventSink{}
	service := newService(t, repo, stubTotals{}, &stubRunner{result: blockedResult("")}, bus)

	period, err := service.Create(context.Background(), "March 2026", date(2026, time.March, 1), date(2026, time.March, 31))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, checks, err := service.RequestClose(context.Background(), period.ID, time.Time{}, "", "controller-1")
	var blocked closing.BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("err = %v, want BlockedError", err)
	}
	if len(blocked.FailedChecks) != 1 || blocked.FailedChecks[0].ID != "draft-backlog" {
		t.Errorf("failed checks %+v", blocked.FailedChecks)
	}
	if checks == nil {
		t.Error("blocked close should still return the check result")
	}

	stored, err := service.Get(context.Background(), period.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.IsClosed {
		t.Error("blocked close must not change period state")
	}
	if len(bus.events) != 0 {
		t.Errorf("events = %d, want none", len(bus.events))
	}
}

func TestRequestCloseIsIrreversible(t *testing.T) {
	repo := periodsmem.NewPeriodRepository()
	runner := &stubRunner{result: passingResult("")}
	service := newService(t, repo, stubTotals{}, runner, nil)

	period, err := service.Create(context.Background(), "March 2026", date(2026, time.March, 1), date(2026, time.March, 31))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, _, err := service.RequestClose(context.Background(), period.ID, time.Time{}, "", "controller-1"); err != nil {
		t.Fatalf("first close: %v", err)
	}

	if _, _, err := service.RequestClose(context.Background(), period.ID, time.Time{}, "", "controller-1"); !errors.Is(err, periods.ErrPeriodClosed) {
		t.Fatalf("second close: err = %v, want ErrPeriodClosed", err)
	}
	if runner.runs != 1 {
		t.Errorf("checks ran %d times, want 1 (closed period short-circuits)", runner.runs)
	}
}

func TestRequestCloseUnknownPeriod(t *testing.T) {
	service := newService(t, periodsmem.NewPeriodRepository(), stubTotals{}, &stubRunner{result: passingResult("")}, nil)
	if _, _, err := service.RequestClose(context.Background(), "missing", time.Time{}, "", "x"); !errors.Is(err, periods.ErrPeriodNotFound) {
		t.Fatalf("err = %v, want ErrPeriodNotFound", err)
	}
}

func TestRequestCloseExcludesConcurrentPosting(t *testing.T) {
	repo := periodsmem.NewPeriodRepository()
	locks := periods.NewLockRegistry()

	slowRunner := &gatedRunner{entered: make(chan struct{}), release: make(chan struct{})}
	service, err := NewPeriodService(repo, stubTotals{}, slowRunner, locks, nil)
	if err != nil {
		t.Fatalf("period service: %v", err)
	}

	period, err := service.Create(context.Background(), "March 2026", date(2026, time.March, 1), date(2026, time.March, 31))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, _, err := service.RequestClose(context.Background(), period.ID, time.Time{}, "", "controller-1")
		done <- err
	}()

	<-slowRunner.entered
	if locks.TryAcquirePost(period.ID) {
		locks.ReleasePost(period.ID)
		t.Error("posting latch acquired while close in progress")
	}
	close(slowRunner.release)

	if err := <-done; err != nil {
		t.Fatalf("RequestClose: %v", err)
	}
	if !locks.TryAcquirePost(period.ID) {
		t.Error("posting latch still held after close returned")
	} else {
		locks.ReleasePost(period.ID)
	}
}

type gatedRunner struct {
	entered chan struct{}
	release chan struct{}
}

func (r *gatedRunner) Run(ctx context.Context, periodID string) (*closing.CheckResult, error) {
	_ = ctx
	close(r.entered)
	<-r.release
	result := closing.Summarize([]closing.CheckItem{
		{ID: "draft-backlog", Name: "Draft backlog", Required: true, Status: closing.StatusCompleted},
	}, periodID, time.Now().UTC())
	return &result, nil
}
