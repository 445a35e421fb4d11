package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	closing "ledger-core/internal/closing/domain"
	ledger "ledger-core/internal/ledger/domain"
	"ledger-core/internal/observability/metrics"
	periods "ledger-core/internal/periods/domain"
)

// CheckRunner produces the pre-close verdict for a period.
type CheckRunner interface {
	Run(ctx context.Context, periodID string) (*closing.CheckResult, error)
}

// TotalsReader recomputes posted revenue/expense totals for a period.
type TotalsReader interface {
	SumPostedTotals(ctx context.Context, periodID string) (ledger.PeriodTotals, error)
}

// EventPublisher publishes domain events after commits.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// PeriodService owns period creation and the irreversible close transition.
type PeriodService struct {
	repo   periods.Repository
	totals TotalsReader
	engine CheckRunner
	locks  *periods.LockRegistry
	bus    EventPublisher
	now    func() time.Time
}

// NewPeriodService constructs a service.
func NewPeriodService(repo periods.Repository, totals TotalsReader, engine CheckRunner, locks *periods.LockRegistry, bus EventPublisher) (*PeriodService, error) {
	if repo == nil {
		return nil, errors.New("period service: nil repo")
	}
	if totals == nil {
		return nil, errors.New("period service: nil totals reader")
	}
	if engine == nil {
		return nil, errors.New("period service: nil check runner")
	}
	if locks == nil {
		return nil, errors.New("period service: nil lock registry")
	}
	return &PeriodService{repo: repo, totals: totals, engine: engine, locks: locks, bus: bus, now: time.Now}, nil
}

// WithNow overrides the clock for testing.
func (s *PeriodService) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create stores a new open period, rejecting overlapping date ranges.
func (s *PeriodService) Create(ctx context.Context, name string, start, end time.Time) (*periods.Period, error) {
	now := s.now().UTC()
	period := &periods.Period{
		ID:        uuid.NewString(),
		Name:      name,
		StartDate: start.UTC(),
		EndDate:   end.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, period); err != nil {
		return nil, err
	}
	return period, nil
}

// Get loads a period by id.
func (s *PeriodService) Get(ctx context.Context, id string) (*periods.Period, error) {
	period, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, periods.ErrPeriodNotFound
	}
	return period, nil
}

// List returns all periods.
func (s *PeriodService) List(ctx context.Context) ([]*periods.Period, error) {
	return s.repo.List(ctx)
}

// RequestClose runs the closing-check battery and, when every required check
// completes, commits the open->closed transition with totals recomputed from
// posted documents. The period's exclusive lock is held across both phases,
// so no posting can interleave between the check run and the commit. On a
// blocked verdict no state changes.
func (s *PeriodService) RequestClose(ctx context.Context, id string, closingDate time.Time, description, closedBy string) (*periods.Period, *closing.CheckResult, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveClose(result, time.Since(start))
	}()
	_ = description // recorded by the caller's audit trail, not period state

	s.locks.AcquireClose(id)
	defer s.locks.ReleaseClose(id)

	period, err := s.repo.Get(ctx, id)
	if err != nil {
		result = metrics.ResultError
		return nil, nil, err
	}
	if period == nil {
		result = metrics.ResultError
		return nil, nil, periods.ErrPeriodNotFound
	}
	if period.IsClosed {
		result = metrics.ResultError
		return nil, nil, periods.ErrPeriodClosed
	}

	checkResult, err := s.engine.Run(ctx, id)
	if err != nil {
		result = metrics.ResultError
		return nil, nil, err
	}
	if !checkResult.Summary.CanClose {
		result = metrics.ResultError
		return nil, checkResult, closing.BlockedError{PeriodID: id, FailedChecks: checkResult.FailedChecks()}
	}

	totals, err := s.totals.SumPostedTotals(ctx, id)
	if err != nil {
		result = metrics.ResultError
		return nil, checkResult, err
	}

	closedAt := closingDate.UTC()
	if closedAt.IsZero() || closingDate.IsZero() {
		closedAt = s.now().UTC()
	}
	closedTotals := periods.ClosedTotals{Revenue: totals.Revenue, Expenses: totals.Expenses}
	if err := s.repo.MarkClosed(ctx, id, closedTotals, closedAt, closedBy); err != nil {
		result = metrics.ResultError
		return nil, checkResult, err
	}

	period.IsClosed = true
	period.ClosedAt = closedAt
	period.ClosedBy = closedBy
	period.TotalRevenue = totals.Revenue
	period.TotalExpenses = totals.Expenses
	period.NetIncome = totals.Revenue.Sub(totals.Expenses)
	period.UpdatedAt = closedAt

	if s.bus != nil {
		_ = s.bus.Publish(ctx, PeriodClosed{
			PeriodID:      period.ID,
			Name:          period.Name,
			TotalRevenue:  period.TotalRevenue,
			TotalExpenses: period.TotalExpenses,
			NetIncome:     period.NetIncome,
			ClosedBy:      closedBy,
			OccurredAt:    closedAt,
		})
	}
	return period, checkResult, nil
}
