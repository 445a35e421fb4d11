package application

import (
	"context"
	"errors"
	"time"

	"ledger-core/internal/closing/checks"
	closing "ledger-core/internal/closing/domain"
	"ledger-core/internal/observability/metrics"
	periods "ledger-core/internal/periods/domain"
)

// ConfiguredCheck pairs a check with its required flag from configuration.
type ConfiguredCheck struct {
	Check    checks.Check
	Required bool
}

// PeriodReader loads periods for check runs.
type PeriodReader interface {
	Get(ctx context.Context, id string) (*periods.Period, error)
}

// Engine runs the configured closing-check battery against a period.
// Each invocation produces a fresh result; nothing is persisted.
type Engine struct {
	checks  []ConfiguredCheck
	periods PeriodReader
	timeout time.Duration
	now     func() time.Time
}

// NewEngine constructs an engine.
func NewEngine(periodReader PeriodReader, configured []ConfiguredCheck, timeout time.Duration) (*Engine, error) {
	if periodReader == nil {
		return nil, errors.New("closing engine: nil period reader")
	}
	if len(configured) == 0 {
		return nil, errors.New("closing engine: no checks configured")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Engine{checks: configured, periods: periodReader, timeout: timeout, now: time.Now}, nil
}

// WithNow overrides the clock for testing.
func (e *Engine) WithNow(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// Run executes every configured check against the period. A check error that
// is not a CheckFailedError is recorded with the dedicated execution-error
// status. Cancelling ctx aborts the run and discards partial results.
func (e *Engine) Run(ctx context.Context, periodID string) (*closing.CheckResult, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveCheckRun(result, time.Since(start))
	}()

	if periodID == "" {
		result = metrics.ResultError
		return nil, periods.ErrPeriodNotFound
	}
	period, err := e.periods.Get(ctx, periodID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if period == nil {
		result = metrics.ResultError
		return nil, periods.ErrPeriodNotFound
	}

	executedAt := e.now().UTC()
	items := make([]closing.CheckItem, 0, len(e.checks))
	for _, configured := range e.checks {
		if err := ctx.Err(); err != nil {
			result = metrics.ResultError
			return nil, err
		}
		item := e.runOne(ctx, configured, period, executedAt)
		metrics.ObserveCheckResult(item.ID, string(item.Status))
		items = append(items, item)
	}
	if err := ctx.Err(); err != nil {
		result = metrics.ResultError
		return nil, err
	}

	runResult := closing.Summarize(items, period.ID, executedAt)
	return &runResult, nil
}

func (e *Engine) runOne(ctx context.Context, configured ConfiguredCheck, period *periods.Period, executedAt time.Time) closing.CheckItem {
	check := configured.Check
	item := closing.CheckItem{
		ID:         check.ID(),
		Name:       check.Name(),
		Category:   check.Category(),
		Required:   configured.Required,
		Status:     closing.StatusPending,
		PeriodID:   period.ID,
		ExecutedAt: executedAt,
	}

	checkCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	err := check.Run(checkCtx, period)
	var failed closing.CheckFailedError
	switch {
	case err == nil:
		item.Status = closing.StatusCompleted
	case errors.As(err, &failed):
		item.Status = closing.StatusFailed
		item.ErrorMessage = failed.Reason
	case errors.Is(err, context.DeadlineExceeded):
		item.Status = closing.StatusError
		item.ErrorMessage = "execution timeout"
	default:
		item.Status = closing.StatusError
		item.ErrorMessage = "execution error: " + err.Error()
	}
	return item
}
