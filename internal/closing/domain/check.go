package closing

import (
	"fmt"
	"math"
	"time"
)

// CheckStatus is the outcome of a single closing check.
type CheckStatus string

const (
	// StatusPending marks a check not yet executed.
	StatusPending CheckStatus = "pending"
	// StatusCompleted marks a check whose condition held.
	StatusCompleted CheckStatus = "completed"
	// StatusFailed marks a check whose business condition failed.
	StatusFailed CheckStatus = "failed"
	// StatusError marks a check that could not execute (infrastructure
	// failure or timeout), distinct from failing its condition.
	StatusError CheckStatus = "error"
)

// CheckItem is the result of one named closing check against a period.
type CheckItem struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Category     string      `json:"category"`
	Required     bool        `json:"required"`
	Status       CheckStatus `json:"status"`
	ErrorMessage string      `json:"error_message,omitempty"`
	PeriodID     string      `json:"period_id"`
	ExecutedAt   time.Time   `json:"executed_at"`
}

// Summary aggregates a check run into a single go/no-go verdict.
type Summary struct {
	Total       int  `json:"total"`
	Completed   int  `json:"completed"`
	Failed      int  `json:"failed"`
	SuccessRate int  `json:"success_rate"`
	CanClose    bool `json:"can_close"`
}

// CheckResult is the full outcome of one engine invocation. It is generated
// fresh per run and never persisted as authoritative state.
type CheckResult struct {
	Results    []CheckItem `json:"results"`
	Summary    Summary     `json:"summary"`
	PeriodID   string      `json:"period_id"`
	ExecutedAt time.Time   `json:"executed_at"`
}

// Summarize computes the aggregate verdict over executed check items.
// Only required checks gate closing; advisory failures are surfaced but do
// not block.
func Summarize(items []CheckItem, periodID string, executedAt time.Time) CheckResult {
	summary := Summary{Total: len(items), CanClose: true}
	for _, item := range items {
		switch item.Status {
		case StatusCompleted:
			summary.Completed++
		default:
			summary.Failed++
		}
		if item.Required && item.Status != StatusCompleted {
			summary.CanClose = false
		}
	}
	if summary.Total > 0 {
		summary.SuccessRate = int(math.Round(float64(summary.Completed) / float64(summary.Total) * 100))
	}
	return CheckResult{
		Results:    items,
		Summary:    summary,
		PeriodID:   periodID,
		ExecutedAt: executedAt,
	}
}

// FailedChecks returns the items that did not complete.
func (r CheckResult) FailedChecks() []CheckItem {
	failed := make([]CheckItem, 0)
	for _, item := range r.Results {
		if item.Status != StatusCompleted {
			failed = append(failed, item)
		}
	}
	return failed
}

// CheckFailedError is returned by a check whose business condition does not
// hold. Any other error from a check is treated as an execution error.
type CheckFailedError struct {
	Reason string
}

func (e CheckFailedError) Error() string {
	return e.Reason
}

// BlockedError indicates a close request was rejected by the check verdict.
// No state change has occurred.
type BlockedError struct {
	PeriodID     string
	FailedChecks []CheckItem
}

func (e BlockedError) Error() string {
	return fmt.Sprintf("period %s cannot close: %d check(s) not completed", e.PeriodID, len(e.FailedChecks))
}
