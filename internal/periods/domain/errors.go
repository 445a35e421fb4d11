package periods

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPeriodNotFound indicates the period id does not resolve.
	ErrPeriodNotFound = errors.New("accounting period not found")
	// ErrPeriodClosed indicates a write against a closed period.
	ErrPeriodClosed = errors.New("accounting period is closed")
	// ErrCloseInProgress indicates a posting attempted while a close holds the
	// period lock. Callers should retry after the close settles.
	ErrCloseInProgress = errors.New("period close in progress, retry later")
	// ErrDateOutsidePeriod indicates a document dated outside its period range.
	ErrDateOutsidePeriod = errors.New("document date outside period range")

	ErrEmptyPeriodID    = errors.New("period: empty id")
	ErrEmptyPeriodName  = errors.New("period: empty name")
	ErrInvalidDateRange = errors.New("period: start date must precede end date")
)

// OverlapError indicates a new period's range intersects an existing one.
type OverlapError struct {
	ExistingID   string
	ExistingName string
	Start        time.Time
	End          time.Time
}

func (e OverlapError) Error() string {
	return fmt.Sprintf("period range overlaps %s (%s .. %s)",
		e.ExistingName, e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}
