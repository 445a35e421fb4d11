package periods

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period is a non-overlapping accounting date range. Once closed it is
// immutable and rejects postings dated inside its range.
type Period struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	IsClosed      bool            `json:"is_closed"`
	ClosedAt      time.Time       `json:"closed_at,omitempty"`
	ClosedBy      string          `json:"closed_by,omitempty"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetIncome     decimal.Decimal `json:"net_income"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Validate checks period invariants at creation.
func (p Period) Validate() error {
	if p.ID == "" {
		return ErrEmptyPeriodID
	}
	if p.Name == "" {
		return ErrEmptyPeriodName
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return ErrInvalidDateRange
	}
	if !p.StartDate.Before(p.EndDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// Contains reports whether the date falls inside the period, bounds inclusive.
func (p Period) Contains(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}

// Overlaps reports whether two date ranges intersect, bounds inclusive.
func (p Period) Overlaps(other Period) bool {
	return !p.StartDate.After(other.EndDate) && !other.StartDate.After(p.EndDate)
}

// Clone returns a detached copy.
func (p *Period) Clone() *Period {
	if p == nil {
		return nil
	}
	copy := *p
	return &copy
}
