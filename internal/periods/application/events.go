package application

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodClosed is published after a period commits to closed.
type PeriodClosed struct {
	PeriodID      string          `json:"period_id"`
	Name          string          `json:"name"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetIncome     decimal.Decimal `json:"net_income"`
	ClosedBy      string          `json:"closed_by"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
