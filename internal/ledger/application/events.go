package application

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentPosted is published after a document commits to posted.
type DocumentPosted struct {
	DocumentID  string          `json:"document_id"`
	Number      string          `json:"number"`
	PeriodID    string          `json:"period_id"`
	DebitTotal  decimal.Decimal `json:"debit_total"`
	CreditTotal decimal.Decimal `json:"credit_total"`
	PostedBy    string          `json:"posted_by"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// DocumentCancelled is published after a draft is cancelled.
type DocumentCancelled struct {
	DocumentID string    `json:"document_id"`
	Number     string    `json:"number"`
	PeriodID   string    `json:"period_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DocumentReversed is published after a reversing entry posts.
type DocumentReversed struct {
	DocumentID string    `json:"document_id"`
	ReversalID string    `json:"reversal_id"`
	PeriodID   string    `json:"period_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
