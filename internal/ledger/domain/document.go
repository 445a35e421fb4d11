package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentStatus is the lifecycle state of a journal document.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "draft"
	StatusPosted    DocumentStatus = "posted"
	StatusCancelled DocumentStatus = "cancelled"
)

// DocumentType classifies the origin of a journal document.
type DocumentType string

const (
	TypeManual     DocumentType = "manual"
	TypeReceipt    DocumentType = "receipt"
	TypePayment    DocumentType = "payment"
	TypePurchase   DocumentType = "purchase"
	TypeSales      DocumentType = "sales"
	TypePayroll    DocumentType = "payroll"
	TypeAdjustment DocumentType = "adjustment"
	TypeClosing    DocumentType = "closing"
	TypeReversing  DocumentType = "reversing"
)

// Valid returns true when the document type is supported.
func (t DocumentType) Valid() bool {
	switch t {
	case TypeManual, TypeReceipt, TypePayment, TypePurchase, TypeSales,
		TypePayroll, TypeAdjustment, TypeClosing, TypeReversing:
		return true
	default:
		return false
	}
}

// JournalLine is one side of a double entry.
// Exactly one of Debit/Credit must be positive.
type JournalLine struct {
	ID              string          `json:"id"`
	DocumentID      string          `json:"document_id"`
	AccountID       string          `json:"account_id"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
	Description     string          `json:"description,omitempty"`
	ForeignAmount   decimal.Decimal `json:"foreign_amount,omitempty"`
	ForeignCurrency string          `json:"foreign_currency,omitempty"`
}

// Empty reports whether the line carries neither an account nor an amount.
func (l JournalLine) Empty() bool {
	return l.AccountID == "" && l.Debit.IsZero() && l.Credit.IsZero()
}

// JournalDocument is the aggregate root of the posting domain.
// The poster owns Status; line content belongs to the creator until posted.
type JournalDocument struct {
	ID           string          `json:"id"`
	Number       string          `json:"number"`
	Date         time.Time       `json:"date"`
	Type         DocumentType    `json:"type"`
	Currency     string          `json:"currency"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	Description  string          `json:"description,omitempty"`
	Status       DocumentStatus  `json:"status"`
	PeriodID     string          `json:"period_id"`
	ReversalOfID string          `json:"reversal_of_id,omitempty"`
	Lines        []JournalLine   `json:"lines"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	PostedAt     time.Time       `json:"posted_at,omitempty"`
	PostedBy     string          `json:"posted_by,omitempty"`
	CancelledAt  time.Time       `json:"cancelled_at,omitempty"`
}

// Totals sums debit and credit over all lines.
func (d *JournalDocument) Totals() (debit, credit decimal.Decimal) {
	debit = decimal.Zero
	credit = decimal.Zero
	for _, line := range d.Lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}

// Clone returns a detached deep copy.
func (d *JournalDocument) Clone() *JournalDocument {
	if d == nil {
		return nil
	}
	copy := *d
	copy.Lines = append([]JournalLine(nil), d.Lines...)
	return &copy
}
