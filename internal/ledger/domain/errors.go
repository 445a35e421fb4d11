package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrDocumentNotFound indicates the document id does not resolve.
	ErrDocumentNotFound = errors.New("journal document not found")
	// ErrTooFewLines indicates a document with fewer than two lines.
	ErrTooFewLines = errors.New("journal document needs at least two lines")
	// ErrInvalidExchangeRate indicates a non-positive exchange rate.
	ErrInvalidExchangeRate = errors.New("journal document: exchange rate must be positive")
	// ErrNegativeAmount indicates a negative debit or credit.
	ErrNegativeAmount = errors.New("journal line: negative amount")
	// ErrBothSides indicates a line with both debit and credit set.
	ErrBothSides = errors.New("journal line: exactly one of debit or credit must be set")
)

// UnbalancedEntryError indicates debit and credit totals diverge beyond epsilon.
type UnbalancedEntryError struct {
	DebitTotal  decimal.Decimal
	CreditTotal decimal.Decimal
	Difference  decimal.Decimal
}

func (e UnbalancedEntryError) Error() string {
	return fmt.Sprintf("unbalanced entry: debits %s != credits %s (difference %s)",
		e.DebitTotal.StringFixed(2), e.CreditTotal.StringFixed(2), e.Difference.StringFixed(2))
}

// EmptyLineError indicates a line lacking both account and amount.
type EmptyLineError struct {
	LineIndex int
}

func (e EmptyLineError) Error() string {
	return fmt.Sprintf("empty journal line at index %d", e.LineIndex)
}

// InvalidStateTransitionError indicates an operation not allowed from the
// document's current status.
type InvalidStateTransitionError struct {
	DocumentID string
	From       DocumentStatus
	Operation  string
}

func (e InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("document %s: cannot %s from status %s", e.DocumentID, e.Operation, e.From)
}
