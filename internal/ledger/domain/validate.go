package ledger

import "github.com/shopspring/decimal"

// Epsilon is the absolute tolerance for balance comparison. Totals are
// accumulated over many lines and must tolerate rounding, so equality is
// never tested directly.
var Epsilon = decimal.NewFromFloat(0.01)

// ValidateDraft checks the invariants a document must satisfy at creation
// and while being edited. Balance is deliberately not checked here; drafts
// may be unbalanced mid-edit.
func ValidateDraft(doc *JournalDocument) error {
	if doc == nil {
		return ErrDocumentNotFound
	}
	if len(doc.Lines) < 2 {
		return ErrTooFewLines
	}
	if !doc.ExchangeRate.IsPositive() {
		return ErrInvalidExchangeRate
	}
	for _, line := range doc.Lines {
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return ErrNegativeAmount
		}
	}
	return nil
}

// ValidateForPosting checks every invariant required for the draft->posted
// transition. It performs no writes; posting callers must run it before
// committing anything.
func ValidateForPosting(doc *JournalDocument) error {
	if err := ValidateDraft(doc); err != nil {
		return err
	}
	for i, line := range doc.Lines {
		if line.Empty() {
			return EmptyLineError{LineIndex: i}
		}
		if line.AccountID == "" || (line.Debit.IsZero() && line.Credit.IsZero()) {
			return EmptyLineError{LineIndex: i}
		}
		if line.Debit.IsPositive() && line.Credit.IsPositive() {
			return ErrBothSides
		}
	}
	debit, credit := doc.Totals()
	difference := debit.Sub(credit).Abs()
	if difference.GreaterThan(Epsilon) {
		return UnbalancedEntryError{DebitTotal: debit, CreditTotal: credit, Difference: difference}
	}
	return nil
}
