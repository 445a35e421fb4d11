package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(value string) decimal.Decimal {
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func balancedDoc(debit, credit string) *JournalDocument {
	return &JournalDocument{
		ID:           "doc-1",
		Number:       "JV-001",
		Date:         time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC),
		Type:         TypeManual,
		Currency:     "USD",
		ExchangeRate: decimal.NewFromInt(1),
		Status:       StatusDraft,
		PeriodID:     "p-2025-11",
		Lines: []JournalLine{
			{ID: "l1", AccountID: "1111", Debit: dec(debit)},
			{ID: "l2", AccountID: "4111", Credit: dec(credit)},
		},
	}
}

func TestValidateForPosting_Balanced(t *testing.T) {
	doc := balancedDoc("5000000", "5000000")
	if err := ValidateForPosting(doc); err != nil {
		t.Fatalf("expected balanced document to pass, got %v", err)
	}
}

func TestValidateForPosting_Unbalanced(t *testing.T) {
	doc := balancedDoc("5000000", "4999000")
	err := ValidateForPosting(doc)
	var unbalanced UnbalancedEntryError
	if !errors.As(err, &unbalanced) {
		t.Fatalf("expected UnbalancedEntryError, got %v", err)
	}
	if !unbalanced.Difference.Equal(dec("1000")) {
		t.Fatalf("expected difference 1000, got %s", unbalanced.Difference)
	}
}

func TestValidateForPosting_EpsilonBoundary(t *testing.T) {
	// A rounding residue within epsilon posts.
	doc := balancedDoc("100.00", "99.99")
	if err := ValidateForPosting(doc); err != nil {
		t.Fatalf("expected difference 0.01 to pass, got %v", err)
	}

	doc = balancedDoc("100.00", "99.98")
	var unbalanced UnbalancedEntryError
	if err := ValidateForPosting(doc); !errors.As(err, &unbalanced) {
		t.Fatalf("expected difference 0.02 to fail, got %v", err)
	}
}

func TestValidateForPosting_EmptyLine(t *testing.T) {
	doc := balancedDoc("100", "100")
	doc.Lines = append(doc.Lines, JournalLine{ID: "l3", AccountID: "5111"})
	err := ValidateForPosting(doc)
	var empty EmptyLineError
	if !errors.As(err, &empty) {
		t.Fatalf("expected EmptyLineError, got %v", err)
	}
	if empty.LineIndex != 2 {
		t.Fatalf("expected line index 2, got %d", empty.LineIndex)
	}
}

func TestValidateForPosting_BothSides(t *testing.T) {
	doc := balancedDoc("100", "100")
	doc.Lines[0].Credit = dec("1")
	if err := ValidateForPosting(doc); !errors.Is(err, ErrBothSides) {
		t.Fatalf("expected ErrBothSides, got %v", err)
	}
}

func TestValidateDraft_TooFewLines(t *testing.T) {
	doc := balancedDoc("100", "100")
	doc.Lines = doc.Lines[:1]
	if err := ValidateDraft(doc); !errors.Is(err, ErrTooFewLines) {
		t.Fatalf("expected ErrTooFewLines, got %v", err)
	}
}

func TestValidateDraft_AllowsUnbalanced(t *testing.T) {
	doc := balancedDoc("100", "50")
	if err := ValidateDraft(doc); err != nil {
		t.Fatalf("drafts may be unbalanced, got %v", err)
	}
}

func TestValidateDraft_NegativeAmount(t *testing.T) {
	doc := balancedDoc("100", "100")
	doc.Lines[0].Debit = dec("-5")
	if err := ValidateDraft(doc); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestValidateDraft_ExchangeRate(t *testing.T) {
	doc := balancedDoc("100", "100")
	doc.ExchangeRate = decimal.Zero
	if err := ValidateDraft(doc); !errors.Is(err, ErrInvalidExchangeRate) {
		t.Fatalf("expected ErrInvalidExchangeRate, got %v", err)
	}
}

func TestDocumentTotals(t *testing.T) {
	doc := balancedDoc("250.50", "250.50")
	debit, credit := doc.Totals()
	if !debit.Equal(dec("250.50")) || !credit.Equal(dec("250.50")) {
		t.Fatalf("unexpected totals: debit %s credit %s", debit, credit)
	}
}

func TestDocumentClone(t *testing.T) {
	doc := balancedDoc("10", "10")
	clone := doc.Clone()
	clone.Lines[0].Debit = dec("999")
	clone.Status = StatusPosted
	if !doc.Lines[0].Debit.Equal(dec("10")) {
		t.Fatalf("clone shares line storage with original")
	}
	if doc.Status != StatusDraft {
		t.Fatalf("clone shares header with original")
	}
}
