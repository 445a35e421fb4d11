package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	accounts "ledger-core/internal/accounts/domain"
	ledger "ledger-core/internal/ledger/domain"
	"ledger-core/internal/observability/metrics"
	periods "ledger-core/internal/periods/domain"
)

// AccountResolver resolves journal line accounts to postable leaves.
type AccountResolver interface {
	ResolveLeaf(ctx context.Context, id string) (*accounts.Account, error)
}

// PeriodReader loads periods for posting validation.
type PeriodReader interface {
	Get(ctx context.Context, id string) (*periods.Period, error)
}

// EventPublisher publishes domain events after commits.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// PosterService owns the journal document lifecycle. It is the sole writer
// of document status and of posted period totals. Lifecycle operations on
// one document are serialized through docLocks, so a draft edit can never
// land between post validation and the posted write.
type PosterService struct {
	docs        ledger.Repository
	chart       AccountResolver
	periodsRepo PeriodReader
	locks       *periods.LockRegistry
	docLocks    *docLocks
	bus         EventPublisher
	now         func() time.Time
}

// docLocks hands out one mutex per document id.
type docLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func newDocLocks() *docLocks {
	return &docLocks{m: make(map[string]*sync.Mutex)}
}

func (l *docLocks) Lock(id string) {
	l.mu.Lock()
	lock, ok := l.m[id]
	if !ok {
		lock = &sync.Mutex{}
		l.m[id] = lock
	}
	l.mu.Unlock()
	lock.Lock()
}

func (l *docLocks) Unlock(id string) {
	l.mu.Lock()
	lock := l.m[id]
	l.mu.Unlock()
	if lock != nil {
		lock.Unlock()
	}
}

// NewPosterService constructs a service.
func NewPosterService(docs ledger.Repository, chart AccountResolver, periodReader PeriodReader, locks *periods.LockRegistry, bus EventPublisher) (*PosterService, error) {
	if docs == nil {
		return nil, errors.New("poster service: nil document repo")
	}
	if chart == nil {
		return nil, errors.New("poster service: nil account resolver")
	}
	if periodReader == nil {
		return nil, errors.New("poster service: nil period reader")
	}
	if locks == nil {
		return nil, errors.New("poster service: nil lock registry")
	}
	return &PosterService{docs: docs, chart: chart, periodsRepo: periodReader, locks: locks, docLocks: newDocLocks(), bus: bus, now: time.Now}, nil
}

// WithNow overrides the clock for testing.
func (s *PosterService) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// LineInput is one journal line as submitted by a caller.
type LineInput struct {
	AccountID       string
	Debit           decimal.Decimal
	Credit          decimal.Decimal
	Description     string
	ForeignAmount   decimal.Decimal
	ForeignCurrency string
}

// DraftInput describes a document to create or rewrite.
type DraftInput struct {
	Number       string
	Date         time.Time
	Type         ledger.DocumentType
	Currency     string
	ExchangeRate decimal.Decimal
	Description  string
	PeriodID     string
	Lines        []LineInput
}

// CreateDraft validates account references and stores a new draft. Balance
// is intentionally not validated; drafts may be unbalanced while edited.
func (s *PosterService) CreateDraft(ctx context.Context, input DraftInput) (*ledger.JournalDocument, error) {
	doc, err := s.buildDocument(ctx, uuid.NewString(), input)
	if err != nil {
		return nil, err
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateDraft rewrites a draft's content. Posted and cancelled documents
// are immutable.
func (s *PosterService) UpdateDraft(ctx context.Context, id string, input DraftInput) (*ledger.JournalDocument, error) {
	s.docLocks.Lock(id)
	defer s.docLocks.Unlock(id)

	existing, err := s.docs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ledger.ErrDocumentNotFound
	}
	if existing.Status != ledger.StatusDraft {
		return nil, ledger.InvalidStateTransitionError{DocumentID: id, From: existing.Status, Operation: "update"}
	}

	doc, err := s.buildDocument(ctx, id, input)
	if err != nil {
		return nil, err
	}
	doc.CreatedAt = existing.CreatedAt
	if err := s.docs.UpdateDraft(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *PosterService) buildDocument(ctx context.Context, id string, input DraftInput) (*ledger.JournalDocument, error) {
	docType := input.Type
	if docType == "" {
		docType = ledger.TypeManual
	}
	if !docType.Valid() {
		return nil, errors.New("poster service: invalid document type")
	}
	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}
	rate := input.ExchangeRate
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}

	period, err := s.periodsRepo.Get(ctx, input.PeriodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, periods.ErrPeriodNotFound
	}
	if period.IsClosed {
		return nil, periods.ErrPeriodClosed
	}
	if !input.Date.IsZero() && !period.Contains(input.Date) {
		return nil, periods.ErrDateOutsidePeriod
	}

	now := s.now().UTC()
	doc := &ledger.JournalDocument{
		ID:           id,
		Number:       input.Number,
		Date:         input.Date,
		Type:         docType,
		Currency:     currency,
		ExchangeRate: rate,
		Description:  input.Description,
		Status:       ledger.StatusDraft,
		PeriodID:     period.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, line := range input.Lines {
		if line.AccountID != "" {
			if _, err := s.chart.ResolveLeaf(ctx, line.AccountID); err != nil {
				return nil, err
			}
		}
		doc.Lines = append(doc.Lines, ledger.JournalLine{
			ID:              uuid.NewString(),
			DocumentID:      doc.ID,
			AccountID:       line.AccountID,
			Debit:           line.Debit,
			Credit:          line.Credit,
			Description:     line.Description,
			ForeignAmount:   line.ForeignAmount,
			ForeignCurrency: line.ForeignCurrency,
		})
	}
	if err := ledger.ValidateDraft(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Post validates every posting invariant, then atomically commits the
// draft->posted transition together with the period totals delta. Nothing is
// written before validation passes. While a close holds the period, posting
// fails fast with a retryable conflict.
func (s *PosterService) Post(ctx context.Context, id, postedBy string) (*ledger.JournalDocument, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObservePost(result, time.Since(start))
	}()

	s.docLocks.Lock(id)
	defer s.docLocks.Unlock(id)

	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if doc == nil {
		result = metrics.ResultError
		return nil, ledger.ErrDocumentNotFound
	}
	if doc.Status != ledger.StatusDraft {
		result = metrics.ResultError
		return nil, ledger.InvalidStateTransitionError{DocumentID: id, From: doc.Status, Operation: "post"}
	}

	period, err := s.periodsRepo.Get(ctx, doc.PeriodID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if period == nil {
		result = metrics.ResultError
		return nil, periods.ErrPeriodNotFound
	}
	if period.IsClosed {
		result = metrics.ResultError
		return nil, periods.ErrPeriodClosed
	}

	if !s.locks.TryAcquirePost(period.ID) {
		result = metrics.ResultError
		return nil, periods.ErrCloseInProgress
	}
	defer s.locks.ReleasePost(period.ID)

	delta, err := s.computeDelta(ctx, doc)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if err := ledger.ValidateForPosting(doc); err != nil {
		result = metrics.ResultError
		return nil, err
	}

	postedAt := s.now().UTC()
	if err := s.docs.MarkPosted(ctx, doc, delta, postedAt, postedBy); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	doc.Status = ledger.StatusPosted
	doc.PostedAt = postedAt
	doc.PostedBy = postedBy
	doc.UpdatedAt = postedAt

	if s.bus != nil {
		debit, credit := doc.Totals()
		_ = s.bus.Publish(ctx, DocumentPosted{
			DocumentID:  doc.ID,
			Number:      doc.Number,
			PeriodID:    doc.PeriodID,
			DebitTotal:  debit,
			CreditTotal: credit,
			PostedBy:    postedBy,
			OccurredAt:  postedAt,
		})
	}
	return doc, nil
}

// computeDelta resolves every line account and accumulates the period
// revenue/expense contribution. It also re-enforces the detail-level
// invariant on every post.
func (s *PosterService) computeDelta(ctx context.Context, doc *ledger.JournalDocument) (ledger.TotalsDelta, error) {
	delta := ledger.TotalsDelta{PeriodID: doc.PeriodID, Revenue: decimal.Zero, Expenses: decimal.Zero}
	for _, line := range doc.Lines {
		if line.AccountID == "" {
			continue
		}
		account, err := s.chart.ResolveLeaf(ctx, line.AccountID)
		if err != nil {
			return delta, err
		}
		switch account.Type {
		case accounts.TypeRevenue:
			delta.Revenue = delta.Revenue.Add(line.Credit.Sub(line.Debit))
		case accounts.TypeExpense:
			delta.Expenses = delta.Expenses.Add(line.Debit.Sub(line.Credit))
		}
	}
	return delta, nil
}

// Cancel transitions a draft to cancelled. Posted documents are immutable;
// use Reverse instead.
func (s *PosterService) Cancel(ctx context.Context, id string) (*ledger.JournalDocument, error) {
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveCancel(result)
	}()

	s.docLocks.Lock(id)
	defer s.docLocks.Unlock(id)

	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if doc == nil {
		result = metrics.ResultError
		return nil, ledger.ErrDocumentNotFound
	}
	if doc.Status != ledger.StatusDraft {
		result = metrics.ResultError
		return nil, ledger.InvalidStateTransitionError{DocumentID: id, From: doc.Status, Operation: "cancel"}
	}

	cancelledAt := s.now().UTC()
	if err := s.docs.MarkCancelled(ctx, id, cancelledAt); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	doc.Status = ledger.StatusCancelled
	doc.CancelledAt = cancelledAt
	doc.UpdatedAt = cancelledAt

	if s.bus != nil {
		_ = s.bus.Publish(ctx, DocumentCancelled{
			DocumentID: doc.ID,
			Number:     doc.Number,
			PeriodID:   doc.PeriodID,
			OccurredAt: cancelledAt,
		})
	}
	return doc, nil
}

// Delete removes a draft document entirely.
func (s *PosterService) Delete(ctx context.Context, id string) error {
	s.docLocks.Lock(id)
	defer s.docLocks.Unlock(id)

	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return err
	}
	if doc == nil {
		return ledger.ErrDocumentNotFound
	}
	if doc.Status != ledger.StatusDraft {
		return ledger.InvalidStateTransitionError{DocumentID: id, From: doc.Status, Operation: "delete"}
	}
	return s.docs.Delete(ctx, id)
}

// ReverseInput describes a reversing entry for a posted document.
type ReverseInput struct {
	Number      string
	Date        time.Time
	PeriodID    string
	Description string
}

// Reverse creates and posts a new document whose lines swap debit and
// credit, linked to the original. The original stays untouched; this is the
// only supported way to retract a posted document.
func (s *PosterService) Reverse(ctx context.Context, id string, input ReverseInput, postedBy string) (*ledger.JournalDocument, error) {
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReverse(result)
	}()

	original, err := s.docs.Get(ctx, id)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if original == nil {
		result = metrics.ResultError
		return nil, ledger.ErrDocumentNotFound
	}
	if original.Status != ledger.StatusPosted {
		result = metrics.ResultError
		return nil, ledger.InvalidStateTransitionError{DocumentID: id, From: original.Status, Operation: "reverse"}
	}

	draft := DraftInput{
		Number:       input.Number,
		Date:         input.Date,
		Type:         ledger.TypeReversing,
		Currency:     original.Currency,
		ExchangeRate: original.ExchangeRate,
		Description:  input.Description,
		PeriodID:     input.PeriodID,
	}
	if draft.Number == "" {
		draft.Number = original.Number + "-rev"
	}
	if draft.PeriodID == "" {
		draft.PeriodID = original.PeriodID
	}
	if draft.Date.IsZero() {
		draft.Date = s.now().UTC()
	}
	if draft.Description == "" {
		draft.Description = "reversal of " + original.Number
	}
	for _, line := range original.Lines {
		draft.Lines = append(draft.Lines, LineInput{
			AccountID:       line.AccountID,
			Debit:           line.Credit,
			Credit:          line.Debit,
			Description:     line.Description,
			ForeignAmount:   line.ForeignAmount,
			ForeignCurrency: line.ForeignCurrency,
		})
	}

	doc, err := s.buildDocument(ctx, uuid.NewString(), draft)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	doc.ReversalOfID = original.ID
	if err := s.docs.Create(ctx, doc); err != nil {
		result = metrics.ResultError
		return nil, err
	}

	posted, err := s.Post(ctx, doc.ID, postedBy)
	if err != nil {
		// The reversing draft stays behind for inspection; posting it again
		// after the conflict clears is safe.
		result = metrics.ResultError
		return nil, err
	}

	if s.bus != nil {
		_ = s.bus.Publish(ctx, DocumentReversed{
			DocumentID: original.ID,
			ReversalID: posted.ID,
			PeriodID:   posted.PeriodID,
			OccurredAt: posted.PostedAt,
		})
	}
	return posted, nil
}

// Get loads a document by id.
func (s *PosterService) Get(ctx context.Context, id string) (*ledger.JournalDocument, error) {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ledger.ErrDocumentNotFound
	}
	return doc, nil
}

// ListByPeriod returns a period's documents, optionally filtered by status.
func (s *PosterService) ListByPeriod(ctx context.Context, periodID string, status ledger.DocumentStatus) ([]*ledger.JournalDocument, error) {
	if status != "" {
		switch status {
		case ledger.StatusDraft, ledger.StatusPosted, ledger.StatusCancelled:
		default:
			return nil, errors.New("poster service: invalid status filter")
		}
	}
	return s.docs.ListByPeriod(ctx, periodID, status)
}
