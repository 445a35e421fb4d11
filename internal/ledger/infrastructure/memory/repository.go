package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	ledger "ledger-core/internal/ledger/domain"
)

// TotalsApplier adds a posted document's deltas into its period's running
// totals. Implementations must reject closed periods with
// periods.ErrPeriodClosed.
type TotalsApplier interface {
	ApplyPostedTotals(ctx context.Context, periodID string, revenue, expenses decimal.Decimal) error
}

// DocumentRepository is an in-memory journal document store.
type DocumentRepository struct {
	mu      sync.RWMutex
	data    map[string]*ledger.JournalDocument
	deltas  map[string]ledger.TotalsDelta
	applier TotalsApplier
}

// NewDocumentRepository constructs a repository. The applier may be nil for
// tests that do not exercise posting.
func NewDocumentRepository(applier TotalsApplier) *DocumentRepository {
	return &DocumentRepository{
		data:    make(map[string]*ledger.JournalDocument),
		deltas:  make(map[string]ledger.TotalsDelta),
		applier: applier,
	}
}

// Get loads a document by id.
func (r *DocumentRepository) Get(ctx context.Context, id string) (*ledger.JournalDocument, error) {
	_ = ctx
	r.mu.RLock()
	doc := r.data[id]
	r.mu.RUnlock()
	if doc == nil {
		return nil, nil
	}
	return doc.Clone(), nil
}

// Create stores a new document.
func (r *DocumentRepository) Create(ctx context.Context, doc *ledger.JournalDocument) error {
	_ = ctx
	if doc == nil {
		return ledger.ErrDocumentNotFound
	}
	r.mu.Lock()
	r.data[doc.ID] = doc.Clone()
	r.mu.Unlock()
	return nil
}

// UpdateDraft replaces a draft document's content.
func (r *DocumentRepository) UpdateDraft(ctx context.Context, doc *ledger.JournalDocument) error {
	_ = ctx
	if doc == nil {
		return ledger.ErrDocumentNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := r.data[doc.ID]
	if existing == nil {
		return ledger.ErrDocumentNotFound
	}
	if existing.Status != ledger.StatusDraft {
		return ledger.InvalidStateTransitionError{DocumentID: doc.ID, From: existing.Status, Operation: "update"}
	}
	r.data[doc.ID] = doc.Clone()
	return nil
}

// Delete removes a draft document.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := r.data[id]
	if existing == nil {
		return ledger.ErrDocumentNotFound
	}
	if existing.Status != ledger.StatusDraft {
		return ledger.InvalidStateTransitionError{DocumentID: id, From: existing.Status, Operation: "delete"}
	}
	delete(r.data, id)
	return nil
}

// ListByPeriod returns documents of a period, optionally filtered by status.
func (r *DocumentRepository) ListByPeriod(ctx context.Context, periodID string, status ledger.DocumentStatus) ([]*ledger.JournalDocument, error) {
	_ = ctx
	r.mu.RLock()
	result := make([]*ledger.JournalDocument, 0)
	for _, doc := range r.data {
		if doc.PeriodID != periodID {
			continue
		}
		if status != "" && doc.Status != status {
			continue
		}
		result = append(result, doc.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

// CountByPeriodStatus counts documents of a period in a given status.
func (r *DocumentRepository) CountByPeriodStatus(ctx context.Context, periodID string, status ledger.DocumentStatus) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, doc := range r.data {
		if doc.PeriodID == periodID && doc.Status == status {
			count++
		}
	}
	return count, nil
}

// MarkPosted transitions a draft to posted and applies its totals delta.
// The caller holds the period posting latch, so the two steps cannot race a
// concurrent close. The stored row is replaced with the validated snapshot
// in doc; the status is checked again after the totals write so a row that
// left draft in between is never flipped.
func (r *DocumentRepository) MarkPosted(ctx context.Context, doc *ledger.JournalDocument, delta ledger.TotalsDelta, postedAt time.Time, postedBy string) error {
	if err := r.requireDraft(doc.ID, "post"); err != nil {
		return err
	}

	if r.applier != nil {
		if err := r.applier.ApplyPostedTotals(ctx, delta.PeriodID, delta.Revenue, delta.Expenses); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	existing := r.data[doc.ID]
	if existing == nil {
		return ledger.ErrDocumentNotFound
	}
	if existing.Status != ledger.StatusDraft {
		return ledger.InvalidStateTransitionError{DocumentID: doc.ID, From: existing.Status, Operation: "post"}
	}
	posted := doc.Clone()
	posted.Status = ledger.StatusPosted
	posted.PostedAt = postedAt
	posted.PostedBy = postedBy
	posted.UpdatedAt = postedAt
	r.data[doc.ID] = posted
	r.deltas[doc.ID] = delta
	return nil
}

func (r *DocumentRepository) requireDraft(id, operation string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	existing := r.data[id]
	if existing == nil {
		return ledger.ErrDocumentNotFound
	}
	if existing.Status != ledger.StatusDraft {
		return ledger.InvalidStateTransitionError{DocumentID: id, From: existing.Status, Operation: operation}
	}
	return nil
}

// MarkCancelled transitions a draft to cancelled.
func (r *DocumentRepository) MarkCancelled(ctx context.Context, id string, cancelledAt time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := r.data[id]
	if existing == nil {
		return ledger.ErrDocumentNotFound
	}
	if existing.Status != ledger.StatusDraft {
		return ledger.InvalidStateTransitionError{DocumentID: id, From: existing.Status, Operation: "cancel"}
	}
	existing.Status = ledger.StatusCancelled
	existing.CancelledAt = cancelledAt
	existing.UpdatedAt = cancelledAt
	return nil
}

// SumPostedTotals recomputes revenue/expense totals over posted documents.
func (r *DocumentRepository) SumPostedTotals(ctx context.Context, periodID string) (ledger.PeriodTotals, error) {
	_ = ctx
	totals := ledger.PeriodTotals{Revenue: decimal.Zero, Expenses: decimal.Zero}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, doc := range r.data {
		if doc.PeriodID != periodID || doc.Status != ledger.StatusPosted {
			continue
		}
		delta, ok := r.deltas[id]
		if !ok {
			continue
		}
		totals.Revenue = totals.Revenue.Add(delta.Revenue)
		totals.Expenses = totals.Expenses.Add(delta.Expenses)
	}
	return totals, nil
}
