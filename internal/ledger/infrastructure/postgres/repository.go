package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	ledger "ledger-core/internal/ledger/domain"
	periods "ledger-core/internal/periods/domain"
)

const (
	defaultDocumentTable = "journal_documents"
	defaultLineTable     = "journal_lines"
	defaultPeriodTable   = "accounting_periods"
	defaultAccountTable  = "accounts"
)

// DocumentRepository is a Postgres implementation for journal documents.
// Posting commits the status transition and the period totals delta in one
// transaction, locking the period row for update.
type DocumentRepository struct {
	db           *sql.DB
	table        string
	lineTable    string
	periodTable  string
	accountTable string
}

// NewDocumentRepository constructs a repository with defaults.
func NewDocumentRepository(db *sql.DB, opts ...RepositoryOption) *DocumentRepository {
	repo := &DocumentRepository{
		db:           db,
		table:        defaultDocumentTable,
		lineTable:    defaultLineTable,
		periodTable:  defaultPeriodTable,
		accountTable: defaultAccountTable,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// RepositoryOption configures the repository.
type RepositoryOption func(*DocumentRepository)

// WithTables overrides the default table names.
func WithTables(document, line, period string) RepositoryOption {
	return func(repo *DocumentRepository) {
		if document != "" {
			repo.table = document
		}
		if line != "" {
			repo.lineTable = line
		}
		if period != "" {
			repo.periodTable = period
		}
	}
}

// WithAccountTable overrides the chart of accounts table joined when
// recomputing period totals.
func WithAccountTable(name string) RepositoryOption {
	return func(repo *DocumentRepository) {
		if name != "" {
			repo.accountTable = name
		}
	}
}

// Get loads a document with its lines.
func (r *DocumentRepository) Get(ctx context.Context, id string) (*ledger.JournalDocument, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("document repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, number, date, type, currency, exchange_rate, COALESCE(description, ''),
	status, period_id, COALESCE(reversal_of_id, ''),
	created_at, updated_at,
	COALESCE(posted_at, 'epoch'::timestamptz), COALESCE(posted_by, ''),
	COALESCE(cancelled_at, 'epoch'::timestamptz)
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var doc ledger.JournalDocument
	row := r.db.QueryRowContext(ctx, query, id)
	if err := row.Scan(&doc.ID, &doc.Number, &doc.Date, &doc.Type, &doc.Currency, &doc.ExchangeRate,
		&doc.Description, &doc.Status, &doc.PeriodID, &doc.ReversalOfID,
		&doc.CreatedAt, &doc.UpdatedAt, &doc.PostedAt, &doc.PostedBy, &doc.CancelledAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	lines, err := r.loadLines(ctx, r.db, doc.ID)
	if err != nil {
		return nil, err
	}
	doc.Lines = lines
	return &doc, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *DocumentRepository) loadLines(ctx context.Context, q queryer, documentID string) ([]ledger.JournalLine, error) {
	query := fmt.Sprintf(`
SELECT id, document_id, account_id, debit, credit, COALESCE(description, ''),
	COALESCE(foreign_amount, 0), COALESCE(foreign_currency, '')
FROM %s
WHERE document_id = $1
ORDER BY position ASC`, r.lineTable)

	rows, err := q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]ledger.JournalLine, 0)
	for rows.Next() {
		var line ledger.JournalLine
		if err := rows.Scan(&line.ID, &line.DocumentID, &line.AccountID, &line.Debit, &line.Credit,
			&line.Description, &line.ForeignAmount, &line.ForeignCurrency); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// Create inserts a document and its lines in one transaction.
func (r *DocumentRepository) Create(ctx context.Context, doc *ledger.JournalDocument) error {
	if r == nil || r.db == nil {
		return errors.New("document repo: nil db")
	}
	if doc == nil {
		return ledger.ErrDocumentNotFound
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertDoc := fmt.Sprintf(`
INSERT INTO %s (
	id, number, date, type, currency, exchange_rate, description,
	status, period_id, reversal_of_id, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NULLIF($10,''),$11,$12)`, r.table)

	if _, err := tx.ExecContext(ctx, insertDoc,
		doc.ID, doc.Number, doc.Date.UTC(), doc.Type, doc.Currency, doc.ExchangeRate, doc.Description,
		doc.Status, doc.PeriodID, doc.ReversalOfID, doc.CreatedAt.UTC(), doc.UpdatedAt.UTC()); err != nil {
		return err
	}
	if err := r.insertLines(ctx, tx, doc); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *DocumentRepository) insertLines(ctx context.Context, tx *sql.Tx, doc *ledger.JournalDocument) error {
	insertLine := fmt.Sprintf(`
INSERT INTO %s (
	id, document_id, position, account_id, debit, credit, description,
	foreign_amount, foreign_currency
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''))`, r.lineTable)

	for i, line := range doc.Lines {
		if _, err := tx.ExecContext(ctx, insertLine,
			line.ID, doc.ID, i, line.AccountID, line.Debit, line.Credit, line.Description,
			line.ForeignAmount, line.ForeignCurrency); err != nil {
			return err
		}
	}
	return nil
}

// UpdateDraft rewrites a draft document's header and lines.
func (r *DocumentRepository) UpdateDraft(ctx context.Context, doc *ledger.JournalDocument) error {
	if r == nil || r.db == nil {
		return errors.New("document repo: nil db")
	}
	if doc == nil {
		return ledger.ErrDocumentNotFound
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	update := fmt.Sprintf(`
UPDATE %s
SET number = $2, date = $3, type = $4, currency = $5, exchange_rate = $6,
	description = $7, period_id = $8, updated_at = $9
WHERE id = $1 AND status = 'draft'`, r.table)

	result, err := tx.ExecContext(ctx, update,
		doc.ID, doc.Number, doc.Date.UTC(), doc.Type, doc.Currency, doc.ExchangeRate,
		doc.Description, doc.PeriodID, doc.UpdatedAt.UTC())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.stateOrNotFound(ctx, doc.ID, "update")
	}

	deleteLines := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, r.lineTable)
	if _, err := tx.ExecContext(ctx, deleteLines, doc.ID); err != nil {
		return err
	}
	if err := r.insertLines(ctx, tx, doc); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a draft document and its lines.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("document repo: nil db")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	deleteLines := fmt.Sprintf(`
DELETE FROM %s
WHERE document_id = $1
	AND EXISTS (SELECT 1 FROM %s WHERE id = $1 AND status = 'draft')`, r.lineTable, r.table)
	if _, err := tx.ExecContext(ctx, deleteLines, id); err != nil {
		return err
	}

	deleteDoc := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND status = 'draft'`, r.table)
	result, err := tx.ExecContext(ctx, deleteDoc, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.stateOrNotFound(ctx, id, "delete")
	}
	return tx.Commit()
}

// ListByPeriod returns documents of a period, optionally filtered by status.
func (r *DocumentRepository) ListByPeriod(ctx context.Context, periodID string, status ledger.DocumentStatus) ([]*ledger.JournalDocument, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("document repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id FROM %s
WHERE period_id = $1 AND ($2 = '' OR status = $2)
ORDER BY number ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, periodID, string(status))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	result := make([]*ledger.JournalDocument, 0, len(ids))
	for _, id := range ids {
		doc, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			result = append(result, doc)
		}
	}
	return result, nil
}

// CountByPeriodStatus counts documents of a period in a given status.
func (r *DocumentRepository) CountByPeriodStatus(ctx context.Context, periodID string, status ledger.DocumentStatus) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("document repo: nil db")
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE period_id = $1 AND status = $2`, r.table)
	var count int
	if err := r.db.QueryRowContext(ctx, query, periodID, string(status)).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// MarkPosted commits the draft->posted transition and the period totals delta
// atomically. The period row is locked first so a concurrent close cannot
// slip between the closed check and the update.
func (r *DocumentRepository) MarkPosted(ctx context.Context, doc *ledger.JournalDocument, delta ledger.TotalsDelta, postedAt time.Time, postedBy string) error {
	if r == nil || r.db == nil {
		return errors.New("document repo: nil db")
	}
	if doc == nil {
		return ledger.ErrDocumentNotFound
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	lockPeriod := fmt.Sprintf(`SELECT is_closed FROM %s WHERE id = $1 FOR UPDATE`, r.periodTable)
	var isClosed bool
	if err := tx.QueryRowContext(ctx, lockPeriod, delta.PeriodID).Scan(&isClosed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return periods.ErrPeriodNotFound
		}
		return err
	}
	if isClosed {
		return periods.ErrPeriodClosed
	}

	updateDoc := fmt.Sprintf(`
UPDATE %s
SET status = 'posted', posted_at = $2, posted_by = $3, updated_at = $2
WHERE id = $1 AND status = 'draft'`, r.table)
	result, err := tx.ExecContext(ctx, updateDoc, doc.ID, postedAt.UTC(), postedBy)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.stateOrNotFound(ctx, doc.ID, "post")
	}

	updatePeriod := fmt.Sprintf(`
UPDATE %s
SET total_revenue = total_revenue + $2,
	total_expenses = total_expenses + $3,
	net_income = net_income + $2 - $3,
	updated_at = $4
WHERE id = $1`, r.periodTable)
	if _, err := tx.ExecContext(ctx, updatePeriod, delta.PeriodID, delta.Revenue, delta.Expenses, postedAt.UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

// MarkCancelled commits the draft->cancelled transition.
func (r *DocumentRepository) MarkCancelled(ctx context.Context, id string, cancelledAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("document repo: nil db")
	}
	update := fmt.Sprintf(`
UPDATE %s
SET status = 'cancelled', cancelled_at = $2, updated_at = $2
WHERE id = $1 AND status = 'draft'`, r.table)
	result, err := r.db.ExecContext(ctx, update, id, cancelledAt.UTC())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.stateOrNotFound(ctx, id, "cancel")
	}
	return nil
}

// SumPostedTotals recomputes revenue/expense totals from posted lines joined
// against the chart of accounts.
func (r *DocumentRepository) SumPostedTotals(ctx context.Context, periodID string) (ledger.PeriodTotals, error) {
	totals := ledger.PeriodTotals{Revenue: decimal.Zero, Expenses: decimal.Zero}
	if r == nil || r.db == nil {
		return totals, errors.New("document repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT a.type,
	COALESCE(SUM(l.credit - l.debit), 0) AS credit_net,
	COALESCE(SUM(l.debit - l.credit), 0) AS debit_net
FROM %s l
JOIN %s d ON d.id = l.document_id
JOIN %s a ON a.id = l.account_id
WHERE d.period_id = $1 AND d.status = 'posted' AND a.type IN ('revenue', 'expense')
GROUP BY a.type`, r.lineTable, r.table, r.accountTable)

	rows, err := r.db.QueryContext(ctx, query, periodID)
	if err != nil {
		return totals, err
	}
	defer rows.Close()

	for rows.Next() {
		var accountType string
		var creditNet, debitNet decimal.Decimal
		if err := rows.Scan(&accountType, &creditNet, &debitNet); err != nil {
			return totals, err
		}
		switch accountType {
		case "revenue":
			totals.Revenue = creditNet
		case "expense":
			totals.Expenses = debitNet
		}
	}
	return totals, rows.Err()
}

func (r *DocumentRepository) stateOrNotFound(ctx context.Context, id, operation string) error {
	query := fmt.Sprintf(`SELECT status FROM %s WHERE id = $1`, r.table)
	var status ledger.DocumentStatus
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.ErrDocumentNotFound
		}
		return err
	}
	return ledger.InvalidStateTransitionError{DocumentID: id, From: status, Operation: operation}
}
