package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	accounts "ledger-core/internal/accounts/domain"
)

const defaultAccountTable = "accounts"

// AccountRepository is a Postgres implementation of the chart of accounts.
type AccountRepository struct {
	db    *sql.DB
	table string
}

// NewAccountRepository constructs a repository with defaults.
func NewAccountRepository(db *sql.DB, opts ...RepositoryOption) *AccountRepository {
	repo := &AccountRepository{db: db, table: defaultAccountTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// RepositoryOption configures the repository.
type RepositoryOption func(*AccountRepository)

// WithTable overrides the default table.
func WithTable(table string) RepositoryOption {
	return func(repo *AccountRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads an account by id.
func (r *AccountRepository) Get(ctx context.Context, id string) (*accounts.Account, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("account repo: nil db")
	}
	if id == "" {
		return nil, accounts.ErrEmptyAccountID
	}

	query := fmt.Sprintf(`
SELECT id, code, name, type, level, COALESCE(parent_id, '')
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var account accounts.Account
	row := r.db.QueryRowContext(ctx, query, id)
	if err := row.Scan(&account.ID, &account.Code, &account.Name, &account.Type, &account.Level, &account.ParentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// ChildrenOf lists accounts at the requested level under the given parent.
func (r *AccountRepository) ChildrenOf(ctx context.Context, parentID string, level accounts.Level) ([]accounts.Account, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("account repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, code, name, type, level, COALESCE(parent_id, '')
FROM %s
WHERE COALESCE(parent_id, '') = $1 AND ($2 = '' OR level = $2)
ORDER BY code ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, parentID, string(level))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]accounts.Account, 0)
	for rows.Next() {
		var account accounts.Account
		if err := rows.Scan(&account.ID, &account.Code, &account.Name, &account.Type, &account.Level, &account.ParentID); err != nil {
			return nil, err
		}
		result = append(result, account)
	}
	return result, rows.Err()
}
