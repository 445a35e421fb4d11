package memory

import (
	"context"
	"sort"
	"sync"

	accounts "ledger-core/internal/accounts/domain"
)

// AccountRepository is an in-memory chart of accounts.
type AccountRepository struct {
	mu   sync.RWMutex
	data map[string]accounts.Account
}

// NewAccountRepository constructs an empty repository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{data: make(map[string]accounts.Account)}
}

// Seed inserts accounts, replacing existing ids.
func (r *AccountRepository) Seed(list ...accounts.Account) error {
	for _, account := range list {
		if err := account.Validate(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	for _, account := range list {
		r.data[account.ID] = account
	}
	r.mu.Unlock()
	return nil
}

// Get loads an account by id.
func (r *AccountRepository) Get(ctx context.Context, id string) (*accounts.Account, error) {
	_ = ctx
	r.mu.RLock()
	account, ok := r.data[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	copy := account
	return &copy, nil
}

// ChildrenOf lists accounts at the requested level under the given parent.
func (r *AccountRepository) ChildrenOf(ctx context.Context, parentID string, level accounts.Level) ([]accounts.Account, error) {
	_ = ctx
	r.mu.RLock()
	result := make([]accounts.Account, 0)
	for _, account := range r.data {
		if level != "" && account.Level != level {
			continue
		}
		if account.ParentID != parentID {
			continue
		}
		result = append(result, account)
	}
	r.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}
