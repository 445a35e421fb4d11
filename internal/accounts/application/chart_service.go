package application

import (
	"context"
	"errors"

	accounts "ledger-core/internal/accounts/domain"
)

// ChartService answers chart-of-accounts queries for posting callers.
type ChartService struct {
	repo accounts.Repository
}

// NewChartService constructs a service.
func NewChartService(repo accounts.Repository) (*ChartService, error) {
	if repo == nil {
		return nil, errors.New("chart service: nil repo")
	}
	return &ChartService{repo: repo}, nil
}

// ChildrenOf returns the accounts one level below the given parent.
// An empty parent id returns the group-level roots.
func (s *ChartService) ChildrenOf(ctx context.Context, parentID string, level accounts.Level) ([]accounts.Account, error) {
	if level != "" && !level.Valid() {
		return nil, accounts.ErrInvalidAccountLevel
	}
	if parentID != "" && level == "" {
		parent, err := s.repo.Get(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, accounts.ErrAccountNotFound
		}
		child, ok := parent.Level.ChildLevel()
		if !ok {
			return []accounts.Account{}, nil
		}
		level = child
	}
	if parentID == "" && level == "" {
		level = accounts.LevelGroup
	}
	return s.repo.ChildrenOf(ctx, parentID, level)
}

// Get loads a single account by id.
func (s *ChartService) Get(ctx context.Context, id string) (*accounts.Account, error) {
	if id == "" {
		return nil, accounts.ErrAccountNotFound
	}
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, accounts.ErrAccountNotFound
	}
	return account, nil
}

// ResolveLeaf resolves an account id and enforces that it is detail level.
func (s *ChartService) ResolveLeaf(ctx context.Context, id string) (*accounts.Account, error) {
	if id == "" {
		return nil, accounts.ErrAccountNotFound
	}
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, accounts.ErrAccountNotFound
	}
	if !account.Postable() {
		return nil, accounts.NotPostableError{AccountID: account.ID, Level: account.Level}
	}
	return account, nil
}
