package accounts

import "context"

// Repository reads the chart of accounts.
type Repository interface {
	Get(ctx context.Context, id string) (*Account, error)
	ChildrenOf(ctx context.Context, parentID string, level Level) ([]Account, error)
}
