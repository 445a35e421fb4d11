package accounts

import (
	"errors"
	"fmt"
)

var (
	// ErrAccountNotFound indicates the account id does not resolve.
	ErrAccountNotFound = errors.New("account not found")

	ErrEmptyAccountID      = errors.New("account: empty id")
	ErrEmptyAccountCode    = errors.New("account: empty code")
	ErrEmptyAccountName    = errors.New("account: empty name")
	ErrInvalidAccountType  = errors.New("account: invalid type")
	ErrInvalidAccountLevel = errors.New("account: invalid level")
	ErrGroupHasParent      = errors.New("account: group level must not have a parent")
	ErrMissingParent       = errors.New("account: missing parent")
)

// NotPostableError indicates a journal line references a non-detail account.
type NotPostableError struct {
	AccountID string
	Level     Level
}

func (e NotPostableError) Error() string {
	return fmt.Sprintf("account %s is not postable (level %s)", e.AccountID, e.Level)
}
