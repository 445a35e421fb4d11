package application

import (
	"context"
	"errors"
	"testing"

	accounts "ledger-core/internal/accounts/domain"
	"ledger-core/internal/accounts/infrastructure/memory"
)

func seededService(t *testing.T) *ChartService {
	t.Helper()
	repo := memory.NewAccountRepository()
	if err := repo.Seed(accounts.DefaultChart()...); err != nil {
		t.Fatalf("seed: %v", err)
	}
	service, err := NewChartService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func TestChildrenOf_Roots(t *testing.T) {
	service := seededService(t)
	roots, err := service.ChildrenOf(context.Background(), "", "")
	if err != nil {
		t.Fatalf("roots: %v", err)
	}
	if len(roots) != 5 {
		t.Fatalf("expected 5 group roots, got %d", len(roots))
	}
	for _, root := range roots {
		if root.Level != accounts.LevelGroup {
			t.Errorf("root %s has level %s", root.Code, root.Level)
		}
	}
	// Sorted by code.
	if roots[0].Code != "1000" || roots[4].Code != "5000" {
		t.Fatalf("unexpected order: %s .. %s", roots[0].Code, roots[4].Code)
	}
}

func TestChildrenOf_InfersChildLevel(t *testing.T) {
	service := seededService(t)
	children, err := service.ChildrenOf(context.Background(), "1110", "")
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 detail accounts under 1110, got %d", len(children))
	}
	for _, child := range children {
		if child.Level != accounts.LevelDetail {
			t.Errorf("child %s has level %s", child.Code, child.Level)
		}
	}
}

func TestChildrenOf_DetailHasNoChildren(t *testing.T) {
	service := seededService(t)
	children, err := service.ChildrenOf(context.Background(), "1111", "")
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(children) != 0 {
		t.Fatalf("detail accounts have no children, got %d", len(children))
	}
}

func TestChildrenOf_UnknownParent(t *testing.T) {
	service := seededService(t)
	if _, err := service.ChildrenOf(context.Background(), "9999", ""); !errors.Is(err, accounts.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestChildrenOf_InvalidLevel(t *testing.T) {
	service := seededService(t)
	if _, err := service.ChildrenOf(context.Background(), "", "leaf"); !errors.Is(err, accounts.ErrInvalidAccountLevel) {
		t.Fatalf("expected ErrInvalidAccountLevel, got %v", err)
	}
}

func TestResolveLeaf(t *testing.T) {
	service := seededService(t)

	account, err := service.ResolveLeaf(context.Background(), "1111")
	if err != nil {
		t.Fatalf("resolve detail: %v", err)
	}
	if account.Name != "Cash on Hand" {
		t.Fatalf("unexpected account: %s", account.Name)
	}

	_, err = service.ResolveLeaf(context.Background(), "1100")
	var notPostable accounts.NotPostableError
	if !errors.As(err, &notPostable) {
		t.Fatalf("expected NotPostableError for main level, got %v", err)
	}
	if notPostable.Level != accounts.LevelMain {
		t.Fatalf("expected main level in error, got %s", notPostable.Level)
	}

	if _, err := service.ResolveLeaf(context.Background(), "missing"); !errors.Is(err, accounts.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountValidate(t *testing.T) {
	valid := accounts.Account{ID: "x", Code: "9100", Name: "Test", Type: accounts.TypeExpense, Level: accounts.LevelMain, ParentID: "5000"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid account rejected: %v", err)
	}

	group := valid
	group.Level = accounts.LevelGroup
	if err := group.Validate(); !errors.Is(err, accounts.ErrGroupHasParent) {
		t.Fatalf("expected ErrGroupHasParent, got %v", err)
	}

	orphan := valid
	orphan.ParentID = ""
	if err := orphan.Validate(); !errors.Is(err, accounts.ErrMissingParent) {
		t.Fatalf("expected ErrMissingParent, got %v", err)
	}
}
