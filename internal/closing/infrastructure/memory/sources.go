package memory

import (
	"context"
	"sync"
)

// ReconciliationSource is an in-memory twin of the Postgres source.
type ReconciliationSource struct {
	mu   sync.RWMutex
	open map[string]int
}

// NewReconciliationSource constructs an empty source.
func NewReconciliationSource() *ReconciliationSource {
	return &ReconciliationSource{open: make(map[string]int)}
}

// SetOpenItems records the open item count for a period.
func (s *ReconciliationSource) SetOpenItems(periodID string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open[periodID] = count
}

// UnreconciledCount returns the open item count for a period.
func (s *ReconciliationSource) UnreconciledCount(_ context.Context, periodID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open[periodID], nil
}

// InventorySource is an in-memory twin of the Postgres source.
type InventorySource struct {
	mu       sync.RWMutex
	balances map[string][2]float64
}

// NewInventorySource constructs an empty source.
func NewInventorySource() *InventorySource {
	return &InventorySource{balances: make(map[string][2]float64)}
}

// SetBalances records the ledger balance and valuation for a period.
func (s *InventorySource) SetBalances(periodID string, ledgerBalance, valuation float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[periodID] = [2]float64{ledgerBalance, valuation}
}

// Balances returns the recorded balances; missing periods count as balanced.
func (s *InventorySource) Balances(_ context.Context, periodID string) (float64, float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pair := s.balances[periodID]
	return pair[0], pair[1], nil
}
