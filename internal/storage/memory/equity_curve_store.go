package memory

import (
	"context"
	"sync"

	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/storage"
)

// EquityCurveStore is an in-memory implementation of storage.EquityCurveStore.
type EquityCurveStore struct {
	mu   sync.RWMutex
	data map[string][]domain.EquityPoint // keyed by report_id
}

// NewEquityCurveStore creates a new in-memory equity curve store.
func NewEquityCurveStore() *EquityCurveStore {
	return &EquityCurveStore{
		data: make(map[string][]domain.EquityPoint),
	}
}

// Compile-time interface check.
var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)

// InsertBulk stores one report's curve. Returns ErrDuplicateKey if the report already has one.
func (s *EquityCurveStore) InsertBulk(_ context.Context, reportID string, points []domain.EquityPoint) error {
	if reportID == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[reportID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[reportID] = append([]domain.EquityPoint(nil), points...)
	return nil
}

// GetByReportID retrieves a curve in point order.
func (s *EquityCurveStore) GetByReportID(_ context.Context, reportID string) ([]domain.EquityPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.EquityPoint{}, s.data[reportID]...), nil
}
