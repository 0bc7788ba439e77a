package memory

import (
	"context"
	"sort"
	"sync"

	"trade-report-lab/internal/domain"
	"trade-report-lab/internal/storage"
)

// ReportStore is an in-memory implementation of storage.ReportStore.
type ReportStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ReportSummary // keyed by report_id
}

// NewReportStore creates a new in-memory report store.
func NewReportStore() *ReportStore {
	return &ReportStore{
		data: make(map[string]*domain.ReportSummary),
	}
}

// Compile-time interface check.
var _ storage.ReportStore = (*ReportStore)(nil)

// Insert adds a new report. Returns ErrDuplicateKey if report_id exists.
func (s *ReportStore) Insert(_ context.Context, r *domain.ReportSummary) error {
	if r == nil || r.ReportID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ReportID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	s.data[r.ReportID] = &copy
	return nil
}

// GetByID retrieves a report by its ID. Returns ErrNotFound if not exists.
func (s *ReportStore) GetByID(_ context.Context, reportID string) (*domain.ReportSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[reportID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *r
	return &copy, nil
}

// GetByInputHash retrieves every report computed from the same input, newest first.
func (s *ReportStore) GetByInputHash(_ context.Context, inputHash string) ([]*domain.ReportSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*domain.ReportSummary{}
	for _, r := range s.data {
		if r.InputHash == inputHash {
			copy := *r
			result = append(result, &copy)
		}
	}

	sortNewestFirst(result)
	return result, nil
}

// List retrieves up to limit reports, newest first. limit <= 0 means all.
func (s *ReportStore) List(_ context.Context, limit int) ([]*domain.ReportSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ReportSummary, 0, len(s.data))
	for _, r := range s.data {
		copy := *r
		result = append(result, &copy)
	}

	sortNewestFirst(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// sortNewestFirst orders by created_at DESC, report_id ASC.
func sortNewestFirst(reports []*domain.ReportSummary) {
	sort.Slice(reports, func(i, j int) bool {
		if !reports[i].CreatedAt.Equal(reports[j].CreatedAt) {
			return reports[i].CreatedAt.After(reports[j].CreatedAt)
		}
		return reports[i].ReportID < reports[j].ReportID
	})
}
