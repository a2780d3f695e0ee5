package memory

import (
	"context"
	"sort"
	"sync"

	"scamslayer-service/internal/domain"
)

// ReportStore keeps reports in memory, newest first on read.
type ReportStore struct {
	mu      sync.RWMutex
	reports []domain.Report
}

func NewReportStore() *ReportStore {
	return &ReportStore{}
}

func (s *ReportStore) InsertReport(_ context.Context, report domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return nil
}

func (s *ReportStore) RecentReports(_ context.Context, limit int) ([]domain.Report, error) {
	s.mu.RLock()
	out := make([]domain.Report, len(s.reports))
	copy(out, s.reports)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
