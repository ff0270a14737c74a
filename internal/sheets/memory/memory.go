// Package memory is an in-memory ReportWriter used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
)

type Store struct {
	mu      sync.Mutex
	reports map[string]core.MonthOverview
}

func New() *Store {
	return &Store{reports: map[string]core.MonthOverview{}}
}

// WriteMonthReport stores the overview, replacing any previous report for
// the same (owner, month).
func (s *Store) WriteMonthReport(_ context.Context, ownerID int64, overview core.MonthOverview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[key(ownerID, overview.Month)] = overview
	return nil
}

// Report returns the stored overview for (owner, month), if any.
func (s *Store) Report(ownerID int64, month core.MonthKey) (core.MonthOverview, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ov, ok := s.reports[key(ownerID, month)]
	return ov, ok
}

// Len returns how many distinct (owner, month) reports are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

func key(ownerID int64, month core.MonthKey) string {
	return fmt.Sprintf("%d:%s", ownerID, month)
}
