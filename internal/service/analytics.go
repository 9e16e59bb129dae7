package service

import (
	"fmt"

	"github.com/caravanai/caravan/internal/analytics"
)

// Analytics computes aggregates over all saved history records.
func (s *Service) Analytics() (*analytics.Report, error) {
	conversations, err := s.history.LoadConversations()
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}
	rolePlays, err := s.history.LoadRolePlays()
	if err != nil {
		return nil, fmt.Errorf("failed to load role play records: %w", err)
	}
	taskRuns, err := s.history.LoadTaskRuns()
	if err != nil {
		return nil, fmt.Errorf("failed to load task records: %w", err)
	}
	return analytics.Compute(conversations, rolePlays, taskRuns), nil
}

// ExportAnalytics serializes the analytics report in the requested
// format. Returns the bytes and content type.
func (s *Service) ExportAnalytics(format string) ([]byte, string, error) {
	report, err := s.Analytics()
	if err != nil {
		return nil, "", err
	}
	return analytics.Export(report, format)
}
