package app

import (
	"context"
	"fmt"

	"github.com/example/refab/internal/ports/primary"
	"github.com/example/refab/internal/ports/secondary"
)

// LogServiceImpl implements the LogService interface.
type LogServiceImpl struct {
	logRepo secondary.SchedulingLogRepository
}

// NewLogService creates a LogService with an injected repository.
func NewLogService(logRepo secondary.SchedulingLogRepository) *LogServiceImpl {
	return &LogServiceImpl{logRepo: logRepo}
}

// TailLog retrieves the newest scheduling-log entries for a factory.
func (s *LogServiceImpl) TailLog(ctx context.Context, factoryID string, limit int) ([]*primary.LogEntry, error) {
	records, err := s.logRepo.Tail(ctx, factoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to tail scheduling log: %w", err)
	}

	var entries []*primary.LogEntry
	for _, rec := range records {
		entries = append(entries, &primary.LogEntry{
			ID:        rec.ID,
			FactoryID: rec.FactoryID,
			Stage:     rec.Stage,
			Mode:      rec.Mode,
			Details:   rec.Details,
			ActorID:   rec.ActorID,
			CreatedAt: rec.CreatedAt,
		})
	}
	return entries, nil
}
