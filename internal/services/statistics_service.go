package services

import (
	"context"
	"errors"
	"log"
	"time"

	"collabhub/internal/database"
	"collabhub/internal/models"

	"github.com/google/uuid"
)

// StatisticsService recomputes per-project task rollups
type StatisticsService struct {
	tasks      TaskStore
	statistics StatisticStore
	now        func() time.Time
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(stores *Stores) *StatisticsService {
	return &StatisticsService{
		tasks:      stores.Tasks,
		statistics: stores.Statistics,
		now:        time.Now,
	}
}

// Recompute counts the project's tasks and writes the statistic row,
// creating it on first use.
func (s *StatisticsService) Recompute(ctx context.Context, projectID string) (*models.ProjectStatistic, error) {
	now := s.now()
	counts, err := s.tasks.CountByProject(ctx, projectID, now)
	if err != nil {
		return nil, err
	}

	stat, err := s.statistics.Get(ctx, projectID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return nil, err
		}
		stat = &models.ProjectStatistic{ID: uuid.NewString(), ProjectID: projectID}
	}

	stat.TotalTasks = counts.Total
	stat.CompletedTasks = counts.Completed
	stat.OverdueTasks = counts.Overdue
	stat.CompletionPercentage = models.CompletionPercentage(counts.Completed, counts.Total)
	stat.LastUpdated = now

	if err := s.statistics.Upsert(ctx, stat); err != nil {
		return nil, err
	}
	return stat, nil
}

// RefreshAll recomputes every project that already has a statistic row and
// returns how many were refreshed. Failures are logged and skipped.
func (s *StatisticsService) RefreshAll(ctx context.Context) (int, error) {
	ids, err := s.statistics.ListProjectIDs(ctx)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		if _, err := s.Recompute(ctx, id); err != nil {
			log.Printf("⚠️  Failed to refresh statistics for project %s: %v", id, err)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}
