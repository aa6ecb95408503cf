package jobs

import (
	"context"
	"log"
	"time"

	"collabhub/internal/services"
)

const statisticsLockKey = "collabhub:lock:statistics_refresh"

// Locker is a distributed mutex; services.RedisService implements it
type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, lockValue string, expiration time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string, lockValue string) (bool, error)
}

// StatisticsRefreshJob recomputes project statistics so overdue counts
// follow the clock between task writes
type StatisticsRefreshJob struct {
	stats      *services.StatisticsService
	locker     Locker
	instanceID string
	interval   time.Duration
}

// NewStatisticsRefreshJob creates the refresh job. locker may be nil on a
// single instance; with several instances it keeps one refresh per tick.
func NewStatisticsRefreshJob(stats *services.StatisticsService, locker Locker, instanceID string, interval time.Duration) *StatisticsRefreshJob {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &StatisticsRefreshJob{
		stats:      stats,
		locker:     locker,
		instanceID: instanceID,
		interval:   interval,
	}
}

// Interval returns how often the job runs
func (j *StatisticsRefreshJob) Interval() time.Duration {
	return j.interval
}

// Run refreshes every project that has a statistic row
func (j *StatisticsRefreshJob) Run(ctx context.Context) error {
	if j.locker != nil {
		acquired, err := j.locker.AcquireLock(ctx, statisticsLockKey, j.instanceID, j.interval)
		if err != nil {
			return err
		}
		if !acquired {
			log.Println("[STATISTICS] Refresh already running on another instance, skipping")
			return nil
		}
		defer func() {
			if _, err := j.locker.ReleaseLock(context.Background(), statisticsLockKey, j.instanceID); err != nil {
				log.Printf("⚠️  [STATISTICS] Failed to release refresh lock: %v", err)
			}
		}()
	}

	startTime := time.Now()
	refreshed, err := j.stats.RefreshAll(ctx)
	if err != nil {
		return err
	}
	log.Printf("[STATISTICS] Refreshed %d projects in %v", refreshed, time.Since(startTime))
	return nil
}
