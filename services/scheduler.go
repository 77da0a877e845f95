// services/scheduler.go
package services

import (
	"context"
	"time"

	"clan-missions/models"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Scheduler runs the periodic housekeeping jobs.
type Scheduler struct {
	DB    *gorm.DB
	sched gocron.Scheduler
}

func NewScheduler(db *gorm.DB) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Scheduler{DB: db, sched: sched}, nil
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	// Every minute: publish scheduled missions
	if _, err := s.sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			if _, err := s.PublishDue(context.Background(), time.Now()); err != nil {
				log.WithError(err).Error("[Scheduler] publish scheduled missions failed")
			}
		}),
	); err != nil {
		return err
	}

	// Hourly: drop expired refresh tokens
	if _, err := s.sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			if _, err := s.PruneRefreshTokens(context.Background(), time.Now()); err != nil {
				log.WithError(err).Error("[Scheduler] prune refresh tokens failed")
			}
		}),
	); err != nil {
		return err
	}

	s.sched.Start()
	log.Info("⏰ [Scheduler] started")
	return nil
}

func (s *Scheduler) Stop() error {
	return s.sched.Shutdown()
}

// PublishDue flips scheduled missions whose publish_at has passed to published.
func (s *Scheduler) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Mission{}).
		Where("status = ? AND publish_at <= ?", models.MissionStatusScheduled, now).
		Update("status", models.MissionStatusPublished)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		log.WithField("count", res.RowsAffected).Info("✅ [Scheduler] auto-published missions")
	}
	return res.RowsAffected, nil
}

func (s *Scheduler) PruneRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		log.WithField("count", res.RowsAffected).Info("🧹 [Scheduler] pruned refresh tokens")
	}
	return res.RowsAffected, nil
}
