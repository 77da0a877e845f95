package services

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clan-missions/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RewardStreamInterval is how often an open stream polls for new rewards.
const RewardStreamInterval = 2 * time.Second

// rewardStreamOverlap re-reads this far behind the newest reward seen. A reward is stamped inside
// its transaction, so it can become visible after a later-stamped one.
const rewardStreamOverlap = 30 * time.Second

// rewardCursor tracks what a stream already sent.
type rewardCursor struct {
	latest time.Time
	seen   map[string]time.Time
}

func (c *rewardCursor) since() time.Time {
	if c.latest.IsZero() {
		return c.latest
	}
	return c.latest.Add(-rewardStreamOverlap)
}

// StreamRewards writes newly earned rewards to w as SSE frames until ctx ends or the
// client goes away (detected as a failed flush).
func (s *RewardService) StreamRewards(ctx context.Context, userID string, w *bufio.Writer, interval time.Duration) {
	cursor, err := s.openRewardCursor(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("[RewardStream] cursor init failed")
	}

	// keepalive comment so proxies open the stream
	w.WriteString(":\n\n")
	if err := w.Flush(); err != nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.pushNewRewards(ctx, userID, cursor, w); err != nil {
				if errors.Is(err, errStreamClosed) {
					log.WithField("user_id", userID).Debug("[RewardStream] client disconnected")
					return
				}
				log.WithError(err).WithField("user_id", userID).Warn("[RewardStream] poll failed")
			}
		}
	}
}

var errStreamClosed = errors.New("stream closed")

// openRewardCursor starts after the newest existing reward, marking the overlap window as already sent.
func (s *RewardService) openRewardCursor(ctx context.Context, userID string) (*rewardCursor, error) {
	cursor := &rewardCursor{seen: map[string]time.Time{}}
	var latest models.UserReward
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cursor, nil
	}
	if err != nil {
		return cursor, err
	}
	cursor.latest = latest.CreatedAt

	var recent []models.UserReward
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND created_at > ?", userID, cursor.since()).
		Find(&recent).Error; err != nil {
		return cursor, err
	}
	for _, r := range recent {
		cursor.seen[r.ID] = r.CreatedAt
	}
	return cursor, nil
}

// pushNewRewards writes one "reward" event per reward not yet sent and advances the cursor.
func (s *RewardService) pushNewRewards(ctx context.Context, userID string, cursor *rewardCursor, w *bufio.Writer) error {
	since := cursor.since()
	var fresh []models.UserReward
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND created_at > ?", userID, since).
		Order("created_at ASC, id ASC").
		Find(&fresh).Error; err != nil {
		return err
	}

	sent := 0
	for _, r := range fresh {
		if _, ok := cursor.seen[r.ID]; ok {
			continue
		}
		payload, err := json.Marshal(r)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "event: reward\ndata: %s\n\n", payload)
		cursor.seen[r.ID] = r.CreatedAt
		if r.CreatedAt.After(cursor.latest) {
			cursor.latest = r.CreatedAt
		}
		sent++
	}

	// forget what fell out of the window
	since = cursor.since()
	for id, at := range cursor.seen {
		if !at.After(since) {
			delete(cursor.seen, id)
		}
	}

	if sent == 0 {
		return nil
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: %v", errStreamClosed, err)
	}
	return nil
}
