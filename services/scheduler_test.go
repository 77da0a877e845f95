package services

import (
	"context"
	"testing"
	"time"

	"clan-missions/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDue(t *testing.T) {
	f := newMissionFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	soon := now.Add(30 * time.Minute)
	mission, err := f.missions.Create(ctx, f.owner.ID, MissionInput{
		ClanID: f.clan.ID, Title: "scheduled", PublishAt: &soon, Rounds: []RoundInput{quizRound("r", 0, 0)},
	})
	require.NoError(t, err)
	require.Equal(t, models.MissionStatusScheduled, mission.Status)

	sched, err := NewScheduler(f.missions.DB)
	require.NoError(t, err)

	n, err := sched.PublishDue(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n, "not due yet")

	n, err = sched.PublishDue(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := f.missions.Get(ctx, mission.ID, f.player.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MissionStatusPublished, got.Status)
}

func TestPruneRefreshTokens(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	alive := seedUser(t, db, "a1")
	stale := seedUser(t, db, "b2")
	require.NoError(t, db.Create(&models.RefreshToken{ID: uuid.NewString(), UserID: alive.ID, Token: "alive", ExpiresAt: now.Add(time.Hour)}).Error)
	require.NoError(t, db.Create(&models.RefreshToken{ID: uuid.NewString(), UserID: stale.ID, Token: "stale", ExpiresAt: now.Add(-time.Hour)}).Error)

	sched, err := NewScheduler(db)
	require.NoError(t, err)
	n, err := sched.PruneRefreshTokens(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var left []models.RefreshToken
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "alive", left[0].Token)
}
