package services

import (
	"context"
	"testing"
	"time"

	"clan-missions/models"
	"clan-missions/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type missionFixture struct {
	missions *MissionService
	clans    *ClanService
	owner    *models.User
	player   *models.User
	clan     *models.Clan
}

func newMissionFixture(t *testing.T) *missionFixture {
	t.Helper()
	db := newTestDB(t)
	badges := NewBadgeService(db, &fakeMinter{})
	require.NoError(t, badges.SeedCatalog(context.Background()))
	clans := NewClanService(db, badges)

	owner := seedUser(t, db, "a1")
	player := seedUser(t, db, "b2")
	clan, err := clans.Create(context.Background(), owner.ID, ClanInput{Name: "Academy"})
	require.NoError(t, err)

	return &missionFixture{
		missions: NewMissionService(db, badges),
		clans:    clans,
		owner:    owner,
		player:   player,
		clan:     clan,
	}
}

func (f *missionFixture) create(t *testing.T, rounds ...RoundInput) *models.Mission {
	t.Helper()
	mission, err := f.missions.Create(context.Background(), f.owner.ID, MissionInput{
		ClanID: f.clan.ID,
		Title:  "Sui 101",
		Brief:  "objects and ownership",
		Rounds: rounds,
	})
	require.NoError(t, err)
	return mission
}

func TestCreateMission_Validation(t *testing.T) {
	f := newMissionFixture(t)
	ctx := context.Background()

	cases := map[string]MissionInput{
		"no title":  {ClanID: f.clan.ID, Rounds: []RoundInput{quizRound("r", 0, 0)}},
		"no rounds": {ClanID: f.clan.ID, Title: "t"},
		"one option": {ClanID: f.clan.ID, Title: "t", Rounds: []RoundInput{{
			Title: "r",
			Quest: QuestInput{Quizzes: []QuizInput{{Question: "q", Options: []string{"only"}, CorrectOption: intPtr(0)}}},
		}}},
		"answer out of range": {ClanID: f.clan.ID, Title: "t", Rounds: []RoundInput{quizRound("r", 0, 3)}},
		"missing answer": {ClanID: f.clan.ID, Title: "t", Rounds: []RoundInput{{
			Title: "r",
			Quest: QuestInput{Quizzes: []QuizInput{{Question: "q", Options: []string{"a", "b"}}}},
		}}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.missions.Create(ctx, f.owner.ID, in)
			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, 400, se.Status)
		})
	}
}

func TestCreateMission_CreatorOnly(t *testing.T) {
	f := newMissionFixture(t)
	_, err := f.missions.Create(context.Background(), f.player.ID, MissionInput{
		ClanID: f.clan.ID,
		Title:  "Hijack",
		Rounds: []RoundInput{quizRound("r", 0, 0)},
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateMission_Status(t *testing.T) {
	f := newMissionFixture(t)
	ctx := context.Background()
	future := time.Now().Add(time.Hour)

	scheduled, err := f.missions.Create(ctx, f.owner.ID, MissionInput{
		ClanID: f.clan.ID, Title: "later", PublishAt: &future, Rounds: []RoundInput{quizRound("r", 0, 0)},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MissionStatusScheduled, scheduled.Status)

	draft, err := f.missions.Create(ctx, f.owner.ID, MissionInput{
		ClanID: f.clan.ID, Title: "wip", Status: models.MissionStatusDraft, Rounds: []RoundInput{quizRound("r", 0, 0)},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MissionStatusDraft, draft.Status)

	live := f.create(t, quizRound("r", 0, 0))
	assert.Equal(t, models.MissionStatusPublished, live.Status)

	page, err := f.missions.List(ctx, utils.Page{Page: 1, Limit: 10}, "")
	require.NoError(t, err)
	require.Len(t, page.Data, 1, "only published missions are listed")
	assert.Equal(t, live.ID, page.Data[0].ID)

	_, err = f.missions.Get(ctx, draft.ID, f.player.ID)
	assert.ErrorIs(t, err, ErrMissionNotFound)
	got, err := f.missions.Get(ctx, draft.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)
}

func TestGetMission_HidesAnswersFromNonCreators(t *testing.T) {
	f := newMissionFixture(t)
	mission := f.create(t, quizRound("first", 5, 1, 2), quizRound("second", 5, 0))

	public, err := f.missions.Get(context.Background(), mission.ID, "")
	require.NoError(t, err)
	require.Len(t, public.Rounds, 2)
	assert.Equal(t, "first", public.Rounds[0].Title)
	require.NotNil(t, public.Rounds[0].Quest)
	require.Len(t, public.Rounds[0].Quest.Quizzes, 2)
	for _, q := range public.Rounds[0].Quest.Quizzes {
		assert.Nil(t, q.CorrectOption)
		assert.Len(t, q.Options, 3)
	}

	own, err := f.missions.Get(context.Background(), mission.ID, f.owner.ID)
	require.NoError(t, err)
	require.NotNil(t, own.Rounds[0].Quest.Quizzes[1].CorrectOption)
	assert.Equal(t, 2, *own.Rounds[0].Quest.Quizzes[1].CorrectOption)
	require.NotNil(t, own.Rounds[0].Reward)
	assert.Equal(t, "LEARN", own.Rounds[0].Reward.TokenSymbol)
}

func TestStartMission(t *testing.T) {
	f := newMissionFixture(t)
	ctx := context.Background()
	mission := f.create(t, quizRound("r", 0, 0))

	_, err := f.missions.Start(ctx, f.player.ID, mission.ID)
	require.NoError(t, err)
	_, err = f.missions.Start(ctx, f.player.ID, mission.ID)
	assert.ErrorIs(t, err, ErrAlreadyStarted)

	draft, err := f.missions.Create(ctx, f.owner.ID, MissionInput{
		ClanID: f.clan.ID, Title: "wip", Status: models.MissionStatusDraft, Rounds: []RoundInput{quizRound("r", 0, 0)},
	})
	require.NoError(t, err)
	_, err = f.missions.Start(ctx, f.player.ID, draft.ID)
	assert.ErrorIs(t, err, ErrMissionNotPublished)
}

func TestSubmitRound_FullRun(t *testing.T) {
	f := newMissionFixture(t)
	ctx := context.Background()
	mission := f.create(t, quizRound("one", 10, 1, 0), quizRound("two", 20, 2))
	roundOne, roundTwo := mission.Rounds[0].ID, mission.Rounds[1].ID

	_, err := f.missions.SubmitRound(ctx, f.player.ID, mission.ID, roundOne, []int{1, 0})
	assert.ErrorIs(t, err, ErrParticipationNotFound)

	_, err = f.missions.Start(ctx, f.player.ID, mission.ID)
	require.NoError(t, err)

	failed, err := f.missions.SubmitRound(ctx, f.player.ID, mission.ID, roundOne, []int{1, 2})
	require.NoError(t, err)
	assert.False(t, failed.Completion.Passed)
	assert.Equal(t, 1, failed.Completion.Score)
	assert.Nil(t, failed.Reward)

	_, err = f.missions.SubmitRound(ctx, f.player.ID, mission.ID, roundOne, []int{1})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 400, se.Status)

	passed, err := f.missions.SubmitRound(ctx, f.player.ID, mission.ID, roundOne, []int{1, 0})
	require.NoError(t, err)
	assert.True(t, passed.Completion.Passed)
	require.NotNil(t, passed.Reward)
	assert.EqualValues(t, 10, passed.Reward.Amount)
	assert.Equal(t, models.RewardStatusPending, passed.Reward.Status)
	assert.False(t, passed.MissionCompleted)

	_, err = f.missions.SubmitRound(ctx, f.player.ID, mission.ID, roundOne, []int{1, 0})
	assert.ErrorIs(t, err, ErrRoundAlreadyPassed)

	last, err := f.missions.SubmitRound(ctx, f.player.ID, mission.ID, roundTwo, []int{2})
	require.NoError(t, err)
	assert.True(t, last.MissionCompleted)
	assert.Equal(t, models.ParticipationCompleted, last.Participation.Status)
	assert.Equal(t, 2, last.Participation.CompletedRounds)
	assert.Contains(t, last.AwardedBadges, "FIRST_MISSION")

	var pending int64
	f.missions.DB.Model(&models.UserReward{}).
		Where("user_id = ? AND status = ?", f.player.ID, models.RewardStatusPending).
		Count(&pending)
	assert.EqualValues(t, 2, pending)

	view, err := f.missions.Participation(ctx, f.player.ID, mission.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{roundOne, roundTwo}, view.CompletedRoundIDs)
	assert.NotNil(t, view.CompletedAt)
}

func TestSubmitRound_UnknownRound(t *testing.T) {
	f := newMissionFixture(t)
	ctx := context.Background()
	mission := f.create(t, quizRound("r", 0, 0))
	other := f.create(t, quizRound("elsewhere", 0, 0))

	_, err := f.missions.Start(ctx, f.player.ID, mission.ID)
	require.NoError(t, err)
	_, err = f.missions.SubmitRound(ctx, f.player.ID, mission.ID, other.Rounds[0].ID, []int{0})
	assert.ErrorIs(t, err, ErrRoundNotFound)
}

func TestUpdateAndDeleteMission(t *testing.T) {
	f := newMissionFixture(t)
	ctx := context.Background()
	mission := f.create(t, quizRound("r", 5, 0))

	title := "Sui 102"
	_, err := f.missions.Update(ctx, f.player.ID, mission.ID, MissionPatch{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	archived := models.MissionStatusArchived
	updated, err := f.missions.Update(ctx, f.owner.ID, mission.ID, MissionPatch{Title: &title, Status: &archived})
	require.NoError(t, err)
	assert.Equal(t, "Sui 102", updated.Title)
	assert.Equal(t, models.MissionStatusArchived, updated.Status)

	bogus := models.MissionStatus("gone")
	_, err = f.missions.Update(ctx, f.owner.ID, mission.ID, MissionPatch{Status: &bogus})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 400, se.Status)

	assert.ErrorIs(t, f.missions.Delete(ctx, f.player.ID, mission.ID), ErrForbidden)
	require.NoError(t, f.missions.Delete(ctx, f.owner.ID, mission.ID))
	_, err = f.missions.Get(ctx, mission.ID, f.owner.ID)
	assert.ErrorIs(t, err, ErrMissionNotFound)
}

func TestSubmitRound_MissionNoLongerPublished(t *testing.T) {
	f := newMissionFixture(t)
	ctx := context.Background()
	mission := f.create(t, quizRound("only", 10, 1))
	_, err := f.missions.Start(ctx, f.player.ID, mission.ID)
	require.NoError(t, err)

	for _, status := range []models.MissionStatus{models.MissionStatusArchived, models.MissionStatusDraft} {
		require.NoError(t, f.missions.DB.Model(&models.Mission{}).Where("id = ?", mission.ID).Update("status", status).Error)

		_, err = f.missions.SubmitRound(ctx, f.player.ID, mission.ID, mission.Rounds[0].ID, []int{1})
		assert.ErrorIs(t, err, ErrMissionNotPublished, status)
	}

	var rewards, completions int64
	require.NoError(t, f.missions.DB.Model(&models.UserReward{}).Count(&rewards).Error)
	require.NoError(t, f.missions.DB.Model(&models.RoundCompletion{}).Count(&completions).Error)
	assert.Zero(t, rewards, "no reward booked")
	assert.Zero(t, completions)
}
