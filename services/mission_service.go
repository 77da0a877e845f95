// services/mission_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"clan-missions/models"
	"clan-missions/utils"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const minQuizOptions = 2

type MissionService struct {
	DB     *gorm.DB
	Badges *BadgeService
	now    func() time.Time
}

func NewMissionService(db *gorm.DB, badges *BadgeService) *MissionService {
	return &MissionService{DB: db, Badges: badges, now: time.Now}
}

// --- Request shapes ---

type QuizInput struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption *int     `json:"correct_option"`
}

type QuestInput struct {
	Type        string      `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Quizzes     []QuizInput `json:"quizzes"`
}

type RewardInput struct {
	Amount      uint64 `json:"amount"`
	TokenSymbol string `json:"token_symbol"`
}

type RoundInput struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Quest       QuestInput   `json:"quest"`
	Reward      *RewardInput `json:"reward"`
}

type MissionInput struct {
	ClanID    string               `json:"clan_id"`
	Title     string               `json:"title"`
	Brief     string               `json:"brief"`
	ImageURL  string               `json:"image_url"`
	Status    models.MissionStatus `json:"status"`
	PublishAt *time.Time           `json:"publish_at"`
	Rounds    []RoundInput         `json:"rounds"`
}

type MissionPatch struct {
	Title     *string               `json:"title"`
	Brief     *string               `json:"brief"`
	ImageURL  *string               `json:"image_url"`
	Status    *models.MissionStatus `json:"status"`
	PublishAt *time.Time            `json:"publish_at"`
}

// RoundResult is the outcome of one graded submission.
type RoundResult struct {
	Completion       models.RoundCompletion      `json:"completion"`
	Reward           *models.UserReward          `json:"reward,omitempty"`
	Participation    models.MissionParticipation `json:"participation"`
	MissionCompleted bool                        `json:"mission_completed"`
	AwardedBadges    []string                    `json:"awarded_badges,omitempty"`
}

// ParticipationView adds the ids of passed rounds to a participation.
type ParticipationView struct {
	*models.MissionParticipation
	CompletedRoundIDs []string `json:"completed_round_ids"`
}

// --- Validation ---

func validateMission(in *MissionInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return invalid("title is required")
	}
	if in.ClanID == "" {
		return invalid("clan_id is required")
	}
	if in.Status != "" && in.Status != models.MissionStatusDraft && in.Status != models.MissionStatusPublished {
		return invalid("status must be draft or published")
	}
	if len(in.Rounds) == 0 {
		return invalid("mission needs at least one round")
	}
	for i, round := range in.Rounds {
		if strings.TrimSpace(round.Title) == "" {
			return invalid("round %d: title is required", i+1)
		}
		questType := round.Quest.Type
		if questType == "" {
			questType = models.QuestTypeQuiz
		}
		if questType != models.QuestTypeQuiz && questType != models.QuestTypeTask {
			return invalid("round %d: unknown quest type %q", i+1, round.Quest.Type)
		}
		if questType == models.QuestTypeQuiz && len(round.Quest.Quizzes) == 0 {
			return invalid("round %d: quiz quest needs at least one question", i+1)
		}
		for j, quiz := range round.Quest.Quizzes {
			if strings.TrimSpace(quiz.Question) == "" {
				return invalid("round %d, quiz %d: question is required", i+1, j+1)
			}
			if len(quiz.Options) < minQuizOptions {
				return invalid("round %d, quiz %d: at least %d options required", i+1, j+1, minQuizOptions)
			}
			if quiz.CorrectOption == nil || *quiz.CorrectOption < 0 || *quiz.CorrectOption >= len(quiz.Options) {
				return invalid("round %d, quiz %d: correct_option out of range", i+1, j+1)
			}
		}
	}
	return nil
}

// initialStatus: an explicit draft wins, then a future publish_at schedules, otherwise published.
func initialStatus(requested models.MissionStatus, publishAt *time.Time, now time.Time) models.MissionStatus {
	switch {
	case requested == models.MissionStatusDraft:
		return models.MissionStatusDraft
	case publishAt != nil && publishAt.After(now):
		return models.MissionStatusScheduled
	default:
		return models.MissionStatusPublished
	}
}

func buildMission(creatorID string, in MissionInput, status models.MissionStatus) models.Mission {
	mission := models.Mission{
		ID:        uuid.NewString(),
		ClanID:    in.ClanID,
		CreatorID: creatorID,
		Title:     in.Title,
		Brief:     in.Brief,
		ImageURL:  in.ImageURL,
		Status:    status,
		PublishAt: in.PublishAt,
	}
	for i, r := range in.Rounds {
		round := models.MissionRound{
			ID:          uuid.NewString(),
			MissionID:   mission.ID,
			Title:       strings.TrimSpace(r.Title),
			Description: r.Description,
			SortOrder:   i,
		}
		questType := r.Quest.Type
		if questType == "" {
			questType = models.QuestTypeQuiz
		}
		quest := &models.Quest{
			ID:          uuid.NewString(),
			RoundID:     round.ID,
			Type:        questType,
			Title:       r.Quest.Title,
			Description: r.Quest.Description,
		}
		for j, q := range r.Quest.Quizzes {
			correct := *q.CorrectOption
			quest.Quizzes = append(quest.Quizzes, models.Quiz{
				ID:            uuid.NewString(),
				QuestID:       quest.ID,
				Question:      strings.TrimSpace(q.Question),
				Options:       q.Options,
				CorrectOption: &correct,
				SortOrder:     j,
			})
		}
		round.Quest = quest
		if r.Reward != nil {
			symbol := strings.ToUpper(strings.TrimSpace(r.Reward.TokenSymbol))
			if symbol == "" {
				symbol = "LEARN"
			}
			round.Reward = &models.MissionReward{
				ID:          uuid.NewString(),
				RoundID:     round.ID,
				Amount:      r.Reward.Amount,
				TokenSymbol: symbol,
			}
		}
		mission.Rounds = append(mission.Rounds, round)
	}
	return mission
}

// --- CRUD ---

// Create validates the tree and inserts mission, rounds, quests, quizzes and rewards in one transaction.
func (s *MissionService) Create(ctx context.Context, creatorID string, in MissionInput) (*models.Mission, error) {
	if err := validateMission(&in); err != nil {
		return nil, err
	}

	var mission models.Mission
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clan, err := findClan(tx, in.ClanID)
		if err != nil {
			return err
		}
		if clan.CreatorID != creatorID {
			return ErrForbidden
		}
		in.ClanID = clan.ID

		mission = buildMission(creatorID, in, initialStatus(in.Status, in.PublishAt, s.now()))
		// GORM saves the nested associations along with the mission
		return tx.Create(&mission).Error
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"mission_id": mission.ID,
		"clan_id":    mission.ClanID,
		"status":     mission.Status,
		"rounds":     len(mission.Rounds),
	}).Info("🗺️ [Missions] created")
	return &mission, nil
}

// List returns published missions, optionally for one clan.
func (s *MissionService) List(ctx context.Context, page utils.Page, clanID string) (utils.Paginated[models.Mission], error) {
	query := s.DB.WithContext(ctx).Model(&models.Mission{}).
		Where("status = ?", models.MissionStatusPublished)
	if clanID != "" {
		query = query.Where("clan_id = ?", clanID)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Paginated[models.Mission]{}, err
	}
	var missions []models.Mission
	if err := query.Preload("Clan").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&missions).Error; err != nil {
		return utils.Paginated[models.Mission]{}, err
	}
	return utils.NewPaginated(missions, page, total), nil
}

// ListForClan resolves the clan first so unknown clans are a 404 rather than an empty page.
func (s *MissionService) ListForClan(ctx context.Context, idOrSlug string, page utils.Page) (utils.Paginated[models.Mission], error) {
	clan, err := findClan(s.DB.WithContext(ctx), idOrSlug)
	if err != nil {
		return utils.Paginated[models.Mission]{}, err
	}
	return s.List(ctx, page, clan.ID)
}

// Get loads the full tree. Unpublished missions and answers are only visible to the creator.
func (s *MissionService) Get(ctx context.Context, missionID, viewerID string) (*models.Mission, error) {
	mission, err := loadMissionTree(s.DB.WithContext(ctx), missionID)
	if err != nil {
		return nil, err
	}
	isCreator := viewerID != "" && viewerID == mission.CreatorID
	if !isCreator {
		if mission.Status != models.MissionStatusPublished {
			return nil, ErrMissionNotFound
		}
		stripAnswers(mission)
	}
	return mission, nil
}

func (s *MissionService) Update(ctx context.Context, userID, missionID string, patch MissionPatch) (*models.Mission, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		mission, err := findMission(tx, missionID)
		if err != nil {
			return err
		}
		if mission.CreatorID != userID {
			return ErrForbidden
		}

		updates := map[string]any{}
		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return invalid("title is required")
			}
			updates["title"] = title
		}
		if patch.Brief != nil {
			updates["brief"] = *patch.Brief
		}
		if patch.ImageURL != nil {
			updates["image_url"] = *patch.ImageURL
		}
		if patch.PublishAt != nil {
			updates["publish_at"] = *patch.PublishAt
			if patch.Status == nil && patch.PublishAt.After(s.now()) {
				updates["status"] = models.MissionStatusScheduled
			}
		}
		if patch.Status != nil {
			if !patch.Status.Valid() {
				return invalid("unknown status %q", *patch.Status)
			}
			if *patch.Status == models.MissionStatusScheduled && patch.PublishAt == nil && mission.PublishAt == nil {
				return invalid("scheduled missions need publish_at")
			}
			updates["status"] = *patch.Status
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(mission).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, missionID, userID)
}

func (s *MissionService) Delete(ctx context.Context, userID, missionID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		mission, err := findMission(tx, missionID)
		if err != nil {
			return err
		}
		if mission.CreatorID != userID {
			return ErrForbidden
		}
		return deleteMissionTrees(tx, []string{mission.ID})
	})
}

// --- Participation ---

// Start enrolls the user in a published mission.
func (s *MissionService) Start(ctx context.Context, userID, missionID string) (*models.MissionParticipation, error) {
	participation := models.MissionParticipation{
		ID:        uuid.NewString(),
		MissionID: missionID,
		UserID:    userID,
		Status:    models.ParticipationStarted,
		StartedAt: s.now(),
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		mission, err := findMission(tx, missionID)
		if err != nil {
			return err
		}
		if mission.Status != models.MissionStatusPublished {
			return ErrMissionNotPublished
		}

		var count int64
		if err := tx.Model(&models.MissionParticipation{}).
			Where("mission_id = ? AND user_id = ?", missionID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyStarted
		}
		return tx.Create(&participation).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyStarted
		}
		return nil, err
	}
	log.WithFields(log.Fields{"mission_id": missionID, "user_id": userID}).Info("🚀 [Missions] started")
	return &participation, nil
}

// SubmitRound grades one answer per quiz; a round passes only when every answer is correct.
func (s *MissionService) SubmitRound(ctx context.Context, userID, missionID, roundID string, answers []int) (*RoundResult, error) {
	var result RoundResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var participation models.MissionParticipation
		if err := tx.Where("mission_id = ? AND user_id = ?", missionID, userID).
			First(&participation).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrParticipationNotFound
			}
			return err
		}

		// unpublished or archived since the user started
		mission, err := findMission(tx, missionID)
		if err != nil {
			return err
		}
		if mission.Status != models.MissionStatusPublished {
			return ErrMissionNotPublished
		}

		var round models.MissionRound
		if err := tx.Preload("Quest.Quizzes", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).Preload("Reward").
			Where("id = ? AND mission_id = ?", roundID, missionID).
			First(&round).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoundNotFound
			}
			return err
		}

		var passedBefore int64
		if err := tx.Model(&models.RoundCompletion{}).
			Where("participation_id = ? AND round_id = ? AND passed = ?", participation.ID, round.ID, true).
			Count(&passedBefore).Error; err != nil {
			return err
		}
		if passedBefore > 0 {
			return ErrRoundAlreadyPassed
		}

		var quizzes []models.Quiz
		if round.Quest != nil {
			quizzes = round.Quest.Quizzes
		}
		score, err := grade(quizzes, answers)
		if err != nil {
			return err
		}

		completion := models.RoundCompletion{
			ID:              uuid.NewString(),
			ParticipationID: participation.ID,
			RoundID:         round.ID,
			Score:           score,
			Total:           len(quizzes),
			Passed:          score == len(quizzes),
		}
		if err := tx.Create(&completion).Error; err != nil {
			return err
		}
		result.Completion = completion

		if completion.Passed {
			if err := s.onRoundPassed(tx, &participation, &round, &result); err != nil {
				return err
			}
		}
		result.Participation = participation
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrRoundAlreadyPassed
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"mission_id": missionID,
		"round_id":   roundID,
		"user_id":    userID,
		"score":      result.Completion.Score,
		"passed":     result.Completion.Passed,
	}).Info("📝 [Missions] round submitted")
	return &result, nil
}

func grade(quizzes []models.Quiz, answers []int) (int, error) {
	if len(answers) != len(quizzes) {
		return 0, invalid("expected %d answers, got %d", len(quizzes), len(answers))
	}
	score := 0
	for i, quiz := range quizzes {
		if quiz.CorrectOption != nil && answers[i] == *quiz.CorrectOption {
			score++
		}
	}
	return score, nil
}

// onRoundPassed books the pending reward and completes the participation after the last round.
func (s *MissionService) onRoundPassed(tx *gorm.DB, participation *models.MissionParticipation, round *models.MissionRound, result *RoundResult) error {
	if round.Reward != nil && round.Reward.Amount > 0 {
		reward := models.UserReward{
			ID:          uuid.NewString(),
			UserID:      participation.UserID,
			MissionID:   participation.MissionID,
			RoundID:     round.ID,
			Amount:      round.Reward.Amount,
			TokenSymbol: round.Reward.TokenSymbol,
			Status:      models.RewardStatusPending,
		}
		if err := tx.Create(&reward).Error; err != nil {
			return err
		}
		result.Reward = &reward
	}

	var totalRounds, passedRounds int64
	if err := tx.Model(&models.MissionRound{}).
		Where("mission_id = ?", participation.MissionID).
		Count(&totalRounds).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.RoundCompletion{}).
		Where("participation_id = ? AND passed = ?", participation.ID, true).
		Distinct("round_id").
		Count(&passedRounds).Error; err != nil {
		return err
	}

	updates := map[string]any{"completed_rounds": int(passedRounds)}
	participation.CompletedRounds = int(passedRounds)
	if passedRounds >= totalRounds && participation.Status != models.ParticipationCompleted {
		now := s.now()
		updates["status"] = models.ParticipationCompleted
		updates["completed_at"] = now
		participation.Status = models.ParticipationCompleted
		participation.CompletedAt = &now
		result.MissionCompleted = true
	}
	if err := tx.Model(participation).Updates(updates).Error; err != nil {
		return err
	}

	if result.MissionCompleted {
		log.WithFields(log.Fields{"mission_id": participation.MissionID, "user_id": participation.UserID}).Info("🏁 [Missions] completed")
		if s.Badges != nil {
			awarded, err := s.Badges.award(tx, participation.UserID)
			if err != nil {
				return err
			}
			result.AwardedBadges = awarded
		}
	}
	return nil
}

// Participation returns the user's run through a mission with the ids of passed rounds.
func (s *MissionService) Participation(ctx context.Context, userID, missionID string) (*ParticipationView, error) {
	db := s.DB.WithContext(ctx)

	var participation models.MissionParticipation
	if err := db.Where("mission_id = ? AND user_id = ?", missionID, userID).
		First(&participation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipationNotFound
		}
		return nil, err
	}

	roundIDs := []string{}
	if err := db.Model(&models.RoundCompletion{}).
		Where("participation_id = ? AND passed = ?", participation.ID, true).
		Distinct().
		Pluck("round_id", &roundIDs).Error; err != nil {
		return nil, err
	}
	return &ParticipationView{MissionParticipation: &participation, CompletedRoundIDs: roundIDs}, nil
}

// --- Helpers ---

func findMission(db *gorm.DB, missionID string) (*models.Mission, error) {
	if _, err := uuid.Parse(missionID); err != nil {
		return nil, ErrMissionNotFound
	}
	var mission models.Mission
	if err := db.First(&mission, "id = ?", missionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMissionNotFound
		}
		return nil, err
	}
	return &mission, nil
}

func loadMissionTree(db *gorm.DB, missionID string) (*models.Mission, error) {
	if _, err := uuid.Parse(missionID); err != nil {
		return nil, ErrMissionNotFound
	}
	bySortOrder := func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }

	var mission models.Mission
	err := db.
		Preload("Clan").
		Preload("Rounds", bySortOrder).
		Preload("Rounds.Quest").
		Preload("Rounds.Quest.Quizzes", bySortOrder).
		Preload("Rounds.Reward").
		First(&mission, "id = ?", missionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMissionNotFound
		}
		return nil, err
	}
	return &mission, nil
}

func stripAnswers(mission *models.Mission) {
	for i := range mission.Rounds {
		quest := mission.Rounds[i].Quest
		if quest == nil {
			continue
		}
		for j := range quest.Quizzes {
			quest.Quizzes[j].CorrectOption = nil
		}
	}
}

// deleteMissionTrees removes missions and everything hanging off them. Claimed rewards and
// certificates are kept since they already exist on chain.
func deleteMissionTrees(tx *gorm.DB, missionIDs []string) error {
	if len(missionIDs) == 0 {
		return nil
	}

	var roundIDs, questIDs, participationIDs []string
	if err := tx.Model(&models.MissionRound{}).Where("mission_id IN ?", missionIDs).Pluck("id", &roundIDs).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.MissionParticipation{}).Where("mission_id IN ?", missionIDs).Pluck("id", &participationIDs).Error; err != nil {
		return err
	}

	if len(roundIDs) > 0 {
		if err := tx.Model(&models.Quest{}).Where("round_id IN ?", roundIDs).Pluck("id", &questIDs).Error; err != nil {
			return err
		}
		if len(questIDs) > 0 {
			if err := tx.Where("quest_id IN ?", questIDs).Delete(&models.Quiz{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", questIDs).Delete(&models.Quest{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("round_id IN ?", roundIDs).Delete(&models.MissionReward{}).Error; err != nil {
			return err
		}
	}
	if len(participationIDs) > 0 {
		if err := tx.Where("participation_id IN ?", participationIDs).Delete(&models.RoundCompletion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", participationIDs).Delete(&models.MissionParticipation{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("mission_id IN ? AND status = ?", missionIDs, models.RewardStatusPending).
		Delete(&models.UserReward{}).Error; err != nil {
		return err
	}
	if err := tx.Where("mission_id IN ?", missionIDs).Delete(&models.MissionRound{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", missionIDs).Delete(&models.Mission{}).Error
}
