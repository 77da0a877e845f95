package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"clan-missions/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// newTestDB opens a private in-memory database per test. One connection keeps the
// shared-cache database alive and serialises access.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, hexSuffix string) *models.User {
	t.Helper()
	user := &models.User{
		ID:            uuid.NewString(),
		WalletAddress: "0x" + strings.Repeat("0", 64-len(hexSuffix)) + hexSuffix,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func intPtr(v int) *int { return &v }

// quizRound builds a round whose quiz answers are the given indexes, each with three options.
func quizRound(title string, reward uint64, answers ...int) RoundInput {
	quizzes := make([]QuizInput, len(answers))
	for i, a := range answers {
		quizzes[i] = QuizInput{
			Question:      fmt.Sprintf("%s question %d", title, i+1),
			Options:       []string{"a", "b", "c"},
			CorrectOption: intPtr(a),
		}
	}
	round := RoundInput{
		Title: title,
		Quest: QuestInput{Type: models.QuestTypeQuiz, Title: title + " quest", Quizzes: quizzes},
	}
	if reward > 0 {
		round.Reward = &RewardInput{Amount: reward, TokenSymbol: "learn"}
	}
	return round
}

type fakeMinter struct {
	mu     sync.Mutex
	calls  []string
	amount uint64
	err    error
}

func (m *fakeMinter) record(kind string) (*MintResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, kind)
	if m.err != nil {
		return nil, m.err
	}
	return &MintResult{Digest: fmt.Sprintf("digest-%d", len(m.calls)), ObjectID: "0xobject"}, nil
}

func (m *fakeMinter) MintCertificate(_ context.Context, _ string, _ NFTMetadata) (*MintResult, error) {
	return m.record("certificate")
}

func (m *fakeMinter) MintBadge(_ context.Context, _ string, _ NFTMetadata) (*MintResult, error) {
	return m.record("badge")
}

func (m *fakeMinter) MintToken(_ context.Context, _ string, amount uint64) (*MintResult, error) {
	m.mu.Lock()
	m.amount += amount
	m.mu.Unlock()
	return m.record("token")
}

func (m *fakeMinter) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == kind {
			n++
		}
	}
	return n
}

type fakeStore struct {
	mu   sync.Mutex
	puts map[string][]byte
	err  error
}

func newFakeStore() *fakeStore { return &fakeStore{puts: map[string][]byte{}} }

func (s *fakeStore) Put(_ context.Context, key, _ string, body []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.puts[key] = body
	return "https://cdn.test/" + key, nil
}

// fixedClock returns a clock stuck at t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }
