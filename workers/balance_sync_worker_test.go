package workers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"clan-missions/models"
	"clan-missions/sui"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeFetcher struct {
	mu       sync.Mutex
	balances map[string]string
	failing  map[string]bool
	calls    int
}

func (f *fakeFetcher) GetBalance(_ context.Context, address string) (*sui.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failing[address] {
		return nil, errors.New("rpc down")
	}
	return &sui.Balance{CoinType: "0x2::learn::LEARN", CoinObjectCount: 1, TotalBalance: f.balances[address]}, nil
}

func newWorkerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:workers_%s?mode=memory&cache=shared", uuid.NewString()[:8])
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func addUser(t *testing.T, db *gorm.DB, suffix string) models.User {
	t.Helper()
	u := models.User{ID: uuid.NewString(), WalletAddress: "0x" + strings.Repeat("0", 64-len(suffix)) + suffix}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func TestSyncOnce(t *testing.T) {
	db := newWorkerDB(t)
	alice := addUser(t, db, "a")
	bob := addUser(t, db, "b")
	carol := addUser(t, db, "c")

	fetcher := &fakeFetcher{
		balances: map[string]string{alice.WalletAddress: "100", bob.WalletAddress: "5"},
		failing:  map[string]bool{carol.WalletAddress: true},
	}
	worker := NewBalanceSyncWorker(db, fetcher, time.Minute)
	ctx := context.Background()

	synced, err := worker.SyncOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, synced, "failed wallet is skipped")
	assert.Equal(t, 3, fetcher.calls)

	fetcher.balances[alice.WalletAddress] = "250"
	_, err = worker.SyncOnce(ctx)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.WalletBalance{}).Count(&count).Error)
	assert.EqualValues(t, 2, count, "second pass updates in place")

	balances, err := BalancesForUser(db, alice.ID)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "250", balances[0].TotalBalance)

	none, err := BalancesForUser(db, carol.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSyncOnce_Cancelled(t *testing.T) {
	db := newWorkerDB(t)
	addUser(t, db, "a")
	worker := NewBalanceSyncWorker(db, &fakeFetcher{}, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := worker.SyncOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
