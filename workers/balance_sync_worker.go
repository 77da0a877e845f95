package workers

import (
	"context"
	"time"

	"clan-missions/models"
	"clan-missions/sui"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const balanceSyncBatchSize = 100

// BalanceFetcher reads one address's balance of the configured coin.
type BalanceFetcher interface {
	GetBalance(ctx context.Context, address string) (*sui.Balance, error)
}

// BalanceSyncWorker keeps wallet_balances in step with the chain.
type BalanceSyncWorker struct {
	DB       *gorm.DB
	Fetcher  BalanceFetcher
	Interval time.Duration
	now      func() time.Time
}

func NewBalanceSyncWorker(db *gorm.DB, fetcher BalanceFetcher, interval time.Duration) *BalanceSyncWorker {
	return &BalanceSyncWorker{DB: db, Fetcher: fetcher, Interval: interval, now: time.Now}
}

// Run polls until ctx is cancelled.
func (w *BalanceSyncWorker) Run(ctx context.Context) {
	log.WithField("interval", w.Interval.String()).Info("[BalanceSync] polling started")

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("[BalanceSync] polling stopped")
			return
		case <-ticker.C:
			synced, err := w.SyncOnce(ctx)
			if err != nil {
				log.WithError(err).Error("❌ [BalanceSync] sync failed")
				continue
			}
			log.WithField("wallets", synced).Debug("[BalanceSync] tick done")
		}
	}
}

// SyncOnce walks all users in id order and upserts one balance row per wallet.
// A failed chain read skips that wallet; the next tick retries it.
func (w *BalanceSyncWorker) SyncOnce(ctx context.Context) (int, error) {
	synced := 0
	lastID := ""
	for {
		var users []models.User
		if err := w.DB.WithContext(ctx).
			Where("id > ?", lastID).
			Order("id ASC").
			Limit(balanceSyncBatchSize).
			Find(&users).Error; err != nil {
			return synced, err
		}
		if len(users) == 0 {
			return synced, nil
		}
		lastID = users[len(users)-1].ID

		rows := make([]models.WalletBalance, 0, len(users))
		for _, u := range users {
			if ctx.Err() != nil {
				return synced, ctx.Err()
			}
			balance, err := w.Fetcher.GetBalance(ctx, u.WalletAddress)
			if err != nil {
				log.WithError(err).WithField("address", u.WalletAddress).Warn("[BalanceSync] balance read failed")
				continue
			}
			rows = append(rows, models.WalletBalance{
				ID:              uuid.NewString(),
				UserID:          u.ID,
				Address:         u.WalletAddress,
				CoinType:        balance.CoinType,
				TotalBalance:    balance.TotalBalance,
				CoinObjectCount: balance.CoinObjectCount,
				CheckedAt:       w.now().UTC(),
			})
		}
		if len(rows) > 0 {
			if err := w.DB.WithContext(ctx).Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "address"}, {Name: "coin_type"}},
				DoUpdates: clause.AssignmentColumns([]string{"total_balance", "coin_object_count", "checked_at"}),
			}).Create(&rows).Error; err != nil {
				return synced, err
			}
			synced += len(rows)
		}
		if len(users) < balanceSyncBatchSize {
			return synced, nil
		}
	}
}

// BalancesForUser returns the mirrored balances of one user.
func BalancesForUser(db *gorm.DB, userID string) ([]models.WalletBalance, error) {
	balances := []models.WalletBalance{}
	if err := db.Where("user_id = ?", userID).Order("coin_type ASC").Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}
