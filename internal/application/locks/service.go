package locks

import (
	"context"
	"time"

	"satfolio-backend/internal/application/ledger"
	"satfolio-backend/internal/domain"
	"satfolio-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tri-state lock status for display.
const (
	StatusUnlocked = "unlocked"
	StatusPartial  = "partial"
	StatusLocked   = "locked"
)

// Service derives, from acquisition history, how much of a holding is
// currently time-locked vs. spendable.
type Service struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db, Now: time.Now}
}

// LockInfo is the lock/availability breakdown for one (user, asset).
type LockInfo struct {
	Asset            string     `json:"asset"`
	TotalAmount      int64      `json:"total_amount"`
	LockedAmount     int64      `json:"locked_amount"`
	AvailableAmount  int64      `json:"available_amount"`
	Status           string     `json:"status"`
	EarliestUnlockAt *time.Time `json:"earliest_unlock_at"`
	LatestUnlockAt   *time.Time `json:"latest_unlock_at"`
}

// GetLockInfo computes the locked amount as the sum of still-locked lots.
// The base unit is never locked; symbols outside the registry are NotFound.
// Uses the caller's transaction when one is passed via db, so the trade path
// sees consistent balances.
func (s *Service) GetLockInfo(ctx context.Context, userID uuid.UUID, asset string) (LockInfo, error) {
	return s.getLockInfo(ctx, s.DB, userID, asset)
}

// GetLockInfoTx is GetLockInfo bound to an open transaction.
func (s *Service) GetLockInfoTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, asset string) (LockInfo, error) {
	return s.getLockInfo(ctx, tx, userID, asset)
}

func (s *Service) getLockInfo(ctx context.Context, db *gorm.DB, userID uuid.UUID, asset string) (LockInfo, error) {
	var reg domain.Asset
	err := db.WithContext(ctx).Where("symbol = ? AND active = ?", asset, true).First(&reg).Error
	if err == gorm.ErrRecordNotFound {
		return LockInfo{}, apperr.Newf(apperr.NotFound, "Unknown asset %s", asset)
	}
	if err != nil {
		return LockInfo{}, err
	}

	info := LockInfo{Asset: asset, Status: StatusUnlocked}

	var holding domain.Holding
	err = db.WithContext(ctx).Where("user_id = ? AND asset = ?", userID, asset).First(&holding).Error
	if err == nil {
		info.TotalAmount = holding.Amount
	} else if err != gorm.ErrRecordNotFound {
		return LockInfo{}, err
	}

	if asset == domain.BaseSymbol {
		info.AvailableAmount = info.TotalAmount
		return info, nil
	}

	repo := &ledger.LotRepo{DB: db}
	locked, err := repo.Locked(ctx, userID, asset, s.Now())
	if err != nil {
		return LockInfo{}, err
	}

	info.LockedAmount = locked.LockedAmount
	info.EarliestUnlockAt = locked.EarliestUnlockAt
	info.LatestUnlockAt = locked.LatestUnlockAt
	info.AvailableAmount = info.TotalAmount - info.LockedAmount
	if info.AvailableAmount < 0 {
		info.AvailableAmount = 0
	}

	switch {
	case info.LockedAmount == 0:
		info.Status = StatusUnlocked
	case info.LockedAmount < info.TotalAmount:
		info.Status = StatusPartial
	default:
		info.Status = StatusLocked
	}
	return info, nil
}
