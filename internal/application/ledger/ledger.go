// Package ledger normalizes the two historical acquisition shapes — explicit
// lot records and older undifferentiated conversion records — behind one
// read interface, so valuation sees a single shape.
package ledger

import (
	"context"
	"time"

	"satfolio-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AcquisitionTotals is the aggregate of everything a user ever acquired of
// one asset: total quantity in subunits and total base-unit cost paid.
type AcquisitionTotals struct {
	TotalAmount   int64 `gorm:"column:total_amount"`
	TotalBaseCost int64 `gorm:"column:total_base_cost"`
}

// AcquisitionSource reads acquisition history for one (user, asset) pair.
type AcquisitionSource interface {
	Totals(ctx context.Context, userID uuid.UUID, asset string) (AcquisitionTotals, error)
}

// LotRepo reads the lot-backed acquisition ledger.
type LotRepo struct {
	DB *gorm.DB
}

func (r *LotRepo) Totals(ctx context.Context, userID uuid.UUID, asset string) (AcquisitionTotals, error) {
	var row AcquisitionTotals
	err := r.DB.WithContext(ctx).
		Model(&domain.AcquisitionLot{}).
		Select("COALESCE(SUM(amount), 0) AS total_amount, COALESCE(SUM(base_cost), 0) AS total_base_cost").
		Where("user_id = ? AND asset = ?", userID, asset).
		Scan(&row).Error
	return row, err
}

// LockedTotals is the aggregate of still-locked lots for one (user, asset).
type LockedTotals struct {
	LockedAmount     int64      `gorm:"column:locked_amount"`
	EarliestUnlockAt *time.Time `gorm:"column:earliest_unlock_at"`
	LatestUnlockAt   *time.Time `gorm:"column:latest_unlock_at"`
}

// Locked sums lot amounts whose lock window is still open at the given instant.
func (r *LotRepo) Locked(ctx context.Context, userID uuid.UUID, asset string, at time.Time) (LockedTotals, error) {
	var row LockedTotals
	err := r.DB.WithContext(ctx).
		Model(&domain.AcquisitionLot{}).
		Select("COALESCE(SUM(amount), 0) AS locked_amount, MIN(locked_until) AS earliest_unlock_at, MAX(locked_until) AS latest_unlock_at").
		Where("user_id = ? AND asset = ? AND locked_until > ?", userID, asset, at).
		Scan(&row).Error
	return row, err
}

// LegacyTradeRepo derives acquisition totals from conversion records, for
// accounts whose history predates lot tracking. An acquisition is any
// conversion whose destination is the asset (its source is the base unit by
// the pairing invariant, so from_amount is the base cost).
type LegacyTradeRepo struct {
	DB *gorm.DB
}

func (r *LegacyTradeRepo) Totals(ctx context.Context, userID uuid.UUID, asset string) (AcquisitionTotals, error) {
	var row AcquisitionTotals
	err := r.DB.WithContext(ctx).
		Model(&domain.ConversionRecord{}).
		Select("COALESCE(SUM(to_amount), 0) AS total_amount, COALESCE(SUM(from_amount), 0) AS total_base_cost").
		Where("user_id = ? AND to_asset = ?", userID, asset).
		Scan(&row).Error
	return row, err
}

var (
	_ AcquisitionSource = (*LotRepo)(nil)
	_ AcquisitionSource = (*LegacyTradeRepo)(nil)
)
