package conversion

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"satfolio-backend/internal/application/locks"
	"satfolio-backend/internal/application/pricing"
	"satfolio-backend/internal/domain"
	"satfolio-backend/internal/pkg/apperr"
	"satfolio-backend/internal/pkg/units"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maxTxRetries = 3

// Service validates and atomically executes conversions between the base
// unit and any other tracked asset, appending to the history that valuation
// later reconstructs from. Dependencies are injected, never ambient.
type Service struct {
	DB      *gorm.DB
	Pricing *pricing.Service
	Locks   *locks.Service
	Now     func() time.Time
}

func NewService(db *gorm.DB, pricingSvc *pricing.Service, locksSvc *locks.Service) *Service {
	return &Service{DB: db, Pricing: pricingSvc, Locks: locksSvc, Now: time.Now}
}

// Result reports one executed conversion.
type Result struct {
	RecordID      uuid.UUID       `json:"record_id"`
	FromAsset     string          `json:"from_asset"`
	ToAsset       string          `json:"to_asset"`
	FromAmount    int64           `json:"from_amount"`
	ToAmount      int64           `json:"to_amount"`
	BasePriceUSD  decimal.Decimal `json:"base_price_usd"`
	AssetPriceUSD decimal.Decimal `json:"asset_price_usd"`
	LockedUntil   *time.Time      `json:"locked_until,omitempty"`
	ExecutedAt    time.Time       `json:"executed_at"`
}

// ExecuteConversion converts amount (in the given unit) of fromAsset into
// toAsset at current USD prices. Exactly one side must be the base unit.
// All validation happens before any mutation; the mutation itself is a
// single serializable transaction.
func (s *Service) ExecuteConversion(ctx context.Context, userID uuid.UUID, fromAsset, toAsset string, amount decimal.Decimal, unit string) (*Result, error) {
	if fromAsset == toAsset {
		return nil, apperr.New(apperr.Validation, "Source and destination assets must differ")
	}
	if fromAsset != domain.BaseSymbol && toAsset != domain.BaseSymbol {
		return nil, apperr.Newf(apperr.Validation, "One side of a conversion must be %s", domain.BaseSymbol)
	}

	if _, err := s.lookupAsset(ctx, fromAsset); err != nil {
		return nil, err
	}
	if _, err := s.lookupAsset(ctx, toAsset); err != nil {
		return nil, err
	}

	fromAmount, err := units.ToSubunits(amount, unit)
	if err != nil {
		return nil, apperr.Newf(apperr.Validation, "Invalid amount: %v", err)
	}

	// A live trade needs fresh, valid prices for both legs; no stale fallback.
	fromPrice, err := s.Pricing.RequireFresh(ctx, fromAsset)
	if err != nil {
		return nil, err
	}
	toPrice, err := s.Pricing.RequireFresh(ctx, toAsset)
	if err != nil {
		return nil, err
	}

	// USD is always the intermediate unit: source → USD → destination.
	toAmountDec := decimal.NewFromInt(fromAmount).Mul(fromPrice).Div(toPrice).Round(0)
	if toAmountDec.Sign() <= 0 || !toAmountDec.BigInt().IsInt64() {
		return nil, apperr.New(apperr.Validation, "Converted amount is out of range")
	}
	toAmount := toAmountDec.IntPart()

	// Trade size bounds are denominated in base subunits: bound whichever
	// leg is the base unit, not the raw source amount.
	baseLeg := fromAmount
	if fromAsset != domain.BaseSymbol {
		baseLeg = toAmount
	}
	if err := units.CheckTradeBounds(baseLeg); err != nil {
		return nil, apperr.Newf(apperr.Validation, "Invalid amount: %v", err)
	}

	basePrice, assetPrice := fromPrice, toPrice
	if toAsset == domain.BaseSymbol {
		basePrice, assetPrice = toPrice, fromPrice
	}

	now := s.Now()
	result := &Result{
		FromAsset:     fromAsset,
		ToAsset:       toAsset,
		FromAmount:    fromAmount,
		ToAmount:      toAmount,
		BasePriceUSD:  basePrice,
		AssetPriceUSD: assetPrice,
		ExecutedAt:    now,
	}

	err = s.runSerializable(ctx, func(tx *gorm.DB) error {
		return s.mutate(ctx, tx, userID, result, now)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("from", fromAsset).Str("to", toAsset).
		Int64("from_amount", fromAmount).Int64("to_amount", toAmount).
		Str("record_id", result.RecordID.String()).
		Msg("conversion executed")
	return result, nil
}

// mutate is the five-part atomic step: decrement source, create lot when the
// destination is non-base, increment/create destination, append the record.
func (s *Service) mutate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, r *Result, now time.Time) error {
	var source domain.Holding
	err := tx.Where("user_id = ? AND asset = ?", userID, r.FromAsset).First(&source).Error
	if err == gorm.ErrRecordNotFound {
		return insufficientBalance(r.FromAsset, r.FromAmount, 0)
	}
	if err != nil {
		return err
	}

	if source.Amount < r.FromAmount {
		return insufficientBalance(r.FromAsset, r.FromAmount, source.Amount)
	}

	if r.FromAsset != domain.BaseSymbol {
		lock, err := s.Locks.GetLockInfoTx(ctx, tx, userID, r.FromAsset)
		if err != nil {
			return err
		}
		if lock.AvailableAmount < r.FromAmount {
			return apperr.Newf(apperr.InsufficientUnlockedBalance,
				"Insufficient unlocked %s: %d requested, %d unlocked", r.FromAsset, r.FromAmount, lock.AvailableAmount).
				WithDetails(map[string]interface{}{
					"asset":              r.FromAsset,
					"requested":          r.FromAmount,
					"available":          lock.AvailableAmount,
					"locked":             lock.LockedAmount,
					"earliest_unlock_at": lock.EarliestUnlockAt,
				})
		}
	}

	// Guarded decrement: a concurrent spend that raced past the read above
	// cannot drive the balance negative.
	res := tx.Model(&domain.Holding{}).
		Where("holding_id = ? AND amount >= ?", source.HoldingID, r.FromAmount).
		Update("amount", gorm.Expr("amount - ?", r.FromAmount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return insufficientBalance(r.FromAsset, r.FromAmount, source.Amount)
	}

	if r.ToAsset != domain.BaseSymbol {
		lockedUntil := now.Add(domain.LockWindow)
		lot := domain.AcquisitionLot{
			UserID:        userID,
			Asset:         r.ToAsset,
			Amount:        r.ToAmount,
			BaseCost:      r.FromAmount,
			AssetPriceUSD: r.AssetPriceUSD,
			BasePriceUSD:  r.BasePriceUSD,
			LockedUntil:   lockedUntil,
			CreatedAt:     now,
		}
		if err := tx.Create(&lot).Error; err != nil {
			return err
		}
		r.LockedUntil = &lockedUntil
	}

	if err := incrementHolding(tx, userID, r.ToAsset, r.ToAmount); err != nil {
		return err
	}

	record := domain.ConversionRecord{
		UserID:        userID,
		FromAsset:     r.FromAsset,
		ToAsset:       r.ToAsset,
		FromAmount:    r.FromAmount,
		ToAmount:      r.ToAmount,
		BasePriceUSD:  r.BasePriceUSD,
		AssetPriceUSD: r.AssetPriceUSD,
		CreatedAt:     now,
	}
	if err := tx.Create(&record).Error; err != nil {
		return err
	}
	r.RecordID = record.RecordID
	return nil
}

func incrementHolding(tx *gorm.DB, userID uuid.UUID, asset string, amount int64) error {
	var holding domain.Holding
	err := tx.Where("user_id = ? AND asset = ?", userID, asset).First(&holding).Error
	if err == gorm.ErrRecordNotFound {
		return tx.Create(&domain.Holding{UserID: userID, Asset: asset, Amount: amount}).Error
	}
	if err != nil {
		return err
	}
	return tx.Model(&domain.Holding{}).
		Where("holding_id = ?", holding.HoldingID).
		Update("amount", gorm.Expr("amount + ?", amount)).Error
}

func (s *Service) lookupAsset(ctx context.Context, symbol string) (domain.Asset, error) {
	var asset domain.Asset
	err := s.DB.WithContext(ctx).Where("symbol = ? AND active = ?", symbol, true).First(&asset).Error
	if err == gorm.ErrRecordNotFound {
		return domain.Asset{}, apperr.Newf(apperr.NotFound, "Unknown asset %s", symbol)
	}
	if err != nil {
		return domain.Asset{}, err
	}
	return asset, nil
}

// runSerializable executes fn in a serializable transaction, retrying a
// bounded number of times on serialization failures. Business-rule errors
// pass straight through; an exhausted retry surfaces as Persistence.
func (s *Service) runSerializable(ctx context.Context, fn func(tx *gorm.DB) error) error {
	// sqlite transactions are serializable already; only postgres needs the
	// explicit isolation level.
	var opts []*sql.TxOptions
	if s.DB.Dialector.Name() == "postgres" {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelSerializable})
	}

	var err error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(tx)
		}, opts...)
		if !isSerializationFailure(err) {
			break
		}
		log.Warn().Int("attempt", attempt+1).Msg("serialization conflict, retrying conversion")
	}
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Newf(apperr.Persistence, "Conversion could not be committed: %v", err)
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure / deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func insufficientBalance(asset string, requested, held int64) error {
	return apperr.Newf(apperr.InsufficientBalance,
		"Insufficient %s balance: %d requested, %d held", asset, requested, held).
		WithDetails(map[string]interface{}{
			"asset":     asset,
			"requested": requested,
			"held":      held,
		})
}
