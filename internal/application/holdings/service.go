package holdings

import (
	"context"

	"satfolio-backend/internal/domain"
	"satfolio-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Service encapsulates raw holdings views and the one-time base-unit grant.
type Service struct {
	DB *gorm.DB

	// GrantSubunits is the starting base-unit balance (config, default 1 BTC).
	GrantSubunits int64
}

// ViewHoldings returns the user's holdings rows, base unit first.
func (s *Service) ViewHoldings(ctx context.Context, userID uuid.UUID) ([]domain.Holding, error) {
	holdings := []domain.Holding{}
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("asset ASC").
		Find(&holdings).Error
	if err != nil {
		return nil, err
	}
	// Base unit leads the list regardless of symbol sort.
	for i, h := range holdings {
		if h.Asset == domain.BaseSymbol && i > 0 {
			holdings[0], holdings[i] = holdings[i], holdings[0]
			break
		}
	}
	return holdings, nil
}

// GrantInitialBalance creates the base-unit holding with the starting
// balance, exactly once per user. A repeat call is a no-op returning the
// existing holding (created = false).
func (s *Service) GrantInitialBalance(ctx context.Context, userID uuid.UUID) (*domain.Holding, bool, error) {
	var holding domain.Holding
	created := false

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND asset = ?", userID, domain.BaseSymbol).First(&holding).Error
		if err == nil {
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		holding = domain.Holding{
			UserID: userID,
			Asset:  domain.BaseSymbol,
			Amount: s.GrantSubunits,
		}
		if err := tx.Create(&holding).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, apperr.Newf(apperr.Persistence, "Initial grant failed: %v", err)
	}

	if created {
		log.Info().Str("user_id", userID.String()).Int64("subunits", s.GrantSubunits).Msg("initial balance granted")
	}
	return &holding, created, nil
}

// ListAssets returns the active tracked asset registry.
func (s *Service) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	assets := []domain.Asset{}
	err := s.DB.WithContext(ctx).
		Where("active = ?", true).
		Order("class ASC, symbol ASC").
		Find(&assets).Error
	if err != nil {
		return nil, err
	}
	return assets, nil
}
