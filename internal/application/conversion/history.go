package conversion

import (
	"context"

	"satfolio-backend/internal/domain"

	"github.com/google/uuid"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// GetHistory returns the user's conversion records, newest first.
func (s *Service) GetHistory(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ConversionRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records := make([]domain.ConversionRecord, 0, limit)
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
