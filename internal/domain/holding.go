package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Holding is a user's aggregate position in one asset, in integer subunits.
// At most one row per (user, asset); a zero balance is retained, never deleted.
type Holding struct {
	HoldingID uuid.UUID `gorm:"column:holding_id;type:uuid;primaryKey" json:"holding_id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_holdings_user_asset" json:"user_id"`
	Asset     string    `gorm:"column:asset;type:varchar(16);not null;uniqueIndex:idx_holdings_user_asset" json:"asset"`
	Amount    int64     `gorm:"column:amount;not null;default:0" json:"amount"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Holding) TableName() string {
	return "holdings"
}

// BeforeCreate: never insert zero UUID for primary key; generate random when not set.
func (h *Holding) BeforeCreate(tx *gorm.DB) error {
	if h.HoldingID == uuid.Nil {
		h.HoldingID = uuid.New()
	}
	return nil
}
