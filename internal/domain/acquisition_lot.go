package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LockWindow is how long a freshly acquired non-base asset stays
// unconvertible back to the base unit.
const LockWindow = 24 * time.Hour

// AcquisitionLot is one discrete non-base acquisition, the unit of
// time-locking. Immutable after creation; LockedUntil = CreatedAt + LockWindow.
type AcquisitionLot struct {
	LotID         uuid.UUID       `gorm:"column:lot_id;type:uuid;primaryKey" json:"lot_id"`
	UserID        uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index:idx_lots_user_asset" json:"user_id"`
	Asset         string          `gorm:"column:asset;type:varchar(16);not null;index:idx_lots_user_asset" json:"asset"`
	Amount        int64           `gorm:"column:amount;not null" json:"amount"`
	BaseCost      int64           `gorm:"column:base_cost;not null" json:"base_cost"`
	AssetPriceUSD decimal.Decimal `gorm:"column:asset_price_usd;type:decimal(20,8);not null" json:"asset_price_usd"`
	BasePriceUSD  decimal.Decimal `gorm:"column:base_price_usd;type:decimal(20,8);not null" json:"base_price_usd"`
	LockedUntil   time.Time       `gorm:"column:locked_until;not null;index" json:"locked_until"`
	CreatedAt     time.Time       `gorm:"column:created_at" json:"created_at"`
}

func (AcquisitionLot) TableName() string {
	return "acquisition_lots"
}

func (l *AcquisitionLot) BeforeCreate(tx *gorm.DB) error {
	if l.LotID == uuid.Nil {
		l.LotID = uuid.New()
	}
	return nil
}
