package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ConversionRecord is the append-only history of one executed trade.
// Exactly one of FromAsset/ToAsset is the base unit; prices are copied in
// at execution time, never referenced live.
type ConversionRecord struct {
	RecordID      uuid.UUID       `gorm:"column:record_id;type:uuid;primaryKey" json:"record_id"`
	UserID        uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	FromAsset     string          `gorm:"column:from_asset;type:varchar(16);not null" json:"from_asset"`
	ToAsset       string          `gorm:"column:to_asset;type:varchar(16);not null" json:"to_asset"`
	FromAmount    int64           `gorm:"column:from_amount;not null" json:"from_amount"`
	ToAmount      int64           `gorm:"column:to_amount;not null" json:"to_amount"`
	BasePriceUSD  decimal.Decimal `gorm:"column:base_price_usd;type:decimal(20,8);not null" json:"base_price_usd"`
	AssetPriceUSD decimal.Decimal `gorm:"column:asset_price_usd;type:decimal(20,8);not null" json:"asset_price_usd"`
	CreatedAt     time.Time       `gorm:"column:created_at;index" json:"created_at"`
}

func (ConversionRecord) TableName() string {
	return "conversion_records"
}

func (r *ConversionRecord) BeforeCreate(tx *gorm.DB) error {
	if r.RecordID == uuid.Nil {
		r.RecordID = uuid.New()
	}
	return nil
}
