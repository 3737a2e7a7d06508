package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// AssetQuote is the cached current USD price for a symbol, upserted on every
// successful upstream fetch. RawPayload keeps the upstream response body for
// fetch diagnostics.
type AssetQuote struct {
	Symbol      string          `gorm:"column:symbol;type:varchar(16);primaryKey" json:"symbol"`
	PriceUSD    decimal.Decimal `gorm:"column:price_usd;type:decimal(20,8);not null" json:"price_usd"`
	LastUpdated time.Time       `gorm:"column:last_updated;not null" json:"last_updated"`
	Active      bool            `gorm:"column:active;not null;default:true" json:"active"`
	RawPayload  datatypes.JSON  `gorm:"column:raw_payload" json:"raw_payload,omitempty"`
}

func (AssetQuote) TableName() string {
	return "asset_quotes"
}
