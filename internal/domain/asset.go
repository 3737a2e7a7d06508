package domain

import "time"

// BaseSymbol is the unit of account every conversion is measured against.
const BaseSymbol = "BTC"

// SubunitsPerBase is the fixed-point scale of all stored amounts
// (8 implied decimals, satoshis).
const SubunitsPerBase int64 = 100_000_000

// Asset classes route price fetches and sanity bands.
const (
	ClassBase      = "base"
	ClassCommodity = "commodity"
	ClassEquity    = "equity"
)

// Asset is one row of the tracked asset registry.
type Asset struct {
	Symbol    string    `gorm:"column:symbol;type:varchar(16);primaryKey" json:"symbol"`
	Name      string    `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Class     string    `gorm:"column:class;type:varchar(16);not null" json:"class"`
	Active    bool      `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Asset) TableName() string {
	return "assets"
}

// IsBase reports whether the asset is the unit of account.
func (a *Asset) IsBase() bool {
	return a.Symbol == BaseSymbol
}
