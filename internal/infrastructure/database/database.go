package database

import (
	"satfolio-backend/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Open opens a GORM DB from DSN (Postgres pooler URL).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") when using connection poolers (e.g. PgBouncer, Supabase, Render).
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
}

// AutoMigrate runs migrations for the ledger models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Asset{},
		&domain.Holding{},
		&domain.AcquisitionLot{},
		&domain.ConversionRecord{},
		&domain.AssetQuote{},
	)
}

// SeedAssets inserts the tracked asset registry, skipping symbols already present.
func SeedAssets(db *gorm.DB) error {
	assets := []domain.Asset{
		{Symbol: domain.BaseSymbol, Name: "Bitcoin", Class: domain.ClassBase, Active: true},
		{Symbol: "XAU", Name: "Gold (troy ounce)", Class: domain.ClassCommodity, Active: true},
		{Symbol: "XAG", Name: "Silver (troy ounce)", Class: domain.ClassCommodity, Active: true},
		{Symbol: "SPY", Name: "SPDR S&P 500 ETF", Class: domain.ClassEquity, Active: true},
		{Symbol: "QQQ", Name: "Invesco QQQ Trust", Class: domain.ClassEquity, Active: true},
		{Symbol: "AAPL", Name: "Apple Inc.", Class: domain.ClassEquity, Active: true},
		{Symbol: "TSLA", Name: "Tesla, Inc.", Class: domain.ClassEquity, Active: true},
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&assets).Error
}
