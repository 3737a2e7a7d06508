package portfolio

import (
	"context"

	"satfolio-backend/internal/application/ledger"
	"satfolio-backend/internal/application/locks"
	"satfolio-backend/internal/application/pricing"
	"satfolio-backend/internal/domain"
	"satfolio-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service reconstructs current value, cost basis and lock status per asset
// from raw holdings plus acquisition and conversion history.
type Service struct {
	DB      *gorm.DB
	Pricing *pricing.Service
	Locks   *locks.Service
	Lots    ledger.AcquisitionSource
	Legacy  ledger.AcquisitionSource
}

func NewService(db *gorm.DB, pricingSvc *pricing.Service, locksSvc *locks.Service) *Service {
	return &Service{
		DB:      db,
		Pricing: pricingSvc,
		Locks:   locksSvc,
		Lots:    &ledger.LotRepo{DB: db},
		Legacy:  &ledger.LegacyTradeRepo{DB: db},
	}
}

// HoldingView is one valued position.
type HoldingView struct {
	Asset             string          `json:"asset"`
	Amount            int64           `json:"amount"`
	ValueSubunits     int64           `json:"value_subunits"`
	CostBasisSubunits int64           `json:"cost_basis_subunits"`
	PriceUSD          decimal.Decimal `json:"price_usd"`
	PriceStale        bool            `json:"price_stale,omitempty"`
	Lock              locks.LockInfo  `json:"lock"`
}

// Portfolio is the full valued snapshot for one user.
type Portfolio struct {
	Holdings               []HoldingView   `json:"holdings"`
	TotalValueSubunits     int64           `json:"total_value_subunits"`
	TotalCostBasisSubunits int64           `json:"total_cost_basis_subunits"`
	BasePriceUSD           decimal.Decimal `json:"base_price_usd"`
}

// GetPortfolio values every holding through current USD prices, with
// weighted-average cost basis reconstruction from the acquisition ledger.
func (s *Service) GetPortfolio(ctx context.Context, userID uuid.UUID) (*Portfolio, error) {
	baseQuote, err := s.Pricing.Lookup(ctx, domain.BaseSymbol)
	if err != nil {
		return nil, err
	}

	var holdings []domain.Holding
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("asset ASC").
		Find(&holdings).Error; err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(holdings))
	for _, h := range holdings {
		if h.Asset != domain.BaseSymbol {
			symbols = append(symbols, h.Asset)
		}
	}
	quotes := s.Pricing.LookupMany(ctx, symbols)

	out := &Portfolio{
		Holdings:     make([]HoldingView, 0, len(holdings)),
		BasePriceUSD: baseQuote.PriceUSD,
	}

	for _, h := range holdings {
		view, err := s.valueHolding(ctx, userID, h, baseQuote, quotes)
		if err != nil {
			return nil, err
		}
		out.Holdings = append(out.Holdings, view)
		out.TotalValueSubunits += view.ValueSubunits
		out.TotalCostBasisSubunits += view.CostBasisSubunits
	}
	return out, nil
}

func (s *Service) valueHolding(ctx context.Context, userID uuid.UUID, h domain.Holding, baseQuote pricing.Quote, quotes map[string]pricing.Quote) (HoldingView, error) {
	lock, err := s.Locks.GetLockInfo(ctx, userID, h.Asset)
	if err != nil {
		return HoldingView{}, err
	}

	view := HoldingView{
		Asset:  h.Asset,
		Amount: h.Amount,
		Lock:   lock,
	}

	// The base unit is its own unit of account.
	if h.Asset == domain.BaseSymbol {
		view.ValueSubunits = h.Amount
		view.CostBasisSubunits = h.Amount
		view.PriceUSD = baseQuote.PriceUSD
		view.PriceStale = baseQuote.Stale
		return view, nil
	}

	quote, ok := quotes[h.Asset]
	if !ok {
		// Display path degrades: unpriced holding carries zero value, flagged.
		view.PriceStale = true
	} else {
		view.PriceUSD = quote.PriceUSD
		view.PriceStale = quote.Stale || baseQuote.Stale
		view.ValueSubunits = crossValue(h.Amount, quote.PriceUSD, baseQuote.PriceUSD)
	}

	basis, err := s.costBasis(ctx, userID, h.Asset, h.Amount)
	if err != nil {
		return HoldingView{}, err
	}
	view.CostBasisSubunits = basis
	return view, nil
}

// costBasis allocates total historical base-unit cost proportionally to the
// share of the asset still held (weighted average, not per-lot FIFO). Lot
// records are authoritative; legacy conversion totals apply only to assets
// with zero lots.
func (s *Service) costBasis(ctx context.Context, userID uuid.UUID, asset string, currentAmount int64) (int64, error) {
	totals, err := s.Lots.Totals(ctx, userID, asset)
	if err != nil {
		return 0, err
	}
	if totals.TotalAmount == 0 {
		totals, err = s.Legacy.Totals(ctx, userID, asset)
		if err != nil {
			return 0, err
		}
	}
	if totals.TotalAmount == 0 {
		return 0, nil
	}

	ratio := decimal.NewFromInt(currentAmount).Div(decimal.NewFromInt(totals.TotalAmount))
	basis := decimal.NewFromInt(totals.TotalBaseCost).Mul(ratio).Round(0)
	if !basis.BigInt().IsInt64() {
		return 0, apperr.Newf(apperr.Persistence, "cost basis overflow for %s", asset)
	}
	return basis.IntPart(), nil
}

// crossValue converts an asset quantity to base subunits through USD:
// amount × assetUSD ÷ baseUSD, both sides on the same 8-decimal scale.
func crossValue(amount int64, assetUSD, baseUSD decimal.Decimal) int64 {
	if baseUSD.Sign() <= 0 {
		return 0
	}
	v := decimal.NewFromInt(amount).Mul(assetUSD).Div(baseUSD).Round(0)
	if !v.BigInt().IsInt64() {
		return 0
	}
	return v.IntPart()
}
