package pricing

import (
	"context"
	"time"

	"satfolio-backend/internal/domain"
	"satfolio-backend/internal/pkg/apperr"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FreshnessWindow bounds how old a cached quote may be before a new upstream
// fetch is attempted.
const FreshnessWindow = 5 * time.Minute

// FetchTimeout bounds one upstream fetch; a timed-out symbol is unresolved
// for that call.
const FetchTimeout = 10 * time.Second

// fetchSpacing is the minimum spacing between outbound fetches, shared
// process-wide to respect third-party rate limits.
const fetchSpacing = 2 * time.Second

// Fetcher retrieves a current USD price for one asset from the source
// appropriate to its class. Returns the price and the raw upstream payload.
type Fetcher interface {
	Fetch(ctx context.Context, asset domain.Asset) (decimal.Decimal, []byte, error)
}

// Service resolves current USD prices, combining the asset_quotes cache with
// rate-limited upstream fetches.
type Service struct {
	DB      *gorm.DB
	Fetcher Fetcher

	limiter *rate.Limiter
	now     func() time.Time
}

// NewService wires the resolver with the shared fetch throttle.
func NewService(db *gorm.DB, fetcher Fetcher) *Service {
	return &Service{
		DB:      db,
		Fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Every(fetchSpacing), 1),
		now:     time.Now,
	}
}

// Quote is one resolved price.
type Quote struct {
	Symbol   string          `json:"symbol"`
	PriceUSD decimal.Decimal `json:"price_usd"`
	AsOf     time.Time       `json:"as_of"`
	Stale    bool            `json:"stale,omitempty"`
}

// RequireFresh resolves a price suitable for trade execution: cache within
// the freshness window or a successful validated fetch. No stale fallback.
func (s *Service) RequireFresh(ctx context.Context, symbol string) (decimal.Decimal, error) {
	asset, err := s.lookupAsset(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}

	if q, ok := s.cached(ctx, asset.Symbol); ok {
		return q.PriceUSD, nil
	}

	q, err := s.fetchAndCache(ctx, asset)
	if err != nil {
		return decimal.Zero, apperr.Newf(apperr.PriceUnavailable, "No current price available for %s", symbol).
			WithDetails(map[string]interface{}{"symbol": symbol})
	}
	return q.PriceUSD, nil
}

// Lookup resolves a price for display: fresh cache, then fetch, then any
// cached quote regardless of age (marked stale).
func (s *Service) Lookup(ctx context.Context, symbol string) (Quote, error) {
	asset, err := s.lookupAsset(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}

	if q, ok := s.cached(ctx, asset.Symbol); ok {
		return q, nil
	}

	q, err := s.fetchAndCache(ctx, asset)
	if err == nil {
		return q, nil
	}

	var row domain.AssetQuote
	if dbErr := s.DB.WithContext(ctx).Where("symbol = ?", asset.Symbol).First(&row).Error; dbErr == nil {
		return Quote{Symbol: row.Symbol, PriceUSD: row.PriceUSD, AsOf: row.LastUpdated, Stale: true}, nil
	}

	return Quote{}, apperr.Newf(apperr.PriceUnavailable, "No current price available for %s", symbol).
		WithDetails(map[string]interface{}{"symbol": symbol})
}

// LookupMany resolves prices for several symbols; one symbol's failure never
// blocks the others. The result omits unresolved symbols.
func (s *Service) LookupMany(ctx context.Context, symbols []string) map[string]Quote {
	out := make(map[string]Quote, len(symbols))
	for _, sym := range symbols {
		q, err := s.Lookup(ctx, sym)
		if err != nil {
			log.Warn().Str("symbol", sym).Err(err).Msg("price unresolved")
			continue
		}
		out[sym] = q
	}
	return out
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

func (s *Service) cached(ctx context.Context, symbol string) (Quote, bool) {
	var row domain.AssetQuote
	err := s.DB.WithContext(ctx).Where("symbol = ? AND active = ?", symbol, true).First(&row).Error
	if err != nil {
		return Quote{}, false
	}
	if s.now().Sub(row.LastUpdated) > FreshnessWindow {
		return Quote{}, false
	}
	return Quote{Symbol: row.Symbol, PriceUSD: row.PriceUSD, AsOf: row.LastUpdated}, true
}

func (s *Service) fetchAndCache(ctx context.Context, asset domain.Asset) (Quote, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()

	// Global gate: concurrent resolvers serialize against the shared spacing
	// limiter, not against each other's cache reads.
	if err := s.limiter.Wait(fetchCtx); err != nil {
		return Quote{}, err
	}

	price, raw, err := s.Fetcher.Fetch(fetchCtx, asset)
	if err != nil {
		log.Warn().Str("symbol", asset.Symbol).Err(err).Msg("upstream quote fetch failed")
		return Quote{}, err
	}
	if err := validatePrice(asset.Class, price); err != nil {
		log.Warn().Str("symbol", asset.Symbol).Str("price", price.String()).Err(err).Msg("rejected upstream quote")
		return Quote{}, err
	}

	row := domain.AssetQuote{
		Symbol:      asset.Symbol,
		PriceUSD:    price,
		LastUpdated: s.now(),
		Active:      true,
		RawPayload:  raw,
	}
	// Last write wins; concurrent fetches for the same symbol are safe.
	if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		UpdateAll: true,
	}).Create(&row).Error; err != nil {
		return Quote{}, err
	}

	return Quote{Symbol: row.Symbol, PriceUSD: row.PriceUSD, AsOf: row.LastUpdated}, nil
}
