package conversion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	convsvc "satfolio-backend/internal/application/conversion"
	"satfolio-backend/internal/application/locks"
	"satfolio-backend/internal/application/pricing"
	"satfolio-backend/internal/domain"
	"satfolio-backend/internal/middleware"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type deadFetcher struct{}

func (deadFetcher) Fetch(ctx context.Context, asset domain.Asset) (decimal.Decimal, []byte, error) {
	return decimal.Zero, nil, errors.New("no upstream in tests")
}

func newTestApp(t *testing.T, userID uuid.UUID) (*fiber.App, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Asset{}, &domain.Holding{}, &domain.AcquisitionLot{},
		&domain.ConversionRecord{}, &domain.AssetQuote{},
	))
	require.NoError(t, db.Create(&[]domain.Asset{
		{Symbol: "BTC", Name: "Bitcoin", Class: domain.ClassBase, Active: true},
		{Symbol: "XAU", Name: "Gold", Class: domain.ClassCommodity, Active: true},
	}).Error)
	require.NoError(t, db.Create(&[]domain.AssetQuote{
		{Symbol: "BTC", PriceUSD: decimal.NewFromInt(100_000), LastUpdated: time.Now(), Active: true},
		{Symbol: "XAU", PriceUSD: decimal.NewFromInt(2_000), LastUpdated: time.Now(), Active: true},
	}).Error)

	svc := convsvc.NewService(db, pricing.NewService(db, deadFetcher{}), locks.NewService(db))
	h := &Handlers{Service: svc}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != uuid.Nil {
			c.Locals("user", map[string]interface{}{"user_id": userID.String()})
		}
		return c.Next()
	})
	grp := app.Group("/api/v1/conversions", middleware.RequireAuth())
	grp.Post("/execute", h.Execute)
	grp.Get("/history", h.History)
	return app, db
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestExecuteHandler_Success(t *testing.T) {
	user := uuid.New()
	app, db := newTestApp(t, user)
	require.NoError(t, db.Create(&domain.Holding{UserID: user, Asset: "BTC", Amount: 100_000_000}).Error)

	resp := postJSON(t, app, "/api/v1/conversions/execute", fiber.Map{
		"from_asset": "btc",
		"to_asset":   "xau",
		"amount":     0.5,
		"unit":       "BTC",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "success", body["status"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "BTC", data["from_asset"])
	assert.Equal(t, "XAU", data["to_asset"])
	assert.Equal(t, float64(50_000_000), data["from_amount"])
	assert.Equal(t, float64(2_500_000_000), data["to_amount"])
	assert.NotEmpty(t, data["locked_until"])
}

func TestExecuteHandler_MissingFields(t *testing.T) {
	app, _ := newTestApp(t, uuid.New())

	resp := postJSON(t, app, "/api/v1/conversions/execute", fiber.Map{
		"from_asset": "BTC",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestExecuteHandler_BadSymbol(t *testing.T) {
	app, _ := newTestApp(t, uuid.New())

	resp := postJSON(t, app, "/api/v1/conversions/execute", fiber.Map{
		"from_asset": "BTC",
		"to_asset":   "../etc",
		"amount":     "1",
		"unit":       "btc",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestExecuteHandler_NonNumericAmount(t *testing.T) {
	app, _ := newTestApp(t, uuid.New())

	resp := postJSON(t, app, "/api/v1/conversions/execute", map[string]string{
		"from_asset": "BTC",
		"to_asset":   "XAU",
		"amount":     "lots",
		"unit":       "btc",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestExecuteHandler_InsufficientBalanceConflict(t *testing.T) {
	user := uuid.New()
	app, db := newTestApp(t, user)
	require.NoError(t, db.Create(&domain.Holding{UserID: user, Asset: "BTC", Amount: 10_000}).Error)

	resp := postJSON(t, app, "/api/v1/conversions/execute", fiber.Map{
		"from_asset": "BTC",
		"to_asset":   "XAU",
		"amount":     1,
		"unit":       "btc",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	body := decodeBody(t, resp)
	errObj := body["error"].(map[string]interface{})
	details := errObj["details"].(map[string]interface{})
	assert.Equal(t, "INSUFFICIENT_BALANCE", details["code"])
}

func TestExecuteHandler_LockedBalanceConflict(t *testing.T) {
	user := uuid.New()
	app, db := newTestApp(t, user)
	require.NoError(t, db.Create(&domain.Holding{UserID: user, Asset: "BTC", Amount: 100_000_000}).Error)

	resp := postJSON(t, app, "/api/v1/conversions/execute", fiber.Map{
		"from_asset": "BTC", "to_asset": "XAU", "amount": 0.5, "unit": "btc",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = postJSON(t, app, "/api/v1/conversions/execute", fiber.Map{
		"from_asset": "XAU", "to_asset": "BTC", "amount": 25, "unit": "asset",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	body := decodeBody(t, resp)
	errObj := body["error"].(map[string]interface{})
	details := errObj["details"].(map[string]interface{})
	assert.Equal(t, "INSUFFICIENT_UNLOCKED_BALANCE", details["code"])
	assert.NotEmpty(t, details["earliest_unlock_at"])
}

func TestExecuteHandler_Unauthorized(t *testing.T) {
	app, _ := newTestApp(t, uuid.Nil)

	resp := postJSON(t, app, "/api/v1/conversions/execute", fiber.Map{
		"from_asset": "BTC", "to_asset": "XAU", "amount": 1, "unit": "btc",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHistoryHandler(t *testing.T) {
	user := uuid.New()
	app, db := newTestApp(t, user)
	require.NoError(t, db.Create(&domain.Holding{UserID: user, Asset: "BTC", Amount: 100_000_000}).Error)

	for i := 0; i < 2; i++ {
		resp := postJSON(t, app, "/api/v1/conversions/execute", fiber.Map{
			"from_asset": "BTC", "to_asset": "XAU", "amount": 0.1, "unit": "btc",
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	req := httptest.NewRequest("GET", "/api/v1/conversions/history?limit=1", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	records := body["data"].([]interface{})
	assert.Len(t, records, 1)
	meta := body["metadata"].(map[string]interface{})
	assert.Equal(t, float64(1), meta["count"])
}
