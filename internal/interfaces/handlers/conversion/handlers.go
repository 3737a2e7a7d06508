package conversion

import (
	"encoding/json"
	"strconv"
	"strings"

	convsvc "satfolio-backend/internal/application/conversion"
	"satfolio-backend/internal/middleware"
	"satfolio-backend/internal/pkg/response"
	"satfolio-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service *convsvc.Service
}

// Execute POST /api/v1/conversions/execute
func (h *Handlers) Execute(c *fiber.Ctx) error {
	var body struct {
		FromAsset string      `json:"from_asset"`
		ToAsset   string      `json:"to_asset"`
		Amount    json.Number `json:"amount"`
		Unit      string      `json:"unit"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", fiber.StatusBadRequest, nil)
	}
	if body.FromAsset == "" || body.ToAsset == "" || body.Amount == "" || body.Unit == "" {
		return response.Error(c, "Missing required fields", fiber.StatusBadRequest, nil)
	}

	userID := middleware.ActorUserID(c)
	if userID == uuid.Nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	amount, err := decimal.NewFromString(body.Amount.String())
	if err != nil {
		return response.Error(c, "Amount must be a number", fiber.StatusBadRequest, nil)
	}

	from := strings.ToUpper(body.FromAsset)
	to := strings.ToUpper(body.ToAsset)
	if !validation.IsValidSymbol(from) || !validation.IsValidSymbol(to) {
		return response.Error(c, "Invalid asset symbol", fiber.StatusBadRequest, nil)
	}

	result, err := h.Service.ExecuteConversion(c.Context(), userID,
		from, to, amount, strings.ToLower(body.Unit))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Conversion executed", result, nil)
}

// History GET /api/v1/conversions/history?limit=
func (h *Handlers) History(c *fiber.Ctx) error {
	userID := middleware.ActorUserID(c)
	if userID == uuid.Nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	records, err := h.Service.GetHistory(c.Context(), userID, limit)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Conversion history", records, fiber.Map{"count": len(records)})
}
