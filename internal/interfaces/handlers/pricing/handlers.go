package pricing

import (
	"strings"

	pricesvc "satfolio-backend/internal/application/pricing"
	"satfolio-backend/internal/pkg/response"
	"satfolio-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *pricesvc.Service
}

// GetPrice GET /api/v1/prices/:symbol
func (h *Handlers) GetPrice(c *fiber.Ctx) error {
	symbol := strings.ToUpper(c.Params("symbol"))
	if !validation.IsValidSymbol(symbol) {
		return response.Error(c, "Invalid symbol", fiber.StatusBadRequest, nil)
	}

	quote, err := h.Service.Lookup(c.Context(), symbol)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Price", quote, nil)
}

// GetPrices GET /api/v1/prices?symbols=BTC,XAU — partial results allowed.
func (h *Handlers) GetPrices(c *fiber.Ctx) error {
	raw := c.Query("symbols")
	if raw == "" {
		return response.Error(c, "symbols is required", fiber.StatusBadRequest, nil)
	}

	symbols := []string{}
	for _, s := range strings.Split(raw, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if validation.IsValidSymbol(s) {
			symbols = append(symbols, s)
		}
	}

	quotes := h.Service.LookupMany(c.Context(), symbols)
	return response.Success(c, "Prices", quotes, fiber.Map{
		"requested": len(symbols),
		"resolved":  len(quotes),
	})
}
