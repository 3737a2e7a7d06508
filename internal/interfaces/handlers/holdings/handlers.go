package holdings

import (
	holdsvc "satfolio-backend/internal/application/holdings"
	"satfolio-backend/internal/middleware"
	"satfolio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *holdsvc.Service
}

// View GET /api/v1/holdings
func (h *Handlers) View(c *fiber.Ctx) error {
	userID := middleware.ActorUserID(c)
	if userID == uuid.Nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	holdings, err := h.Service.ViewHoldings(c.Context(), userID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Holdings", holdings, fiber.Map{"count": len(holdings)})
}

// InitialGrant POST /api/v1/holdings/initial-grant — idempotent.
func (h *Handlers) InitialGrant(c *fiber.Ctx) error {
	userID := middleware.ActorUserID(c)
	if userID == uuid.Nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	holding, created, err := h.Service.GrantInitialBalance(c.Context(), userID)
	if err != nil {
		return response.FromError(c, err)
	}
	if created {
		return response.SuccessCreated(c, "Initial balance granted", holding, nil)
	}
	return response.Success(c, "Initial balance already granted", holding, nil)
}

// ListAssets GET /api/v1/assets
func (h *Handlers) ListAssets(c *fiber.Ctx) error {
	assets, err := h.Service.ListAssets(c.Context())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Assets", assets, fiber.Map{"count": len(assets)})
}
