package portfolio

import (
	"strings"

	locksvc "satfolio-backend/internal/application/locks"
	portsvc "satfolio-backend/internal/application/portfolio"
	"satfolio-backend/internal/middleware"
	"satfolio-backend/internal/pkg/response"
	"satfolio-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *portsvc.Service
	Locks   *locksvc.Service
}

// Get GET /api/v1/portfolio
func (h *Handlers) Get(c *fiber.Ctx) error {
	userID := middleware.ActorUserID(c)
	if userID == uuid.Nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	snapshot, err := h.Service.GetPortfolio(c.Context(), userID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Portfolio", snapshot, nil)
}

// LockInfo GET /api/v1/portfolio/lock-info?asset=
func (h *Handlers) LockInfo(c *fiber.Ctx) error {
	userID := middleware.ActorUserID(c)
	if userID == uuid.Nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	asset := strings.ToUpper(c.Query("asset"))
	if !validation.IsValidSymbol(asset) {
		return response.Error(c, "asset is required", fiber.StatusBadRequest, nil)
	}

	info, err := h.Locks.GetLockInfo(c.Context(), userID, asset)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Lock info", info, nil)
}
