package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/identity-service/internal/api/dto"
	"github.com/spec-kit/identity-service/internal/service"
)

// AdminHandler exposes account suspension actions.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// Suspend handles POST /admin/users/:id/suspend.
func (h *AdminHandler) Suspend(c *fiber.Ctx) error {
	userID := c.Params("id")
	if userID == "" {
		return fiber.NewError(http.StatusBadRequest, "user id required")
	}

	var req dto.SuspendRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.admin.Suspend(c.Context(), userID, req.Until); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "suspended"}})
}

// Unsuspend handles POST /admin/users/:id/unsuspend.
func (h *AdminHandler) Unsuspend(c *fiber.Ctx) error {
	userID := c.Params("id")
	if userID == "" {
		return fiber.NewError(http.StatusBadRequest, "user id required")
	}

	if err := h.admin.Unsuspend(c.Context(), userID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "unsuspended"}})
}
