package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/CeosTech/CoachTemplate-sub001/internal/models"
	"github.com/CeosTech/CoachTemplate-sub001/internal/services"
)

type packApplicationService interface {
	ListPacks(ctx context.Context, memberUserID int64) ([]models.MemberPack, error)
	ActivateFromPayment(ctx context.Context, paymentID int64) (*models.MemberPack, error)
}

type PackHandler struct {
	service packApplicationService
}

func NewPackHandler(service *services.PackService) *PackHandler {
	return &PackHandler{service: service}
}

func (h *PackHandler) ListPacks(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "member" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	packs, err := h.service.ListPacks(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"packs": packs})
}

// ActivatePayment is the callback the payment collaborator hits once a
// checkout settles: it turns the PAID payment into a member pack.
// Activation is idempotent, so retries are safe.
func (h *PackHandler) ActivatePayment(c *fiber.Ctx) error {
	if _, err := parseAuthUserID(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	paymentID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment id"})
	}

	pack, err := h.service.ActivateFromPayment(c.Context(), paymentID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"pack": pack})
}
