package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/CeosTech/CoachTemplate-sub001/internal/models"
	"github.com/CeosTech/CoachTemplate-sub001/internal/services"
)

type availabilityApplicationService interface {
	ListRules(ctx context.Context, coachID int64) ([]models.AvailabilityRule, error)
	CreateRule(ctx context.Context, coachID int64, input services.RuleInput) (*models.AvailabilityRule, error)
	UpdateRule(ctx context.Context, coachID, ruleID int64, input services.RuleInput) (*models.AvailabilityRule, error)
	DeleteRule(ctx context.Context, coachID, ruleID int64) error
	ApplyRules(ctx context.Context, coachID int64, startDate time.Time, days int) (int, error)
	ListSlots(ctx context.Context, coachID int64) ([]models.AvailabilitySlot, error)
	CreateSlot(ctx context.Context, coachID int64, startAt, endAt time.Time) (*models.AvailabilitySlot, error)
	UpdateSlot(ctx context.Context, coachID, slotID int64, startAt, endAt time.Time) (*models.AvailabilitySlot, error)
	DeleteSlot(ctx context.Context, coachID, slotID int64) error
}

type coachResolver interface {
	GetByUserID(ctx context.Context, userID int64) (*models.CoachProfile, error)
}

type AvailabilityHandler struct {
	service availabilityApplicationService
	coaches coachResolver
}

func NewAvailabilityHandler(service *services.AvailabilityService, coaches coachResolver) *AvailabilityHandler {
	return &AvailabilityHandler{service: service, coaches: coaches}
}

// resolveCoach gates the availability surface to coach-role callers and
// resolves their profile. On failure the response is already written and
// ok is false; the caller must return without touching the service.
func (h *AvailabilityHandler) resolveCoach(c *fiber.Ctx) (int64, bool) {
	role, isString := c.Locals("role").(string)
	if !isString || role != "coach" {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		return 0, false
	}

	userID, err := parseAuthUserID(c)
	if err != nil {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		return 0, false
	}

	coach, err := h.coaches.GetByUserID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Coach profile not found"})
		} else {
			_ = mapServiceError(c, err)
		}
		return 0, false
	}
	return coach.ID, true
}

type ruleRequest struct {
	Weekday      int `json:"weekday"`
	StartMinutes int `json:"start_minutes"`
	EndMinutes   int `json:"end_minutes"`
}

func (h *AvailabilityHandler) ListRules(c *fiber.Ctx) error {
	coachID, ok := h.resolveCoach(c)
	if !ok {
		return nil
	}

	rules, err := h.service.ListRules(c.Context(), coachID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"rules": rules})
}

func (h *AvailabilityHandler) CreateRule(c *fiber.Ctx) error {
	coachID, ok := h.resolveCoach(c)
	if !ok {
		return nil
	}

	var req ruleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	rule, err := h.service.CreateRule(c.Context(), coachID, services.RuleInput{
		Weekday:      req.Weekday,
		StartMinutes: req.StartMinutes,
		EndMinutes:   req.EndMinutes,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"rule": rule})
}

func (h *AvailabilityHandler) UpdateRule(c *fiber.Ctx) error {
	coachID, ok := h.resolveCoach(c)
	if !ok {
		return nil
	}

	ruleID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid rule id"})
	}

	var req ruleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	rule, err := h.service.UpdateRule(c.Context(), coachID, ruleID, services.RuleInput{
		Weekday:      req.Weekday,
		StartMinutes: req.StartMinutes,
		EndMinutes:   req.EndMinutes,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"rule": rule})
}

func (h *AvailabilityHandler) DeleteRule(c *fiber.Ctx) error {
	coachID, ok := h.resolveCoach(c)
	if !ok {
		return nil
	}

	ruleID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid rule id"})
	}

	if err := h.service.DeleteRule(c.Context(), coachID, ruleID); err != nil {
		return mapServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type applyRulesRequest struct {
	StartDate string `json:"start_date"`
	Days      int    `json:"days"`
}

func (h *AvailabilityHandler) ApplyRules(c *fiber.Ctx) error {
	coachID, ok := h.resolveCoach(c)
	if !ok {
		return nil
	}

	var req applyRulesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	startDate, err := time.Parse("2006-01-02", strings.TrimSpace(req.StartDate))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_date must be a valid YYYY-MM-DD date"})
	}

	created, err := h.service.ApplyRules(c.Context(), coachID, startDate, req.Days)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"created": created})
}

type slotRequest struct {
	StartAt string `json:"start_at"`
	EndAt   string `json:"end_at"`
}

func parseSlotRange(req slotRequest) (time.Time, time.Time, error) {
	startAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartAt))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EndAt))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return startAt, endAt, nil
}

func (h *AvailabilityHandler) ListSlots(c *fiber.Ctx) error {
	coachID, ok := h.resolveCoach(c)
	if !ok {
		return nil
	}

	slots, err := h.service.ListSlots(c.Context(), coachID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"slots": slots})
}

func (h *AvailabilityHandler) CreateSlot(c *fiber.Ctx) error {
	coachID, ok := h.resolveCoach(c)
	if !ok {
		return nil
	}

	var req slotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	startAt, endAt, err := parseSlotRange(req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_at and end_at must be valid RFC3339 timestamps"})
	}

	slot, err := h.service.CreateSlot(c.Context(), coachID, startAt, endAt)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"slot": slot})
}

func (h *AvailabilityHandler) UpdateSlot(c *fiber.Ctx) error {
	coachID, ok := h.resolveCoach(c)
	if !ok {
		return nil
	}

	slotID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slot id"})
	}

	var req slotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	startAt, endAt, err := parseSlotRange(req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_at and end_at must be valid RFC3339 timestamps"})
	}

	slot, err := h.service.UpdateSlot(c.Context(), coachID, slotID, startAt, endAt)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"slot": slot})
}

func (h *AvailabilityHandler) DeleteSlot(c *fiber.Ctx) error {
	coachID, ok := h.resolveCoach(c)
	if !ok {
		return nil
	}

	slotID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slot id"})
	}

	if err := h.service.DeleteSlot(c.Context(), coachID, slotID); err != nil {
		return mapServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
