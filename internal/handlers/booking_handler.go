package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/CeosTech/CoachTemplate-sub001/internal/models"
	"github.com/CeosTech/CoachTemplate-sub001/internal/services"
)

type bookingApplicationService interface {
	CreateBooking(ctx context.Context, memberUserID int64, input services.CreateBookingInput) (*models.Booking, error)
	UpdateStatusByCoach(ctx context.Context, coachUserID, bookingID int64, input services.UpdateBookingStatusInput) (*models.Booking, error)
	ListBookings(ctx context.Context, actorUserID int64, role string, input services.ListBookingsInput) ([]models.BookingDetail, error)
	GetBooking(ctx context.Context, actorUserID int64, role string, bookingID int64) (*models.Booking, error)
}

type BookingHandler struct {
	service bookingApplicationService
}

func NewBookingHandler(service *services.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

type createBookingRequest struct {
	CoachID     int64   `json:"coach_id"`
	StartAt     string  `json:"start_at"`
	EndAt       string  `json:"end_at"`
	PackID      *int64  `json:"pack_id"`
	PaymentID   *int64  `json:"payment_id"`
	MemberNotes *string `json:"member_notes"`
}

type updateBookingStatusRequest struct {
	Status     string  `json:"status"`
	CoachNotes *string `json:"coach_notes"`
}

func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "member" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	startAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartAt))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_at must be a valid RFC3339 timestamp"})
	}
	endAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EndAt))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end_at must be a valid RFC3339 timestamp"})
	}

	booking, err := h.service.CreateBooking(c.Context(), userID, services.CreateBookingInput{
		CoachID:     req.CoachID,
		StartAt:     startAt,
		EndAt:       endAt,
		PackID:      req.PackID,
		PaymentID:   req.PaymentID,
		MemberNotes: req.MemberNotes,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"booking": booking})
}

func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || (role != "member" && role != "coach") {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	bookings, err := h.service.ListBookings(c.Context(), userID, role, services.ListBookingsInput{
		Status:  c.Query("status"),
		Product: c.Query("product"),
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"bookings": bookings})
}

func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || (role != "member" && role != "coach") {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	booking, err := h.service.GetBooking(c.Context(), userID, role, bookingID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"booking": booking})
}

func (h *BookingHandler) UpdateStatus(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "coach" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req updateBookingStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	status := models.BookingStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	booking, err := h.service.UpdateStatusByCoach(c.Context(), userID, bookingID, services.UpdateBookingStatusInput{
		Status:     status,
		CoachNotes: req.CoachNotes,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"booking": booking})
}
