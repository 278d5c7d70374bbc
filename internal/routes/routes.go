package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CeosTech/CoachTemplate-sub001/internal/config"
	"github.com/CeosTech/CoachTemplate-sub001/internal/handlers"
	"github.com/CeosTech/CoachTemplate-sub001/internal/middleware"
	"github.com/CeosTech/CoachTemplate-sub001/internal/repository"
	"github.com/CeosTech/CoachTemplate-sub001/internal/services"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	ruleRepo := repository.NewAvailabilityRuleRepository(db)
	slotRepo := repository.NewAvailabilitySlotRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	packRepo := repository.NewPackRepository(db)
	coachProfileRepo := repository.NewCoachProfileRepository(db)
	memberProfileRepo := repository.NewMemberProfileRepository(db)

	var refundProvider services.RefundProvider
	if cfg.PaymentProviderURL != "" {
		refundProvider = services.NewHTTPRefundProvider(cfg.PaymentProviderURL)
	}
	bridge := services.NewPaymentBridge(refundProvider)

	availabilityService := services.NewAvailabilityService(ruleRepo, slotRepo)
	bookingService := services.NewBookingService(db, bookingRepo, coachProfileRepo, memberProfileRepo, bridge)
	packService := services.NewPackService(db, packRepo, memberProfileRepo)

	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService, coachProfileRepo)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	packHandler := handlers.NewPackHandler(packService)

	api := app.Group("/api")
	v1 := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	availability := v1.Group("/coach/availability")
	availability.Get("/rules", availabilityHandler.ListRules)
	availability.Post("/rules", availabilityHandler.CreateRule)
	availability.Put("/rules/:id", availabilityHandler.UpdateRule)
	availability.Delete("/rules/:id", availabilityHandler.DeleteRule)
	availability.Post("/rules/apply", availabilityHandler.ApplyRules)
	availability.Get("/slots", availabilityHandler.ListSlots)
	availability.Post("/slots", availabilityHandler.CreateSlot)
	availability.Put("/slots/:id", availabilityHandler.UpdateSlot)
	availability.Delete("/slots/:id", availabilityHandler.DeleteSlot)

	bookings := v1.Group("/bookings")
	bookings.Post("", bookingHandler.CreateBooking)
	bookings.Get("", bookingHandler.ListBookings)
	bookings.Get("/:id", bookingHandler.GetBooking)
	bookings.Put("/:id/status", bookingHandler.UpdateStatus)

	packs := v1.Group("/packs")
	packs.Get("", packHandler.ListPacks)

	payments := v1.Group("/payments")
	payments.Post("/:id/activate", packHandler.ActivatePayment)
}
