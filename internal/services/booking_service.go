package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CeosTech/CoachTemplate-sub001/internal/models"
	"github.com/CeosTech/CoachTemplate-sub001/internal/repository"
)

// ProductFilterNone is the sentinel product filter selecting bookings
// that carry no pack at all.
const ProductFilterNone = "none"

type coachProfileStore interface {
	GetByID(ctx context.Context, id int64) (*models.CoachProfile, error)
	GetByUserID(ctx context.Context, userID int64) (*models.CoachProfile, error)
}

type bookingReader interface {
	GetByID(ctx context.Context, bookingID int64) (*models.Booking, error)
	List(ctx context.Context, filter repository.BookingListFilter) ([]models.BookingRow, error)
}

type bookingPaymentBridge interface {
	MarkPaid(ctx context.Context, db repository.DBTX, paymentID int64) error
	Refund(ctx context.Context, db repository.DBTX, paymentID int64, reason string) error
}

type BookingService struct {
	db       *pgxpool.Pool
	bookings bookingReader
	coaches  coachProfileStore
	members  memberProfileStore
	bridge   bookingPaymentBridge
}

func NewBookingService(
	db *pgxpool.Pool,
	bookings *repository.BookingRepository,
	coaches *repository.CoachProfileRepository,
	members *repository.MemberProfileRepository,
	bridge *PaymentBridge,
) *BookingService {
	return &BookingService{
		db:       db,
		bookings: bookings,
		coaches:  coaches,
		members:  members,
		bridge:   bridge,
	}
}

type CreateBookingInput struct {
	CoachID     int64
	StartAt     time.Time
	EndAt       time.Time
	PackID      *int64
	PaymentID   *int64
	MemberNotes *string
}

// CreateBooking admits a member's booking request. The availability
// check, the collision check, the payment-link checks and the pack
// resolution all happen inside one transaction serialized per coach by
// an advisory lock, so two concurrent requests for the same window
// cannot both pass. The booking lands PENDING; no credit is debited
// until the coach confirms.
func (s *BookingService) CreateBooking(
	ctx context.Context,
	memberUserID int64,
	input CreateBookingInput,
) (*models.Booking, error) {
	if input.CoachID <= 0 {
		return nil, ErrValidation
	}
	if !input.EndAt.After(input.StartAt) {
		return nil, ErrValidation
	}

	member, err := s.members.GetByUserID(ctx, memberUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	coach, err := s.coaches.GetByID(ctx, input.CoachID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	startAt := input.StartAt.UTC()
	endAt := input.EndAt.UTC()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", coach.ID); err != nil {
		return nil, err
	}

	txSlots := repository.NewAvailabilitySlotRepository(tx)
	txBookings := repository.NewBookingRepository(tx)
	txPayments := repository.NewPaymentRepository(tx)
	txPacks := repository.NewPackRepository(tx)

	covered, err := txSlots.HasCovering(ctx, coach.ID, startAt, endAt)
	if err != nil {
		return nil, err
	}
	if !covered {
		return nil, ErrSlotNotAvailable
	}

	overlaps, err := txBookings.HasOverlap(ctx, coach.ID, startAt, endAt, 0)
	if err != nil {
		return nil, err
	}
	if overlaps {
		return nil, ErrSlotConflict
	}

	if input.PaymentID != nil {
		payment, err := txPayments.GetByID(ctx, *input.PaymentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrPaymentInvalid
			}
			return nil, err
		}
		if payment.MemberID != member.ID {
			return nil, ErrPaymentInvalid
		}
		linked, err := txBookings.PaymentLinked(ctx, payment.ID, 0)
		if err != nil {
			return nil, err
		}
		if linked {
			return nil, ErrPaymentAlreadyLinked
		}
	}

	pack, err := resolveCreditPack(ctx, txPacks, member.ID, input.PackID)
	if err != nil {
		return nil, err
	}

	booking, err := txBookings.Create(ctx, repository.CreateBookingInput{
		CoachID:     coach.ID,
		MemberID:    member.ID,
		StartAt:     startAt,
		EndAt:       endAt,
		PaymentID:   input.PaymentID,
		PackID:      &pack.ID,
		MemberNotes: input.MemberNotes,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return booking, nil
}

// resolveCreditPack picks the pack that will fund the booking: the
// requested one when it is the member's, ACTIVE and funded, otherwise
// the member's oldest ACTIVE pack with credit left.
func resolveCreditPack(
	ctx context.Context,
	packs *repository.PackRepository,
	memberID int64,
	packID *int64,
) (*models.MemberPack, error) {
	if packID != nil {
		pack, err := packs.GetByIDForUpdate(ctx, *packID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if pack.MemberID != memberID {
			return nil, ErrNotFound
		}
		if pack.Status != models.PackActive || !pack.HasCredit() {
			return nil, ErrNoCreditsAvailable
		}
		return pack, nil
	}

	pack, err := packs.OldestActiveWithCredit(ctx, memberID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoCreditsAvailable
		}
		return nil, err
	}
	return pack, nil
}

type UpdateBookingStatusInput struct {
	Status     models.BookingStatus
	CoachNotes *string
}

// transitionEffects tells which side effects a status change fires.
// Debit happens only on entering CONFIRMED; credit-back and refund only
// on leaving CONFIRMED for REFUSED (refund also covers PENDING→REFUSED
// where the payment was never paid, handled idempotently by the bridge).
type transitionEffects struct {
	stampConfirmed bool
	stampCancelled bool
	debitPack      bool
	creditPack     bool
	markPaid       bool
	refund         bool
}

func effectsFor(current, next models.BookingStatus) transitionEffects {
	var fx transitionEffects
	switch {
	case next == models.BookingConfirmed && current != models.BookingConfirmed:
		fx.stampConfirmed = true
		fx.debitPack = true
		fx.markPaid = true
	case next == models.BookingRefused && current != models.BookingRefused:
		fx.stampCancelled = true
		fx.creditPack = current == models.BookingConfirmed
		fx.refund = true
	}
	return fx
}

// UpdateStatusByCoach applies a coach-driven status transition. The
// status write, the pack debit/credit and the payment bridge action are
// one atomic unit: any failure rolls everything back. An unchanged
// status with unchanged notes is a no-op and fires no side effects.
func (s *BookingService) UpdateStatusByCoach(
	ctx context.Context,
	coachUserID int64,
	bookingID int64,
	input UpdateBookingStatusInput,
) (*models.Booking, error) {
	if !input.Status.Valid() {
		return nil, ErrValidation
	}

	coach, err := s.coaches.GetByUserID(ctx, coachUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", coach.ID); err != nil {
		return nil, err
	}

	txBookings := repository.NewBookingRepository(tx)

	booking, err := txBookings.GetByIDForUpdate(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if booking.CoachID != coach.ID {
		return nil, ErrNotFound
	}

	notesChanged := input.CoachNotes != nil &&
		(booking.CoachNotes == nil || *booking.CoachNotes != *input.CoachNotes)
	if booking.Status == input.Status && !notesChanged {
		return booking, nil
	}

	fx := effectsFor(booking.Status, input.Status)
	now := time.Now().UTC()

	update := repository.UpdateBookingStatusInput{
		Status:     input.Status,
		CoachNotes: input.CoachNotes,
	}

	if fx.stampConfirmed {
		// Reopening a refused booking re-validates the window against
		// bookings admitted in the interim.
		if booking.Status == models.BookingRefused {
			overlaps, err := txBookings.HasOverlap(ctx, coach.ID, booking.StartAt, booking.EndAt, booking.ID)
			if err != nil {
				return nil, err
			}
			if overlaps {
				return nil, ErrSlotConflict
			}
		}
		update.ConfirmedAt = &now

		if fx.debitPack && booking.PackID != nil {
			if _, err := debitPack(ctx, tx, *booking.PackID); err != nil {
				return nil, err
			}
		}
		if fx.markPaid && booking.PaymentID != nil {
			if err := s.bridge.MarkPaid(ctx, tx, *booking.PaymentID); err != nil {
				return nil, err
			}
		}
	}

	if fx.stampCancelled {
		update.CancelledAt = &now

		if fx.creditPack && booking.PackID != nil {
			if _, err := creditPack(ctx, tx, *booking.PackID); err != nil {
				return nil, err
			}
		}
		if fx.refund && booking.PaymentID != nil {
			if err := s.bridge.Refund(ctx, tx, *booking.PaymentID, "booking refused by coach"); err != nil {
				return nil, err
			}
		}
	}

	updated, err := txBookings.UpdateStatus(ctx, bookingID, update)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return updated, nil
}

type ListBookingsInput struct {
	Status  string
	Product string
}

// ListBookings returns the actor's bookings ordered by start time,
// annotated with the calendar projection for their perspective.
func (s *BookingService) ListBookings(
	ctx context.Context,
	actorUserID int64,
	role string,
	input ListBookingsInput,
) ([]models.BookingDetail, error) {
	profileID, err := s.resolveProfileID(ctx, actorUserID, role)
	if err != nil {
		return nil, err
	}

	filter := repository.BookingListFilter{
		ActorID: profileID,
		Role:    role,
	}

	if status := strings.ToUpper(strings.TrimSpace(input.Status)); status != "" {
		if !models.BookingStatus(status).Valid() {
			return nil, ErrValidation
		}
		filter.Status = status
	}

	switch product := strings.TrimSpace(input.Product); product {
	case "":
	case ProductFilterNone:
		filter.WithoutPack = true
	default:
		productID, err := strconv.ParseInt(product, 10, 64)
		if err != nil || productID <= 0 {
			return nil, ErrValidation
		}
		filter.ProductID = &productID
	}

	rows, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	details := make([]models.BookingDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, models.BookingDetail{
			BookingRow: row,
			Calendar:   buildCalendarEntry(row, role),
		})
	}
	return details, nil
}

func (s *BookingService) GetBooking(
	ctx context.Context,
	actorUserID int64,
	role string,
	bookingID int64,
) (*models.Booking, error) {
	profileID, err := s.resolveProfileID(ctx, actorUserID, role)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	owned := booking.MemberID == profileID
	if role == "coach" {
		owned = booking.CoachID == profileID
	}
	if !owned {
		return nil, ErrNotFound
	}
	return booking, nil
}

func (s *BookingService) resolveProfileID(ctx context.Context, userID int64, role string) (int64, error) {
	if role == "coach" {
		coach, err := s.coaches.GetByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, ErrNotFound
			}
			return 0, err
		}
		return coach.ID, nil
	}

	member, err := s.members.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return member.ID, nil
}
