package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CeosTech/CoachTemplate-sub001/internal/models"
)

type CreateBookingInput struct {
	CoachID     int64
	MemberID    int64
	StartAt     time.Time
	EndAt       time.Time
	PaymentID   *int64
	PackID      *int64
	MemberNotes *string
}

// BookingListFilter scopes a listing to one side of the booking and
// optionally narrows by status and by the pack's product. WithoutPack
// selects bookings that carry no pack at all.
type BookingListFilter struct {
	ActorID     int64
	Role        string
	Status      string
	ProductID   *int64
	WithoutPack bool
}

type UpdateBookingStatusInput struct {
	Status      models.BookingStatus
	CoachNotes  *string
	ConfirmedAt *time.Time
	CancelledAt *time.Time
}

const bookingColumns = `id, coach_id, member_id, start_at, end_at, status, payment_id, pack_id,
	member_notes, coach_notes, confirmed_at, cancelled_at, created_at, updated_at`

type BookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

func scanBooking(row interface{ Scan(dest ...any) error }) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID,
		&b.CoachID,
		&b.MemberID,
		&b.StartAt,
		&b.EndAt,
		&b.Status,
		&b.PaymentID,
		&b.PackID,
		&b.MemberNotes,
		&b.CoachNotes,
		&b.ConfirmedAt,
		&b.CancelledAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) Create(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	query := fmt.Sprintf(`
		INSERT INTO bookings (coach_id, member_id, start_at, end_at, status, payment_id, pack_id, member_notes)
		VALUES ($1, $2, $3, $4, 'PENDING', $5, $6, $7)
		RETURNING %s
	`, bookingColumns)

	return scanBooking(r.db.QueryRow(
		ctx,
		query,
		input.CoachID,
		input.MemberID,
		input.StartAt,
		input.EndAt,
		input.PaymentID,
		input.PackID,
		input.MemberNotes,
	))
}

func (r *BookingRepository) GetByID(ctx context.Context, bookingID int64) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)
	return scanBooking(r.db.QueryRow(ctx, query, bookingID))
}

func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, bookingID int64) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1 FOR UPDATE`, bookingColumns)
	return scanBooking(r.db.QueryRow(ctx, query, bookingID))
}

// HasOverlap reports whether any PENDING or CONFIRMED booking for the
// coach strictly overlaps [startAt, endAt). excludedBookingID may be 0.
func (r *BookingRepository) HasOverlap(
	ctx context.Context,
	coachID int64,
	startAt time.Time,
	endAt time.Time,
	excludedBookingID int64,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM bookings
			WHERE coach_id = $1
			  AND id <> $4
			  AND status IN ('PENDING', 'CONFIRMED')
			  AND start_at < $3
			  AND end_at > $2
		)
	`
	var overlaps bool
	if err := r.db.QueryRow(ctx, query, coachID, startAt, endAt, excludedBookingID).Scan(&overlaps); err != nil {
		return false, err
	}
	return overlaps, nil
}

// PaymentLinked reports whether the payment already funds another
// booking. At most one booking may reference a payment.
func (r *BookingRepository) PaymentLinked(
	ctx context.Context,
	paymentID int64,
	excludedBookingID int64,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings WHERE payment_id = $1 AND id <> $2
		)
	`
	var linked bool
	if err := r.db.QueryRow(ctx, query, paymentID, excludedBookingID).Scan(&linked); err != nil {
		return false, err
	}
	return linked, nil
}

func (r *BookingRepository) UpdateStatus(
	ctx context.Context,
	bookingID int64,
	input UpdateBookingStatusInput,
) (*models.Booking, error) {
	// The stamps describe the current status: moving away from
	// CONFIRMED or REFUSED clears the now-stale timestamp, so a
	// reopened booking does not carry both.
	query := fmt.Sprintf(`
		UPDATE bookings
		SET status = $2,
			coach_notes = COALESCE($3, coach_notes),
			confirmed_at = CASE WHEN $2 = 'CONFIRMED' THEN COALESCE($4, confirmed_at) ELSE NULL END,
			cancelled_at = CASE WHEN $2 = 'REFUSED' THEN COALESCE($5, cancelled_at) ELSE NULL END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, bookingColumns)

	return scanBooking(r.db.QueryRow(
		ctx,
		query,
		bookingID,
		input.Status,
		input.CoachNotes,
		input.ConfirmedAt,
		input.CancelledAt,
	))
}

// List returns bookings for one actor, joined with the display names
// the calendar projection needs, ordered by start time ascending.
func (r *BookingRepository) List(
	ctx context.Context,
	filter BookingListFilter,
) ([]models.BookingRow, error) {
	actorColumn := "b.member_id"
	if filter.Role == "coach" {
		actorColumn = "b.coach_id"
	}

	args := []any{filter.ActorID}
	whereParts := []string{fmt.Sprintf("%s = $1", actorColumn)}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("b.status = $%d", len(args)))
	}
	if filter.WithoutPack {
		whereParts = append(whereParts, "b.pack_id IS NULL")
	} else if filter.ProductID != nil {
		args = append(args, *filter.ProductID)
		whereParts = append(whereParts, fmt.Sprintf("pk.product_id = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT b.id, b.coach_id, b.member_id, b.start_at, b.end_at, b.status, b.payment_id, b.pack_id,
			b.member_notes, b.coach_notes, b.confirmed_at, b.cancelled_at, b.created_at, b.updated_at,
			COALESCE(mp.full_name, ''), COALESCE(cp.full_name, ''), pr.name
		FROM bookings b
		JOIN member_profiles mp ON mp.id = b.member_id
		JOIN coach_profiles cp ON cp.id = b.coach_id
		LEFT JOIN member_packs pk ON pk.id = b.pack_id
		LEFT JOIN products pr ON pr.id = pk.product_id
		WHERE %s
		ORDER BY b.start_at ASC, b.id ASC
	`, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]models.BookingRow, 0)
	for rows.Next() {
		var row models.BookingRow
		if err := rows.Scan(
			&row.ID,
			&row.CoachID,
			&row.MemberID,
			&row.StartAt,
			&row.EndAt,
			&row.Status,
			&row.PaymentID,
			&row.PackID,
			&row.MemberNotes,
			&row.CoachNotes,
			&row.ConfirmedAt,
			&row.CancelledAt,
			&row.CreatedAt,
			&row.UpdatedAt,
			&row.MemberName,
			&row.CoachName,
			&row.ProductName,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}
