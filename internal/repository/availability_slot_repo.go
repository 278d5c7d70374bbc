package repository

import (
	"context"
	"time"

	"github.com/CeosTech/CoachTemplate-sub001/internal/models"
)

type CreateAvailabilitySlotInput struct {
	CoachID int64
	StartAt time.Time
	EndAt   time.Time
}

type AvailabilitySlotRepository struct {
	db DBTX
}

func NewAvailabilitySlotRepository(db DBTX) *AvailabilitySlotRepository {
	return &AvailabilitySlotRepository{db: db}
}

func (r *AvailabilitySlotRepository) Create(
	ctx context.Context,
	input CreateAvailabilitySlotInput,
) (*models.AvailabilitySlot, error) {
	query := `
		INSERT INTO availability_slots (coach_id, start_at, end_at)
		VALUES ($1, $2, $3)
		RETURNING id, coach_id, start_at, end_at, created_at, updated_at
	`

	var slot models.AvailabilitySlot
	err := r.db.QueryRow(ctx, query, input.CoachID, input.StartAt, input.EndAt).Scan(
		&slot.ID,
		&slot.CoachID,
		&slot.StartAt,
		&slot.EndAt,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *AvailabilitySlotRepository) ListByCoachID(
	ctx context.Context,
	coachID int64,
) ([]models.AvailabilitySlot, error) {
	query := `
		SELECT id, coach_id, start_at, end_at, created_at, updated_at
		FROM availability_slots
		WHERE coach_id = $1
		ORDER BY start_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, coachID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]models.AvailabilitySlot, 0)
	for rows.Next() {
		var slot models.AvailabilitySlot
		if err := rows.Scan(
			&slot.ID,
			&slot.CoachID,
			&slot.StartAt,
			&slot.EndAt,
			&slot.CreatedAt,
			&slot.UpdatedAt,
		); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return slots, nil
}

// ListStartTimes returns the start timestamps of existing slots in
// [from, to), used to deduplicate rule expansion.
func (r *AvailabilitySlotRepository) ListStartTimes(
	ctx context.Context,
	coachID int64,
	from time.Time,
	to time.Time,
) ([]time.Time, error) {
	query := `
		SELECT start_at
		FROM availability_slots
		WHERE coach_id = $1 AND start_at >= $2 AND start_at < $3
	`

	rows, err := r.db.Query(ctx, query, coachID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	starts := make([]time.Time, 0)
	for rows.Next() {
		var startAt time.Time
		if err := rows.Scan(&startAt); err != nil {
			return nil, err
		}
		starts = append(starts, startAt)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return starts, nil
}

func (r *AvailabilitySlotRepository) Update(
	ctx context.Context,
	slotID int64,
	coachID int64,
	startAt time.Time,
	endAt time.Time,
) (*models.AvailabilitySlot, error) {
	query := `
		UPDATE availability_slots
		SET start_at = $3, end_at = $4, updated_at = NOW()
		WHERE id = $1 AND coach_id = $2
		RETURNING id, coach_id, start_at, end_at, created_at, updated_at
	`

	var slot models.AvailabilitySlot
	err := r.db.QueryRow(ctx, query, slotID, coachID, startAt, endAt).Scan(
		&slot.ID,
		&slot.CoachID,
		&slot.StartAt,
		&slot.EndAt,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// Delete removes a slot. Existing bookings are untouched: slots only
// gate the admission of new bookings.
func (r *AvailabilitySlotRepository) Delete(ctx context.Context, slotID, coachID int64) (bool, error) {
	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM availability_slots WHERE id = $1 AND coach_id = $2`,
		slotID,
		coachID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// HasCovering reports whether a single slot fully covers [startAt, endAt).
func (r *AvailabilitySlotRepository) HasCovering(
	ctx context.Context,
	coachID int64,
	startAt time.Time,
	endAt time.Time,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM availability_slots
			WHERE coach_id = $1
			  AND start_at <= $2
			  AND end_at >= $3
		)
	`
	var covered bool
	if err := r.db.QueryRow(ctx, query, coachID, startAt, endAt).Scan(&covered); err != nil {
		return false, err
	}
	return covered, nil
}
