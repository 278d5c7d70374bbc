package repository

import (
	"context"

	"github.com/CeosTech/CoachTemplate-sub001/internal/models"
)

type CreateAvailabilityRuleInput struct {
	CoachID      int64
	Weekday      int
	StartMinutes int
	EndMinutes   int
}

type AvailabilityRuleRepository struct {
	db DBTX
}

func NewAvailabilityRuleRepository(db DBTX) *AvailabilityRuleRepository {
	return &AvailabilityRuleRepository{db: db}
}

func (r *AvailabilityRuleRepository) Create(
	ctx context.Context,
	input CreateAvailabilityRuleInput,
) (*models.AvailabilityRule, error) {
	query := `
		INSERT INTO availability_rules (coach_id, weekday, start_minutes, end_minutes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, coach_id, weekday, start_minutes, end_minutes, created_at, updated_at
	`

	var rule models.AvailabilityRule
	err := r.db.QueryRow(
		ctx,
		query,
		input.CoachID,
		input.Weekday,
		input.StartMinutes,
		input.EndMinutes,
	).Scan(
		&rule.ID,
		&rule.CoachID,
		&rule.Weekday,
		&rule.StartMinutes,
		&rule.EndMinutes,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *AvailabilityRuleRepository) ListByCoachID(
	ctx context.Context,
	coachID int64,
) ([]models.AvailabilityRule, error) {
	query := `
		SELECT id, coach_id, weekday, start_minutes, end_minutes, created_at, updated_at
		FROM availability_rules
		WHERE coach_id = $1
		ORDER BY weekday ASC, start_minutes ASC
	`

	rows, err := r.db.Query(ctx, query, coachID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]models.AvailabilityRule, 0)
	for rows.Next() {
		var rule models.AvailabilityRule
		if err := rows.Scan(
			&rule.ID,
			&rule.CoachID,
			&rule.Weekday,
			&rule.StartMinutes,
			&rule.EndMinutes,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rules, nil
}

// Update rewrites the rule's window. The coach id scopes the write so a
// coach can only touch their own rules.
func (r *AvailabilityRuleRepository) Update(
	ctx context.Context,
	ruleID int64,
	coachID int64,
	weekday int,
	startMinutes int,
	endMinutes int,
) (*models.AvailabilityRule, error) {
	query := `
		UPDATE availability_rules
		SET weekday = $3, start_minutes = $4, end_minutes = $5, updated_at = NOW()
		WHERE id = $1 AND coach_id = $2
		RETURNING id, coach_id, weekday, start_minutes, end_minutes, created_at, updated_at
	`

	var rule models.AvailabilityRule
	err := r.db.QueryRow(ctx, query, ruleID, coachID, weekday, startMinutes, endMinutes).Scan(
		&rule.ID,
		&rule.CoachID,
		&rule.Weekday,
		&rule.StartMinutes,
		&rule.EndMinutes,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *AvailabilityRuleRepository) Delete(ctx context.Context, ruleID, coachID int64) (bool, error) {
	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM availability_rules WHERE id = $1 AND coach_id = $2`,
		ruleID,
		coachID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
