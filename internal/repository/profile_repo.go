package repository

import (
	"context"

	"github.com/CeosTech/CoachTemplate-sub001/internal/models"
)

// Profile repositories resolve opaque user ids (from the external auth
// collaborator) to the member/coach profile rows this core owns.

type CoachProfileRepository struct {
	db DBTX
}

func NewCoachProfileRepository(db DBTX) *CoachProfileRepository {
	return &CoachProfileRepository{db: db}
}

func (r *CoachProfileRepository) GetByID(ctx context.Context, id int64) (*models.CoachProfile, error) {
	query := `
		SELECT id, user_id, full_name, bio, created_at, updated_at
		FROM coach_profiles
		WHERE id = $1
	`
	var profile models.CoachProfile
	err := r.db.QueryRow(ctx, query, id).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.Bio,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *CoachProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.CoachProfile, error) {
	query := `
		SELECT id, user_id, full_name, bio, created_at, updated_at
		FROM coach_profiles
		WHERE user_id = $1
	`
	var profile models.CoachProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.Bio,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

type MemberProfileRepository struct {
	db DBTX
}

func NewMemberProfileRepository(db DBTX) *MemberProfileRepository {
	return &MemberProfileRepository{db: db}
}

func (r *MemberProfileRepository) GetByID(ctx context.Context, id int64) (*models.MemberProfile, error) {
	query := `
		SELECT id, user_id, full_name, activated, created_at, updated_at
		FROM member_profiles
		WHERE id = $1
	`
	var profile models.MemberProfile
	err := r.db.QueryRow(ctx, query, id).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.Activated,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *MemberProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.MemberProfile, error) {
	query := `
		SELECT id, user_id, full_name, activated, created_at, updated_at
		FROM member_profiles
		WHERE user_id = $1
	`
	var profile models.MemberProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.Activated,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// MarkActivated gates dashboard access: it flips once the member's
// first payment is turned into a pack.
func (r *MemberProfileRepository) MarkActivated(ctx context.Context, id int64) error {
	_, err := r.db.Exec(
		ctx,
		`UPDATE member_profiles SET activated = TRUE, updated_at = NOW() WHERE id = $1`,
		id,
	)
	return err
}
