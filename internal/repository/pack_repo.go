package repository

import (
	"context"
	"fmt"

	"github.com/CeosTech/CoachTemplate-sub001/internal/models"
)

type CreatePackInput struct {
	MemberID         int64
	ProductID        int64
	TotalCredits     *int
	CreditsRemaining *int
	PaymentID        *int64
}

const packColumns = `id, member_id, product_id, total_credits, credits_remaining, status, payment_id,
	created_at, updated_at`

type PackRepository struct {
	db DBTX
}

func NewPackRepository(db DBTX) *PackRepository {
	return &PackRepository{db: db}
}

func scanPack(row interface{ Scan(dest ...any) error }) (*models.MemberPack, error) {
	var p models.MemberPack
	err := row.Scan(
		&p.ID,
		&p.MemberID,
		&p.ProductID,
		&p.TotalCredits,
		&p.CreditsRemaining,
		&p.Status,
		&p.PaymentID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PackRepository) Create(ctx context.Context, input CreatePackInput) (*models.MemberPack, error) {
	query := fmt.Sprintf(`
		INSERT INTO member_packs (member_id, product_id, total_credits, credits_remaining, status, payment_id)
		VALUES ($1, $2, $3, $4, 'ACTIVE', $5)
		RETURNING %s
	`, packColumns)

	return scanPack(r.db.QueryRow(
		ctx,
		query,
		input.MemberID,
		input.ProductID,
		input.TotalCredits,
		input.CreditsRemaining,
		input.PaymentID,
	))
}

func (r *PackRepository) GetByID(ctx context.Context, packID int64) (*models.MemberPack, error) {
	query := fmt.Sprintf(`SELECT %s FROM member_packs WHERE id = $1`, packColumns)
	return scanPack(r.db.QueryRow(ctx, query, packID))
}

func (r *PackRepository) GetByIDForUpdate(ctx context.Context, packID int64) (*models.MemberPack, error) {
	query := fmt.Sprintf(`SELECT %s FROM member_packs WHERE id = $1 FOR UPDATE`, packColumns)
	return scanPack(r.db.QueryRow(ctx, query, packID))
}

func (r *PackRepository) GetByPaymentID(ctx context.Context, paymentID int64) (*models.MemberPack, error) {
	query := fmt.Sprintf(`SELECT %s FROM member_packs WHERE payment_id = $1`, packColumns)
	return scanPack(r.db.QueryRow(ctx, query, paymentID))
}

// OldestActiveWithCredit returns the member's oldest ACTIVE pack that
// can still fund a session (unlimited, never-debited, or remaining > 0).
func (r *PackRepository) OldestActiveWithCredit(
	ctx context.Context,
	memberID int64,
) (*models.MemberPack, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM member_packs
		WHERE member_id = $1
		  AND status = 'ACTIVE'
		  AND (total_credits IS NULL OR COALESCE(credits_remaining, total_credits) > 0)
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`, packColumns)
	return scanPack(r.db.QueryRow(ctx, query, memberID))
}

func (r *PackRepository) ListByMemberID(ctx context.Context, memberID int64) ([]models.MemberPack, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM member_packs
		WHERE member_id = $1
		ORDER BY created_at ASC, id ASC
	`, packColumns)

	rows, err := r.db.Query(ctx, query, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	packs := make([]models.MemberPack, 0)
	for rows.Next() {
		var p models.MemberPack
		if err := rows.Scan(
			&p.ID,
			&p.MemberID,
			&p.ProductID,
			&p.TotalCredits,
			&p.CreditsRemaining,
			&p.Status,
			&p.PaymentID,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		packs = append(packs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return packs, nil
}

// UpdateCredits writes the outcome of a debit or credit. Only the
// ledger calls this, never client input.
func (r *PackRepository) UpdateCredits(
	ctx context.Context,
	packID int64,
	creditsRemaining *int,
	status models.PackStatus,
) (*models.MemberPack, error) {
	query := fmt.Sprintf(`
		UPDATE member_packs
		SET credits_remaining = $2, status = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, packColumns)

	return scanPack(r.db.QueryRow(ctx, query, packID, creditsRemaining, status))
}
