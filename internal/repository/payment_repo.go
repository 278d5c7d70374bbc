package repository

import (
	"context"

	"github.com/CeosTech/CoachTemplate-sub001/internal/models"
)

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func scanPayment(row interface{ Scan(dest ...any) error }) (*models.Payment, error) {
	var payment models.Payment
	err := row.Scan(
		&payment.ID,
		&payment.MemberID,
		&payment.ProductID,
		&payment.Amount,
		&payment.Status,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, paymentID int64) (*models.Payment, error) {
	query := `
		SELECT id, member_id, product_id, amount, status, created_at
		FROM payments
		WHERE id = $1
	`
	return scanPayment(r.db.QueryRow(ctx, query, paymentID))
}

func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, paymentID int64) (*models.Payment, error) {
	query := `
		SELECT id, member_id, product_id, amount, status, created_at
		FROM payments
		WHERE id = $1
		FOR UPDATE
	`
	return scanPayment(r.db.QueryRow(ctx, query, paymentID))
}

// UpdateStatusIfCurrent flips the payment status only when it still has
// the expected current value, so concurrent bridge calls stay idempotent.
func (r *PaymentRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	paymentID int64,
	currentStatus models.PaymentStatus,
	nextStatus models.PaymentStatus,
) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = $3
		WHERE id = $1 AND status = $2
		RETURNING id, member_id, product_id, amount, status, created_at
	`
	return scanPayment(r.db.QueryRow(ctx, query, paymentID, currentStatus, nextStatus))
}
