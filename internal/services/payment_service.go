package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/CeosTech/CoachTemplate-sub001/internal/models"
	"github.com/CeosTech/CoachTemplate-sub001/internal/repository"
)

// RefundProvider executes a refund with the external payment provider.
// Checkout-session creation lives entirely outside this core; refunds
// are the one provider action a booking transition can trigger.
type RefundProvider interface {
	Refund(ctx context.Context, paymentID int64, amount float64, reason string) error
}

// PaymentBridge keeps payment rows consistent with booking state. Both
// operations are idempotent and run on whatever DBTX the caller passes,
// so a booking transition can include them in its transaction.
type PaymentBridge struct {
	provider RefundProvider
}

func NewPaymentBridge(provider RefundProvider) *PaymentBridge {
	return &PaymentBridge{provider: provider}
}

// MarkPaid transitions the payment to PAID. Already-PAID payments are a
// no-op; a REFUNDED payment cannot be re-paid.
func (b *PaymentBridge) MarkPaid(ctx context.Context, db repository.DBTX, paymentID int64) error {
	payments := repository.NewPaymentRepository(db)

	payment, err := payments.GetByIDForUpdate(ctx, paymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPaymentInvalid
		}
		return err
	}

	switch payment.Status {
	case models.PaymentPaid:
		return nil
	case models.PaymentRefunded:
		return ErrPaymentInvalid
	}

	_, err = payments.UpdateStatusIfCurrent(ctx, paymentID, payment.Status, models.PaymentPaid)
	return err
}

// Refund transitions the payment to REFUNDED, executing the refund with
// the provider first. A provider failure surfaces as the retryable
// ErrUpstreamPayment and leaves the payment untouched; the enclosing
// transaction rolls back with it.
func (b *PaymentBridge) Refund(ctx context.Context, db repository.DBTX, paymentID int64, reason string) error {
	payments := repository.NewPaymentRepository(db)

	payment, err := payments.GetByIDForUpdate(ctx, paymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPaymentInvalid
		}
		return err
	}

	if payment.Status == models.PaymentRefunded {
		return nil
	}

	if b.provider != nil && payment.Status == models.PaymentPaid {
		if err := b.provider.Refund(ctx, payment.ID, payment.Amount, reason); err != nil {
			return fmt.Errorf("%w: %v", ErrUpstreamPayment, err)
		}
	}

	_, err = payments.UpdateStatusIfCurrent(ctx, paymentID, payment.Status, models.PaymentRefunded)
	return err
}

// HTTPRefundProvider posts refund orders to the payment collaborator.
type HTTPRefundProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRefundProvider(baseURL string) *HTTPRefundProvider {
	return &HTTPRefundProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPRefundProvider) Refund(ctx context.Context, paymentID int64, amount float64, reason string) error {
	body, err := json.Marshal(map[string]any{
		"payment_id": paymentID,
		"amount":     amount,
		"reason":     reason,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.baseURL+"/refunds",
		bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("refund request returned status %d", resp.StatusCode)
	}
	return nil
}
