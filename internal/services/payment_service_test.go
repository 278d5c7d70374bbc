package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/CeosTech/CoachTemplate-sub001/internal/models"
)

type stubRefundProvider struct {
	calls []int64
	err   error
}

func (p *stubRefundProvider) Refund(_ context.Context, paymentID int64, _ float64, _ string) error {
	p.calls = append(p.calls, paymentID)
	return p.err
}

type paymentRowStub struct {
	payment *models.Payment
	err     error
}

func (r paymentRowStub) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.payment.ID
	*(dest[1].(*int64)) = r.payment.MemberID
	*(dest[2].(**int64)) = r.payment.ProductID
	*(dest[3].(*float64)) = r.payment.Amount
	*(dest[4].(*models.PaymentStatus)) = r.payment.Status
	*(dest[5].(*time.Time)) = r.payment.CreatedAt
	return nil
}

// paymentDBStub serves one payment row through the DBTX surface the
// bridge uses, applying conditional status updates in memory.
type paymentDBStub struct {
	payment *models.Payment
	updates int
}

func (db *paymentDBStub) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (db *paymentDBStub) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("unexpected Query")
}

func (db *paymentDBStub) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if db.payment == nil || args[0].(int64) != db.payment.ID {
		return paymentRowStub{err: pgx.ErrNoRows}
	}
	if strings.Contains(sql, "UPDATE payments") {
		if db.payment.Status != args[1].(models.PaymentStatus) {
			return paymentRowStub{err: pgx.ErrNoRows}
		}
		db.payment.Status = args[2].(models.PaymentStatus)
		db.updates++
	}
	return paymentRowStub{payment: db.payment}
}

func testPayment(status models.PaymentStatus) *models.Payment {
	return &models.Payment{
		ID:        40,
		MemberID:  10,
		Amount:    89.90,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
}

func TestMarkPaidTransitionsPendingPayment(t *testing.T) {
	db := &paymentDBStub{payment: testPayment(models.PaymentPending)}
	bridge := NewPaymentBridge(nil)

	if err := bridge.MarkPaid(context.Background(), db, 40); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if db.payment.Status != models.PaymentPaid {
		t.Fatalf("expected PAID, got %s", db.payment.Status)
	}
}

func TestMarkPaidAlreadyPaidIsNoOp(t *testing.T) {
	db := &paymentDBStub{payment: testPayment(models.PaymentPaid)}
	bridge := NewPaymentBridge(nil)

	if err := bridge.MarkPaid(context.Background(), db, 40); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if db.updates != 0 {
		t.Fatalf("expected no write, got %d", db.updates)
	}
}

func TestMarkPaidRefundedPaymentFails(t *testing.T) {
	db := &paymentDBStub{payment: testPayment(models.PaymentRefunded)}
	bridge := NewPaymentBridge(nil)

	if err := bridge.MarkPaid(context.Background(), db, 40); err != ErrPaymentInvalid {
		t.Fatalf("expected ErrPaymentInvalid, got %v", err)
	}
}

func TestMarkPaidUnknownPaymentFails(t *testing.T) {
	db := &paymentDBStub{}
	bridge := NewPaymentBridge(nil)

	if err := bridge.MarkPaid(context.Background(), db, 40); err != ErrPaymentInvalid {
		t.Fatalf("expected ErrPaymentInvalid, got %v", err)
	}
}

func TestRefundPaidPaymentCallsProvider(t *testing.T) {
	db := &paymentDBStub{payment: testPayment(models.PaymentPaid)}
	provider := &stubRefundProvider{}
	bridge := NewPaymentBridge(provider)

	if err := bridge.Refund(context.Background(), db, 40, "booking refused by coach"); err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if len(provider.calls) != 1 || provider.calls[0] != 40 {
		t.Fatalf("expected one provider call for payment 40, got %v", provider.calls)
	}
	if db.payment.Status != models.PaymentRefunded {
		t.Fatalf("expected REFUNDED, got %s", db.payment.Status)
	}
}

func TestRefundPendingPaymentSkipsProvider(t *testing.T) {
	// Nothing was collected, so there is nothing to send back upstream;
	// the row still moves to REFUNDED.
	db := &paymentDBStub{payment: testPayment(models.PaymentPending)}
	provider := &stubRefundProvider{}
	bridge := NewPaymentBridge(provider)

	if err := bridge.Refund(context.Background(), db, 40, "booking refused by coach"); err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if len(provider.calls) != 0 {
		t.Fatalf("expected no provider call, got %v", provider.calls)
	}
	if db.payment.Status != models.PaymentRefunded {
		t.Fatalf("expected REFUNDED, got %s", db.payment.Status)
	}
}

func TestRefundAlreadyRefundedIsNoOp(t *testing.T) {
	db := &paymentDBStub{payment: testPayment(models.PaymentRefunded)}
	provider := &stubRefundProvider{}
	bridge := NewPaymentBridge(provider)

	if err := bridge.Refund(context.Background(), db, 40, "retry"); err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if len(provider.calls) != 0 || db.updates != 0 {
		t.Fatal("expected a full no-op")
	}
}

func TestRefundProviderFailureSurfacesUpstreamError(t *testing.T) {
	db := &paymentDBStub{payment: testPayment(models.PaymentPaid)}
	provider := &stubRefundProvider{err: errors.New("gateway timeout")}
	bridge := NewPaymentBridge(provider)

	err := bridge.Refund(context.Background(), db, 40, "booking refused by coach")
	if !errors.Is(err, ErrUpstreamPayment) {
		t.Fatalf("expected ErrUpstreamPayment, got %v", err)
	}
	if db.payment.Status != models.PaymentPaid {
		t.Fatalf("payment must stay PAID after provider failure, got %s", db.payment.Status)
	}
}
