package models

import "time"

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Payment rows are created by the external checkout collaborator. This
// core only reads them for link checks and pack activation, and
// transitions their status through the payment bridge.
type Payment struct {
	ID        int64         `json:"id"`
	MemberID  int64         `json:"member_id"`
	ProductID *int64        `json:"product_id,omitempty"`
	Amount    float64       `json:"amount"`
	Status    PaymentStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// Product describes what a payment purchases. CreditValue nil means the
// product grants unlimited sessions.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	CreditValue *int      `json:"credit_value"`
	CreatedAt   time.Time `json:"created_at"`
}
