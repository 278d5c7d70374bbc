package models

import "time"

type PackStatus string

const (
	PackActive PackStatus = "ACTIVE"
	PackUsed   PackStatus = "USED"
)

// MemberPack is a prepaid bundle of session credits tied to a purchase.
// TotalCredits nil means unlimited (subscription-style); otherwise
// CreditsRemaining stays within [0, TotalCredits].
type MemberPack struct {
	ID               int64      `json:"id"`
	MemberID         int64      `json:"member_id"`
	ProductID        int64      `json:"product_id"`
	TotalCredits     *int       `json:"total_credits"`
	CreditsRemaining *int       `json:"credits_remaining"`
	Status           PackStatus `json:"status"`
	PaymentID        *int64     `json:"payment_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (p *MemberPack) Unlimited() bool {
	return p.TotalCredits == nil
}

// CurrentCredits returns the usable credit count for a limited pack.
// A nil CreditsRemaining falls back to TotalCredits (a freshly created
// pack that has never been debited).
func (p *MemberPack) CurrentCredits() int {
	if p.Unlimited() {
		return 0
	}
	if p.CreditsRemaining != nil {
		return *p.CreditsRemaining
	}
	return *p.TotalCredits
}

// HasCredit reports whether the pack can fund one more session.
func (p *MemberPack) HasCredit() bool {
	return p.Unlimited() || p.CurrentCredits() > 0
}
