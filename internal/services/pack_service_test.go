package services

import (
	"testing"

	"github.com/CeosTech/CoachTemplate-sub001/internal/models"
)

func intPtr(v int) *int { return &v }

func TestDebitOutcomeConsumesOneCredit(t *testing.T) {
	pack := &models.MemberPack{
		TotalCredits:     intPtr(10),
		CreditsRemaining: intPtr(3),
		Status:           models.PackActive,
	}

	outcome, err := debitOutcome(pack)
	if err != nil {
		t.Fatalf("debitOutcome: %v", err)
	}
	if !outcome.changed {
		t.Fatal("expected a write")
	}
	if outcome.remaining == nil || *outcome.remaining != 2 {
		t.Fatalf("expected 2 remaining, got %v", outcome.remaining)
	}
	if outcome.status != models.PackActive {
		t.Fatalf("expected pack to stay ACTIVE, got %s", outcome.status)
	}
}

func TestDebitOutcomeLastCreditMarksPackUsed(t *testing.T) {
	pack := &models.MemberPack{
		TotalCredits:     intPtr(5),
		CreditsRemaining: intPtr(1),
		Status:           models.PackActive,
	}

	outcome, err := debitOutcome(pack)
	if err != nil {
		t.Fatalf("debitOutcome: %v", err)
	}
	if *outcome.remaining != 0 {
		t.Fatalf("expected 0 remaining, got %d", *outcome.remaining)
	}
	if outcome.status != models.PackUsed {
		t.Fatalf("expected USED, got %s", outcome.status)
	}
}

func TestDebitOutcomeExhaustedPackFails(t *testing.T) {
	pack := &models.MemberPack{
		TotalCredits:     intPtr(5),
		CreditsRemaining: intPtr(0),
		Status:           models.PackUsed,
	}

	if _, err := debitOutcome(pack); err != ErrNoCreditsAvailable {
		t.Fatalf("expected ErrNoCreditsAvailable, got %v", err)
	}
}

func TestDebitOutcomeNilRemainingFallsBackToTotal(t *testing.T) {
	// A pack that was never debited stores NULL credits_remaining; the
	// balance is then the product's total.
	pack := &models.MemberPack{
		TotalCredits: intPtr(2),
		Status:       models.PackActive,
	}

	outcome, err := debitOutcome(pack)
	if err != nil {
		t.Fatalf("debitOutcome: %v", err)
	}
	if *outcome.remaining != 1 {
		t.Fatalf("expected 1 remaining, got %d", *outcome.remaining)
	}
}

func TestDebitOutcomeUnlimitedPackUntouched(t *testing.T) {
	pack := &models.MemberPack{Status: models.PackActive}

	outcome, err := debitOutcome(pack)
	if err != nil {
		t.Fatalf("debitOutcome: %v", err)
	}
	if outcome.changed {
		t.Fatal("unlimited pack must not be written")
	}
	if outcome.remaining != nil {
		t.Fatalf("expected nil remaining, got %d", *outcome.remaining)
	}
}

func TestCreditOutcomeRestoresOneCredit(t *testing.T) {
	pack := &models.MemberPack{
		TotalCredits:     intPtr(10),
		CreditsRemaining: intPtr(3),
		Status:           models.PackActive,
	}

	outcome := creditOutcome(pack)
	if *outcome.remaining != 4 {
		t.Fatalf("expected 4 remaining, got %d", *outcome.remaining)
	}
	if outcome.status != models.PackActive {
		t.Fatalf("expected ACTIVE, got %s", outcome.status)
	}
}

func TestCreditOutcomeReactivatesUsedPack(t *testing.T) {
	pack := &models.MemberPack{
		TotalCredits:     intPtr(5),
		CreditsRemaining: intPtr(0),
		Status:           models.PackUsed,
	}

	outcome := creditOutcome(pack)
	if *outcome.remaining != 1 {
		t.Fatalf("expected 1 remaining, got %d", *outcome.remaining)
	}
	if outcome.status != models.PackActive {
		t.Fatalf("expected credit-back to reactivate the pack, got %s", outcome.status)
	}
}

func TestCreditOutcomeClampsAtTotal(t *testing.T) {
	pack := &models.MemberPack{
		TotalCredits:     intPtr(5),
		CreditsRemaining: intPtr(5),
		Status:           models.PackActive,
	}

	outcome := creditOutcome(pack)
	if *outcome.remaining != 5 {
		t.Fatalf("expected remaining clamped at 5, got %d", *outcome.remaining)
	}
}

func TestCreditOutcomeUnlimitedPackUntouched(t *testing.T) {
	pack := &models.MemberPack{Status: models.PackActive}

	outcome := creditOutcome(pack)
	if outcome.changed {
		t.Fatal("unlimited pack must not be written")
	}
}

func TestDebitThenCreditRoundTrip(t *testing.T) {
	pack := &models.MemberPack{
		TotalCredits:     intPtr(3),
		CreditsRemaining: intPtr(1),
		Status:           models.PackActive,
	}

	debited, err := debitOutcome(pack)
	if err != nil {
		t.Fatalf("debitOutcome: %v", err)
	}
	pack.CreditsRemaining = debited.remaining
	pack.Status = debited.status
	if pack.Status != models.PackUsed {
		t.Fatalf("expected USED after last debit, got %s", pack.Status)
	}

	credited := creditOutcome(pack)
	if *credited.remaining != 1 || credited.status != models.PackActive {
		t.Fatalf("expected round-trip back to 1 credit ACTIVE, got %d %s",
			*credited.remaining, credited.status)
	}
}
