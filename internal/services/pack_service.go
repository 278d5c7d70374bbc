package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CeosTech/CoachTemplate-sub001/internal/models"
	"github.com/CeosTech/CoachTemplate-sub001/internal/repository"
)

// packOutcome is the computed result of a debit or credit before it is
// written back.
type packOutcome struct {
	remaining *int
	status    models.PackStatus
	changed   bool
}

// debitOutcome consumes one credit. Unlimited packs are untouched. An
// exhausted pack cannot be debited; a pack that reaches zero flips to
// USED.
func debitOutcome(pack *models.MemberPack) (packOutcome, error) {
	if pack.Unlimited() {
		return packOutcome{remaining: pack.CreditsRemaining, status: pack.Status}, nil
	}

	current := pack.CurrentCredits()
	if current <= 0 {
		return packOutcome{}, ErrNoCreditsAvailable
	}

	next := current - 1
	status := pack.Status
	if next <= 0 {
		status = models.PackUsed
	}
	return packOutcome{remaining: &next, status: status, changed: true}, nil
}

// creditOutcome returns one credit, clamped at the pack's total. A
// credit-back always reactivates the pack, even if it had been
// exhausted.
func creditOutcome(pack *models.MemberPack) packOutcome {
	if pack.Unlimited() {
		return packOutcome{remaining: pack.CreditsRemaining, status: pack.Status}
	}

	baseline := pack.CurrentCredits()
	ceiling := *pack.TotalCredits
	next := baseline + 1
	if next > ceiling {
		next = ceiling
	}
	return packOutcome{remaining: &next, status: models.PackActive, changed: true}
}

// debitPack and creditPack run against whatever DBTX they are given, so
// the booking transition can call them inside its own transaction. The
// pack row is locked for the duration.

func debitPack(ctx context.Context, db repository.DBTX, packID int64) (*models.MemberPack, error) {
	packs := repository.NewPackRepository(db)
	pack, err := packs.GetByIDForUpdate(ctx, packID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	outcome, err := debitOutcome(pack)
	if err != nil {
		return nil, err
	}
	if !outcome.changed {
		return pack, nil
	}
	return packs.UpdateCredits(ctx, packID, outcome.remaining, outcome.status)
}

func creditPack(ctx context.Context, db repository.DBTX, packID int64) (*models.MemberPack, error) {
	packs := repository.NewPackRepository(db)
	pack, err := packs.GetByIDForUpdate(ctx, packID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	outcome := creditOutcome(pack)
	if !outcome.changed {
		return pack, nil
	}
	return packs.UpdateCredits(ctx, packID, outcome.remaining, outcome.status)
}

type memberProfileStore interface {
	GetByID(ctx context.Context, id int64) (*models.MemberProfile, error)
	GetByUserID(ctx context.Context, userID int64) (*models.MemberProfile, error)
}

type packLister interface {
	ListByMemberID(ctx context.Context, memberID int64) ([]models.MemberPack, error)
}

type PackService struct {
	db      *pgxpool.Pool
	packs   packLister
	members memberProfileStore
}

func NewPackService(
	db *pgxpool.Pool,
	packs *repository.PackRepository,
	members *repository.MemberProfileRepository,
) *PackService {
	return &PackService{db: db, packs: packs, members: members}
}

// ListPacks returns the member's packs, oldest first.
func (s *PackService) ListPacks(ctx context.Context, memberUserID int64) ([]models.MemberPack, error) {
	member, err := s.members.GetByUserID(ctx, memberUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.packs.ListByMemberID(ctx, member.ID)
}

// Debit consumes one credit from the pack in its own transaction. The
// booking transition uses the transaction-scoped debitPack instead.
func (s *PackService) Debit(ctx context.Context, packID int64) (*models.MemberPack, error) {
	return s.inTx(ctx, func(tx pgx.Tx) (*models.MemberPack, error) {
		return debitPack(ctx, tx, packID)
	})
}

// Credit returns one credit to the pack in its own transaction.
func (s *PackService) Credit(ctx context.Context, packID int64) (*models.MemberPack, error) {
	return s.inTx(ctx, func(tx pgx.Tx) (*models.MemberPack, error) {
		return creditPack(ctx, tx, packID)
	})
}

// ActivateFromPayment turns a PAID payment into a member pack. It is
// idempotent: a payment that already produced a pack returns that pack
// unchanged. Activation also flips the member profile's activated flag.
func (s *PackService) ActivateFromPayment(ctx context.Context, paymentID int64) (*models.MemberPack, error) {
	return s.inTx(ctx, func(tx pgx.Tx) (*models.MemberPack, error) {
		payments := repository.NewPaymentRepository(tx)
		packs := repository.NewPackRepository(tx)
		products := repository.NewProductRepository(tx)
		members := repository.NewMemberProfileRepository(tx)

		payment, err := payments.GetByIDForUpdate(ctx, paymentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, err
		}

		existing, err := packs.GetByPaymentID(ctx, paymentID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}

		if payment.Status != models.PaymentPaid {
			return nil, ErrPaymentInvalid
		}
		if payment.ProductID == nil {
			return nil, ErrPaymentInvalid
		}

		product, err := products.GetByID(ctx, *payment.ProductID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrPaymentInvalid
			}
			return nil, err
		}

		var total, remaining *int
		if product.CreditValue != nil {
			t := *product.CreditValue
			r := *product.CreditValue
			total, remaining = &t, &r
		}

		pack, err := packs.Create(ctx, repository.CreatePackInput{
			MemberID:         payment.MemberID,
			ProductID:        product.ID,
			TotalCredits:     total,
			CreditsRemaining: remaining,
			PaymentID:        &payment.ID,
		})
		if err != nil {
			return nil, err
		}

		if err := members.MarkActivated(ctx, payment.MemberID); err != nil {
			return nil, err
		}

		return pack, nil
	})
}

func (s *PackService) inTx(
	ctx context.Context,
	fn func(tx pgx.Tx) (*models.MemberPack, error),
) (*models.MemberPack, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	pack, err := fn(tx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return pack, nil
}
