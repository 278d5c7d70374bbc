package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/CeosTech/CoachTemplate-sub001/internal/models"
	"github.com/CeosTech/CoachTemplate-sub001/internal/repository"
)

type availabilityRuleStore interface {
	Create(ctx context.Context, input repository.CreateAvailabilityRuleInput) (*models.AvailabilityRule, error)
	ListByCoachID(ctx context.Context, coachID int64) ([]models.AvailabilityRule, error)
	Update(ctx context.Context, ruleID, coachID int64, weekday, startMinutes, endMinutes int) (*models.AvailabilityRule, error)
	Delete(ctx context.Context, ruleID, coachID int64) (bool, error)
}

type availabilitySlotStore interface {
	Create(ctx context.Context, input repository.CreateAvailabilitySlotInput) (*models.AvailabilitySlot, error)
	ListByCoachID(ctx context.Context, coachID int64) ([]models.AvailabilitySlot, error)
	ListStartTimes(ctx context.Context, coachID int64, from, to time.Time) ([]time.Time, error)
	Update(ctx context.Context, slotID, coachID int64, startAt, endAt time.Time) (*models.AvailabilitySlot, error)
	Delete(ctx context.Context, slotID, coachID int64) (bool, error)
}

type AvailabilityService struct {
	rules availabilityRuleStore
	slots availabilitySlotStore
}

func NewAvailabilityService(
	rules *repository.AvailabilityRuleRepository,
	slots *repository.AvailabilitySlotRepository,
) *AvailabilityService {
	return &AvailabilityService{rules: rules, slots: slots}
}

type RuleInput struct {
	Weekday      int
	StartMinutes int
	EndMinutes   int
}

func validateRuleInput(input RuleInput) error {
	if input.Weekday < 0 || input.Weekday >= models.WeekdaysPerWeek {
		return ErrValidation
	}
	if input.StartMinutes < 0 || input.StartMinutes > models.MaxMinuteOfDay {
		return ErrValidation
	}
	if input.EndMinutes < 0 || input.EndMinutes > models.MaxMinuteOfDay {
		return ErrValidation
	}
	if input.EndMinutes <= input.StartMinutes {
		return ErrValidation
	}
	return nil
}

func (s *AvailabilityService) ListRules(ctx context.Context, coachID int64) ([]models.AvailabilityRule, error) {
	return s.rules.ListByCoachID(ctx, coachID)
}

func (s *AvailabilityService) CreateRule(
	ctx context.Context,
	coachID int64,
	input RuleInput,
) (*models.AvailabilityRule, error) {
	if err := validateRuleInput(input); err != nil {
		return nil, err
	}
	return s.rules.Create(ctx, repository.CreateAvailabilityRuleInput{
		CoachID:      coachID,
		Weekday:      input.Weekday,
		StartMinutes: input.StartMinutes,
		EndMinutes:   input.EndMinutes,
	})
}

func (s *AvailabilityService) UpdateRule(
	ctx context.Context,
	coachID int64,
	ruleID int64,
	input RuleInput,
) (*models.AvailabilityRule, error) {
	if err := validateRuleInput(input); err != nil {
		return nil, err
	}
	rule, err := s.rules.Update(ctx, ruleID, coachID, input.Weekday, input.StartMinutes, input.EndMinutes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rule, nil
}

func (s *AvailabilityService) DeleteRule(ctx context.Context, coachID, ruleID int64) error {
	deleted, err := s.rules.Delete(ctx, ruleID, coachID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func (s *AvailabilityService) ListSlots(ctx context.Context, coachID int64) ([]models.AvailabilitySlot, error) {
	return s.slots.ListByCoachID(ctx, coachID)
}

func (s *AvailabilityService) CreateSlot(
	ctx context.Context,
	coachID int64,
	startAt time.Time,
	endAt time.Time,
) (*models.AvailabilitySlot, error) {
	if !endAt.After(startAt) {
		return nil, ErrValidation
	}
	slot, err := s.slots.Create(ctx, repository.CreateAvailabilitySlotInput{
		CoachID: coachID,
		StartAt: startAt.UTC(),
		EndAt:   endAt.UTC(),
	})
	if err != nil {
		if repository.IsUniqueViolation(err, "") {
			return nil, ErrSlotConflict
		}
		return nil, err
	}
	return slot, nil
}

func (s *AvailabilityService) UpdateSlot(
	ctx context.Context,
	coachID int64,
	slotID int64,
	startAt time.Time,
	endAt time.Time,
) (*models.AvailabilitySlot, error) {
	if !endAt.After(startAt) {
		return nil, ErrValidation
	}
	slot, err := s.slots.Update(ctx, slotID, coachID, startAt.UTC(), endAt.UTC())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if repository.IsUniqueViolation(err, "") {
			return nil, ErrSlotConflict
		}
		return nil, err
	}
	return slot, nil
}

func (s *AvailabilityService) DeleteSlot(ctx context.Context, coachID, slotID int64) error {
	deleted, err := s.slots.Delete(ctx, slotID, coachID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// ruleWeekday maps time.Weekday (Sunday=0) onto the stored convention
// (Monday=0 .. Sunday=6).
func ruleWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % models.WeekdaysPerWeek
}

// ApplyRules expands the coach's weekly rules into concrete slots over
// [startDate, startDate+days) and inserts the ones that do not exist
// yet. Existing slots are matched by exact start time; the unique index
// on (coach_id, start_at) makes a retry idempotent. Returns the number
// of newly created slots.
func (s *AvailabilityService) ApplyRules(
	ctx context.Context,
	coachID int64,
	startDate time.Time,
	days int,
) (int, error) {
	if days < 1 || days > models.MaxHorizonDays {
		return 0, ErrValidation
	}

	rules, err := s.rules.ListByCoachID(ctx, coachID)
	if err != nil {
		return 0, err
	}
	if len(rules) == 0 {
		return 0, nil
	}

	start := startDate.UTC().Truncate(24 * time.Hour)
	horizonEnd := start.AddDate(0, 0, days)

	existing, err := s.slots.ListStartTimes(ctx, coachID, start, horizonEnd)
	if err != nil {
		return 0, err
	}
	seen := make(map[int64]struct{}, len(existing))
	for _, startAt := range existing {
		seen[startAt.Unix()] = struct{}{}
	}

	created := 0
	for offset := 0; offset < days; offset++ {
		day := start.AddDate(0, 0, offset)
		weekday := ruleWeekday(day)

		for _, rule := range rules {
			if rule.Weekday != weekday {
				continue
			}
			slotStart := day.Add(time.Duration(rule.StartMinutes) * time.Minute)
			slotEnd := day.Add(time.Duration(rule.EndMinutes) * time.Minute)
			// Degenerate windows can only come from already-invalid
			// rule rows; drop them rather than fail the batch.
			if !slotEnd.After(slotStart) {
				continue
			}
			if _, dup := seen[slotStart.Unix()]; dup {
				continue
			}

			_, err := s.slots.Create(ctx, repository.CreateAvailabilitySlotInput{
				CoachID: coachID,
				StartAt: slotStart,
				EndAt:   slotEnd,
			})
			if err != nil {
				// A concurrent apply already inserted this slot.
				if repository.IsUniqueViolation(err, "") {
					seen[slotStart.Unix()] = struct{}{}
					continue
				}
				return created, err
			}
			seen[slotStart.Unix()] = struct{}{}
			created++
		}
	}

	return created, nil
}
