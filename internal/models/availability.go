package models

import "time"

// Weekday convention for rules: 0=Monday .. 6=Sunday.
// Times of day are stored as minutes since midnight in [0,1439].
const (
	MinutesPerDay   = 1440
	MaxMinuteOfDay  = MinutesPerDay - 1
	MaxHorizonDays  = 60
	WeekdaysPerWeek = 7
)

type AvailabilityRule struct {
	ID           int64     `json:"id"`
	CoachID      int64     `json:"coach_id"`
	Weekday      int       `json:"weekday"`
	StartMinutes int       `json:"start_minutes"`
	EndMinutes   int       `json:"end_minutes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type AvailabilitySlot struct {
	ID        int64     `json:"id"`
	CoachID   int64     `json:"coach_id"`
	StartAt   time.Time `json:"start_at"`
	EndAt     time.Time `json:"end_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
