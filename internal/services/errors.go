package services

import "errors"

var (
	// ErrValidation covers malformed time ranges, bad weekday or
	// time-of-day values, and missing required fields.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound covers rules, slots, bookings, packs, payments and
	// profiles that are absent or not owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrSlotNotAvailable: no availability slot fully covers the
	// requested time range.
	ErrSlotNotAvailable = errors.New("no availability for the requested time")

	// ErrSlotConflict: the range overlaps a pending or confirmed
	// booking for the same coach.
	ErrSlotConflict = errors.New("time range conflicts with another booking")

	// ErrPaymentInvalid: the payment does not exist, belongs to someone
	// else, or is in a state that cannot fund the operation.
	ErrPaymentInvalid = errors.New("payment cannot fund this operation")

	// ErrPaymentAlreadyLinked: the payment already funds another booking.
	ErrPaymentAlreadyLinked = errors.New("payment already linked to a booking")

	// ErrNoCreditsAvailable is the payment-required class: the member
	// must top up before retrying.
	ErrNoCreditsAvailable = errors.New("no session credits available")

	// ErrUpstreamPayment is retryable: the payment provider failed and
	// the enclosing transition was rolled back.
	ErrUpstreamPayment = errors.New("payment provider error")
)
