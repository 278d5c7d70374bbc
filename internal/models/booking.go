package models

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingRefused   BookingStatus = "REFUSED"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingRefused:
		return true
	}
	return false
}

// Active reports whether the booking still occupies its time range.
// Only PENDING and CONFIRMED bookings take part in collision checks.
func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingConfirmed
}

type Booking struct {
	ID          int64         `json:"id"`
	CoachID     int64         `json:"coach_id"`
	MemberID    int64         `json:"member_id"`
	StartAt     time.Time     `json:"start_at"`
	EndAt       time.Time     `json:"end_at"`
	Status      BookingStatus `json:"status"`
	PaymentID   *int64        `json:"payment_id,omitempty"`
	PackID      *int64        `json:"pack_id,omitempty"`
	MemberNotes *string       `json:"member_notes,omitempty"`
	CoachNotes  *string       `json:"coach_notes,omitempty"`
	ConfirmedAt *time.Time    `json:"confirmed_at,omitempty"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// BookingRow is a booking joined with the display names the calendar
// projection needs. Names may be empty when the profile has none.
type BookingRow struct {
	Booking
	MemberName  string  `json:"member_name"`
	CoachName   string  `json:"coach_name"`
	ProductName *string `json:"product_name,omitempty"`
}

type BookingDetail struct {
	BookingRow
	Calendar CalendarEntry `json:"calendar"`
}

// CalendarEntry is a derived display payload. It has no persistence
// effect and can be recomputed freely.
type CalendarEntry struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Color    string `json:"color"`
	Tooltip  string `json:"tooltip"`
}
