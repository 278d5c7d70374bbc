package services

import (
	"fmt"

	"github.com/CeosTech/CoachTemplate-sub001/internal/models"
)

// Calendar colors and labels keyed by booking status. The projection is
// derived display data only; nothing here is persisted.

func calendarColor(status models.BookingStatus) string {
	switch status {
	case models.BookingConfirmed:
		return "#10B981"
	case models.BookingRefused:
		return "#EF4444"
	default:
		return "#F59E0B"
	}
}

func calendarStatusLabel(status models.BookingStatus) string {
	switch status {
	case models.BookingConfirmed:
		return "confirmed"
	case models.BookingRefused:
		return "refused"
	default:
		return "awaiting confirmation"
	}
}

// buildCalendarEntry renders the booking for one perspective: members
// see the coach and the pack's product, coaches see the member.
func buildCalendarEntry(row models.BookingRow, role string) models.CalendarEntry {
	title := "Session"
	subtitle := ""

	if role == "coach" {
		if row.MemberName != "" {
			title = row.MemberName
		}
		subtitle = calendarStatusLabel(row.Status)
	} else {
		if row.CoachName != "" {
			title = "Session with " + row.CoachName
		}
		if row.ProductName != nil {
			subtitle = *row.ProductName
		} else {
			subtitle = "no pack"
		}
	}

	tooltip := fmt.Sprintf(
		"%s–%s · %s · %s",
		row.StartAt.Format("Mon 2 Jan 15:04"),
		row.EndAt.Format("15:04"),
		title,
		calendarStatusLabel(row.Status),
	)

	return models.CalendarEntry{
		Title:    title,
		Subtitle: subtitle,
		Color:    calendarColor(row.Status),
		Tooltip:  tooltip,
	}
}
