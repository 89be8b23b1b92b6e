package models

import (
	"fmt"
	"strings"
)

// Days lists weekdays in schedule order.
var Days = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// DayHours is the opening window for one weekday. Open/Close are slot labels
// ("8:00 AM"); both are empty when IsOpen is false.
type DayHours struct {
	Day    string `json:"day"`
	Open   string `json:"open"`
	Close  string `json:"close"`
	IsOpen bool   `json:"is_open"`
}

// WeekHours is the full weekly schedule, Monday first.
type WeekHours []DayHours

// DefaultWeekHours mirrors the workshop's stock schedule: weekdays 8-5,
// Saturday 9-2, Sunday closed.
func DefaultWeekHours() WeekHours {
	week := make(WeekHours, 0, len(Days))
	for _, day := range Days {
		switch day {
		case "Saturday":
			week = append(week, DayHours{Day: day, Open: "9:00 AM", Close: "2:00 PM", IsOpen: true})
		case "Sunday":
			week = append(week, DayHours{Day: day, IsOpen: false})
		default:
			week = append(week, DayHours{Day: day, Open: "8:00 AM", Close: "5:00 PM", IsOpen: true})
		}
	}
	return week
}

// LabelMinutes converts an "h:mm AM" label to minutes from midnight.
func LabelMinutes(label string) (int, error) {
	parts := strings.Fields(label)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time label %q", label)
	}
	var hour, minute int
	if _, err := fmt.Sscanf(parts[0], "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("invalid time label %q", label)
	}
	if hour < 1 || hour > 12 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time label %q", label)
	}
	switch parts[1] {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return 0, fmt.Errorf("invalid time label %q", label)
	}
	return hour*60 + minute, nil
}
