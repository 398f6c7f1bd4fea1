// utils/times.go
package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	clock24Re = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	clock12Re = regexp.MustCompile(`^(\d{1,2}):(\d{2})(am|pm)$`)
)

// ClockTime is a wall-clock time of day with no date attached.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses a meeting time string. It accepts 24-hour
// "H:MM"/"HH:MM" first, then 12-hour "H:MMam"/"H:MMpm" (case-insensitive).
// Returns false for anything else; callers must not schedule on failure.
func ParseClockTime(timeStr string) (ClockTime, bool) {
	s := strings.ToLower(strings.TrimSpace(timeStr))

	if m := clock24Re.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59 {
			return ClockTime{Hour: hour, Minute: minute}, true
		}
		return ClockTime{}, false
	}

	if m := clock12Re.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour < 1 || hour > 12 || minute > 59 {
			return ClockTime{}, false
		}
		isPM := m[3] == "pm"
		if isPM && hour != 12 {
			hour += 12
		}
		if !isPM && hour == 12 {
			hour = 0
		}
		return ClockTime{Hour: hour, Minute: minute}, true
	}

	return ClockTime{}, false
}

// ParseMeetingDate parses a calendar date ("YYYY-MM-DD") in the host's
// local time zone.
func ParseMeetingDate(dateStr string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(dateStr), time.Local)
}

// MeetingInstant combines a calendar date with a clock time, seconds zeroed.
func MeetingInstant(date time.Time, clock ClockTime) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour, clock.Minute, 0, 0, time.Local)
}

// ReminderFireTime returns the instant a reminder should fire: the meeting
// instant minus the lead time in minutes.
func ReminderFireTime(date time.Time, clock ClockTime, leadMinutes int) time.Time {
	return MeetingInstant(date, clock).Add(-time.Duration(leadMinutes) * time.Minute)
}

// FormatMeetingDate renders a date for message bodies, e.g. "Jan 2, 2026".
func FormatMeetingDate(date time.Time) string {
	return date.Format("Jan 2, 2006")
}

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func DaysBetween(start, end time.Time) int {
	start = BeginningOfDay(start)
	end = BeginningOfDay(end)
	return int(end.Sub(start).Hours() / 24)
}
