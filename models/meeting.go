// models/meeting.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Meeting lifecycle statuses. "completed" is only ever set externally;
// the scheduler moves meetings from scheduled to reminded.
const (
	MeetingStatusScheduled = "scheduled"
	MeetingStatusReminded  = "reminded"
	MeetingStatusCompleted = "completed"
)

// DefaultReminderMinutes is the lead time applied when a meeting is
// created without one (2 hours).
const DefaultReminderMinutes = 120

type Meeting struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`

	TeacherID    string `json:"teacherId"`
	TeacherName  string `gorm:"not null" json:"teacherName"`
	TeacherPhone string `gorm:"not null" json:"teacherPhone"`
	StudentID    string `json:"studentId"`
	StudentName  string `gorm:"not null" json:"studentName"`
	StudentPhone string `gorm:"not null" json:"studentPhone"`

	// Date is the calendar day ("2006-01-02"); Time is the wall-clock
	// time string ("15:04" or "3:04pm"). Both are interpreted in the
	// host's local time zone when the reminder is armed.
	Date string `gorm:"not null" json:"date"`
	Time string `gorm:"not null" json:"time"`

	// ReminderMinutes is the lead time before the meeting at which the
	// reminder fires.
	ReminderMinutes int `gorm:"default:120" json:"reminderTime"`

	Status       string `gorm:"type:varchar(20);default:'scheduled'" json:"status"`
	ReminderSent bool   `gorm:"default:false" json:"reminderSent"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *Meeting) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
