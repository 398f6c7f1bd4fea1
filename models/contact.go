// models/contact.go
package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ContactKindTeacher = "teacher"
	ContactKindStudent = "student"
)

// Contact is an imported teacher or student from a CSV upload, with an
// optional per-contact message template for the sheet poller.
type Contact struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Kind    string    `gorm:"type:varchar(20);index;not null" json:"kind"`
	Name    string    `gorm:"not null" json:"name"`
	Phone   string    `gorm:"not null" json:"phone"`
	Message string    `gorm:"type:text" json:"message"`

	gorm.Model `json:"-"`
}

func (ct *Contact) BeforeCreate(tx *gorm.DB) (err error) {
	if ct.ID == uuid.Nil {
		ct.ID = uuid.New()
	}
	return
}
