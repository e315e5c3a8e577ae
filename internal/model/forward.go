package model

import (
	"time"

	"github.com/google/uuid"
)

// ForwardRecord is one hand-off of a complaint to a technician. Rows are
// append-only; ordered by id they form the assignment history.
type ForwardRecord struct {
	ID               int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ComplaintID      int64      `gorm:"not null" json:"complaint_id"`
	PreviousAssignee *uuid.UUID `gorm:"type:uuid" json:"previous_assignee"`
	NewAssignee      uuid.UUID  `gorm:"type:uuid;not null" json:"new_assignee"`
	ForwardedBy      uuid.UUID  `gorm:"type:uuid;not null" json:"forwarded_by"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (ForwardRecord) TableName() string {
	return "complaint_forwards"
}
