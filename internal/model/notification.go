package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationCategory string

const (
	NotificationAssignment           NotificationCategory = "assignment"
	NotificationStatusUpdate         NotificationCategory = "status_update"
	NotificationStatusUpdateDetailed NotificationCategory = "status_update_detailed"
	NotificationTransportUpdate      NotificationCategory = "transport_update"
	NotificationCheckingUpdate       NotificationCategory = "checking_update"
	NotificationRemarkUpdate         NotificationCategory = "remark_update"
	NotificationSystem               NotificationCategory = "system"
)

var notificationCategories = []NotificationCategory{
	NotificationAssignment,
	NotificationStatusUpdate,
	NotificationStatusUpdateDetailed,
	NotificationTransportUpdate,
	NotificationCheckingUpdate,
	NotificationRemarkUpdate,
	NotificationSystem,
}

func NotificationCategories() []NotificationCategory {
	out := make([]NotificationCategory, len(notificationCategories))
	copy(out, notificationCategories)
	return out
}

func (c NotificationCategory) Valid() bool {
	for _, known := range notificationCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Recipient addresses an inbox. The role is part of the key.
type Recipient struct {
	ID   uuid.UUID
	Role UserRole
}

type Notification struct {
	ID            uuid.UUID            `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	RecipientID   uuid.UUID            `gorm:"type:uuid;not null" json:"recipient_id"`
	RecipientRole UserRole             `gorm:"type:varchar(32);not null" json:"recipient_role"`
	ComplaintID   *int64               `json:"complaint_id"`
	Title         string               `gorm:"type:varchar(200);not null" json:"title"`
	Message       string               `gorm:"type:text;not null" json:"message"`
	Category      NotificationCategory `gorm:"type:notification_category;not null" json:"category"`
	IsRead        bool                 `gorm:"not null;default:false" json:"is_read"`
	ReadAt        *time.Time           `json:"read_at"`
	CreatedAt     time.Time            `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) Recipient() Recipient {
	return Recipient{ID: n.RecipientID, Role: n.RecipientRole}
}
