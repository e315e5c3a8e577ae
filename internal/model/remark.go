package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Remark struct {
	ID            int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	ComplaintID   int64            `gorm:"not null" json:"complaint_id"`
	AuthorID      uuid.UUID        `gorm:"type:uuid;not null" json:"author_id"`
	AuthorRole    UserRole         `gorm:"type:varchar(32);not null" json:"author_role"`
	TransportNote *string          `gorm:"type:text" json:"transport_note"`
	CheckingNote  *string          `gorm:"type:text" json:"checking_note"`
	Remark        *string          `gorm:"column:remark;type:text" json:"remark"`
	Status        *ComplaintStatus `gorm:"type:complaint_status" json:"status"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Remark) TableName() string {
	return "complaint_remarks"
}

func (r *Remark) IsAuthoredBy(p Principal) bool {
	return r.AuthorID == p.UserID && r.AuthorRole == p.Role
}

// RemarkFields carries the optional sub-fields of a remark. A nil pointer
// means "not supplied"; blank strings are normalised to nil.
type RemarkFields struct {
	Status        *ComplaintStatus
	TransportNote *string
	CheckingNote  *string
	Remark        *string
}

func (f RemarkFields) Normalize() RemarkFields {
	return RemarkFields{
		Status:        f.Status,
		TransportNote: trimmedOrNil(f.TransportNote),
		CheckingNote:  trimmedOrNil(f.CheckingNote),
		Remark:        trimmedOrNil(f.Remark),
	}
}

func (f RemarkFields) Empty() bool {
	return f.Status == nil && f.TransportNote == nil && f.CheckingNote == nil && f.Remark == nil
}

func (f RemarkFields) HasNotes() bool {
	return f.TransportNote != nil || f.CheckingNote != nil || f.Remark != nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
