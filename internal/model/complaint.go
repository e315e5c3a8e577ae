package model

import (
	"time"

	"github.com/google/uuid"
)

type ComplaintStatus string

const (
	ComplaintStatusPending   ComplaintStatus = "pending"
	ComplaintStatusInProcess ComplaintStatus = "in_process"
	ComplaintStatusClosed    ComplaintStatus = "closed"
	ComplaintStatusCancelled ComplaintStatus = "cancelled"
)

func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusPending, ComplaintStatusInProcess, ComplaintStatusClosed, ComplaintStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s ComplaintStatus) Terminal() bool {
	return s == ComplaintStatusClosed || s == ComplaintStatusCancelled
}

type WarrantyStatus string

const (
	WarrantyStatusUnder WarrantyStatus = "Under Warranty"
	WarrantyStatusOver  WarrantyStatus = "Over Warranty"
)

func (w WarrantyStatus) Valid() bool {
	return w == WarrantyStatusUnder || w == WarrantyStatusOver
}

type Complaint struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ReportNumber     string          `gorm:"type:varchar(16);not null;uniqueIndex" json:"report_number"`
	CustomerID       uuid.UUID       `gorm:"type:uuid;not null" json:"customer_id"`
	CategoryID       int64           `gorm:"not null" json:"category_id"`
	SubcategoryID    int64           `gorm:"not null" json:"subcategory_id"`
	BrandID          int64           `gorm:"not null" json:"brand_id"`
	WarrantyStatus   WarrantyStatus  `gorm:"type:warranty_status;not null" json:"warranty_status"`
	Details          string          `gorm:"type:text;not null" json:"details"`
	WarrantyProofURL *string         `gorm:"type:text" json:"warranty_proof_url"`
	ReceiptURL       *string         `gorm:"type:text" json:"receipt_url"`
	Status           ComplaintStatus `gorm:"type:complaint_status;not null;default:'pending'" json:"status"`
	AssignedTo       *uuid.UUID      `gorm:"type:uuid" json:"assigned_to"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Complaint) TableName() string {
	return "complaints"
}

func (c *Complaint) IsOwnedBy(userID uuid.UUID) bool {
	return c.CustomerID == userID
}

func (c *Complaint) IsAssignedTo(userID uuid.UUID) bool {
	return c.AssignedTo != nil && *c.AssignedTo == userID
}
