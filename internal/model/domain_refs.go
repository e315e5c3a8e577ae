package model

import "github.com/google/uuid"

// The tables below belong to the identity and master-data services. This
// service only reads them.

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName string    `gorm:"type:varchar(255)"`
	Role     UserRole  `gorm:"type:varchar(32)"`
	IsActive bool      `gorm:"column:is_active"`
}

func (User) TableName() string {
	return "users"
}

type Category struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"type:varchar(255)"`
}

func (Category) TableName() string {
	return "complaint_categories"
}

type Subcategory struct {
	ID         int64  `gorm:"primaryKey"`
	CategoryID int64  `gorm:"not null"`
	Name       string `gorm:"type:varchar(255)"`
}

func (Subcategory) TableName() string {
	return "complaint_subcategories"
}

type Brand struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"type:varchar(255)"`
}

func (Brand) TableName() string {
	return "brands"
}
