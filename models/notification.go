package models

import (
	"time"

	"gorm.io/datatypes"
)

type Notification struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	OrganizationID uint           `gorm:"not null;index" json:"organization_id"`
	UserID         *uint          `gorm:"index" json:"user_id"`
	Event          string         `gorm:"type:varchar(50);not null" json:"event"`
	Title          string         `gorm:"type:varchar(100)" json:"title"`
	Message        string         `gorm:"type:text;not null" json:"message"`
	Data           datatypes.JSON `json:"data"`
	ReadAt         *time.Time     `json:"read_at"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
}
