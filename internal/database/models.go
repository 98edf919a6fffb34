package database

import (
	"time"

	"gorm.io/datatypes"
)

// User 表示系统中的账号信息。
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;size:50;not null"`
	Email        string `gorm:"uniqueIndex;size:100;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time
	LastLogin    *time.Time
	Jobs         []Job `gorm:"constraint:OnDelete:CASCADE"`
}

// Job 表示用户记录的一条求职申请。
type Job struct {
	ID              uint            `gorm:"primaryKey"`
	UserID          uint            `gorm:"index;not null"`
	Title           string          `gorm:"size:100;not null"`
	Company         string          `gorm:"size:100;not null"`
	Status          string          `gorm:"size:16;not null;default:applied;index"`
	ApplicationDate datatypes.Date  `gorm:"index"`
	DeadlineDate    *datatypes.Date `gorm:"index"`
	Notes           *string         `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
