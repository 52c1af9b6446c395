package model

import (
	"time"
)

type User struct {
	UserID     uint64  `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Credits    int     `gorm:"not null" json:"credits"`
	ReferredBy *uint64 `gorm:"index:idx_referred_by" json:"referred_by"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (User) TableName() string {
	return "users"
}
