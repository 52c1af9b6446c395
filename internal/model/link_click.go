package model

import (
	"time"
)

// LinkClick 点击去重集合，(link_id, user_id) 唯一
type LinkClick struct {
	LinkID    uint64    `gorm:"primaryKey;autoIncrement:false" json:"linkId"`
	UserID    uint64    `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (LinkClick) TableName() string {
	return "link_clicks"
}
