package model

import (
	"time"
)

// LinkVote 投票去重集合，(link_id, user_id) 唯一
type LinkVote struct {
	LinkID    uint64    `gorm:"primaryKey;autoIncrement:false" json:"linkId"`
	UserID    uint64    `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	IsUpvote  bool      `gorm:"not null" json:"isUpvote"`
	CreatedAt time.Time `json:"createdAt"`
}

func (LinkVote) TableName() string {
	return "link_votes"
}
