package model

import (
	"time"
)

type Link struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"type:varchar(100);not null" json:"title"`
	URL        string    `gorm:"type:varchar(255);not null" json:"url"`
	UserID     uint64    `gorm:"not null;index:idx_user_id" json:"user_id"`
	Clicks     int       `gorm:"not null;default:0" json:"clicks"`
	Upvotes    int       `gorm:"not null;default:0" json:"upvotes"`
	Downvotes  int       `gorm:"not null;default:0" json:"downvotes"`
	Score      float64   `gorm:"not null;default:0;index:idx_score_submit,priority:1" json:"score"`
	SubmitDate time.Time `gorm:"not null;index:idx_score_submit,priority:2" json:"submit_date"`
}

func (Link) TableName() string {
	return "links"
}

// IsExpired 提交时间距 now 超过 retentionDays 天
func (l *Link) IsExpired(retentionDays int, now time.Time) bool {
	return now.Sub(l.SubmitDate) > time.Duration(retentionDays)*24*time.Hour
}
