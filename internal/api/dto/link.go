package dto

// LinkDTO 链接详情
type LinkDTO struct {
	ID            uint64   `json:"id"`
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	UserID        uint64   `json:"user_id"`
	Clicks        int      `json:"clicks"`
	Upvotes       int      `json:"upvotes"`
	Downvotes     int      `json:"downvotes"`
	Score         float64  `json:"score"`
	TrendingScore *float64 `json:"trending_score,omitempty"`
	SubmitDate    string   `json:"submit_date"`
}

// LinkListReq 链接列表查询
type LinkListReq struct {
	Sort  string `form:"sort" binding:"omitempty,oneof=score trending"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// LinkViewDTO 经过积分校验后的链接详情
type LinkViewDTO struct {
	Link             *LinkDTO `json:"link"`
	Charged          bool     `json:"charged"`
	RemainingCredits *int     `json:"remaining_credits,omitempty"`
}
