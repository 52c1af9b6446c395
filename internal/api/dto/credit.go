package dto

// CreditDTO 用户积分
type CreditDTO struct {
	UserID     uint64  `json:"user_id"`
	Credits    int     `json:"credits"`
	Unlimited  bool    `json:"unlimited"`
	ReferredBy *uint64 `json:"referred_by,omitempty"`
}

// ReferralPromptDTO 积分不足时引导邀请
type ReferralPromptDTO struct {
	UserID        uint64 `json:"user_id"`
	StartPayload  string `json:"start_payload"`
	DeepLink      string `json:"deep_link,omitempty"`
	ReferralBonus int    `json:"referral_bonus"`
}
