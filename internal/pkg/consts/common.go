package consts

// 回调按钮动作，格式为 action_linkId
const (
	ActionUpvote   = "upvote"
	ActionDownvote = "downvote"
	ActionViewLink = "view_link"
	ActionDelete   = "delete"
)

const (
	TimeLayout = "2006-01-02 15:04:05 UTC"
)
