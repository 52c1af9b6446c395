package bot

import (
	"Linkboard/internal/pkg/consts"
	"errors"
	"strconv"
	"strings"
)

var ErrUnknownAction = errors.New("unknown action")

var knownActions = map[string]struct{}{
	consts.ActionUpvote:   {},
	consts.ActionDownvote: {},
	consts.ActionViewLink: {},
	consts.ActionDelete:   {},
}

// Action 回调按钮携带的动作，序列化为 name_linkId
type Action struct {
	Name   string
	LinkID uint64
}

func (a Action) String() string {
	return FormatAction(a.Name, a.LinkID)
}

func FormatAction(name string, linkID uint64) string {
	return name + "_" + strconv.FormatUint(linkID, 10)
}

// ParseAction 以最后一个下划线切分，动作名本身可以带下划线（view_link_42）
func ParseAction(data string) (Action, error) {
	idx := strings.LastIndex(data, "_")
	if idx <= 0 || idx == len(data)-1 {
		return Action{}, ErrUnknownAction
	}

	name := data[:idx]
	if _, ok := knownActions[name]; !ok {
		return Action{}, ErrUnknownAction
	}
	id, err := strconv.ParseUint(data[idx+1:], 10, 64)
	if err != nil || id == 0 {
		return Action{}, ErrUnknownAction
	}
	return Action{Name: name, LinkID: id}, nil
}
