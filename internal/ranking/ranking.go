// Package ranking 链接评分与排序
package ranking

import (
	"Linkboard/internal/model"
	"sort"
	"time"
)

const (
	BaseScore      = 2.0
	UpvoteWeight   = 1.5
	DownvoteWeight = 1.0
	ClickWeight    = 0.5
)

const (
	RecentWindow = 24 * time.Hour
	RecentBonus  = 1.2
)

// Score 平铺加权分，所有排序和存储都以它为准
func Score(upvotes, downvotes, clicks int) float64 {
	return BaseScore +
		float64(upvotes)*UpvoteWeight -
		float64(downvotes)*DownvoteWeight +
		float64(clicks)*ClickWeight
}

// LinkScore 按链接当前计数计算分数
func LinkScore(link *model.Link) float64 {
	return Score(link.Upvotes, link.Downvotes, link.Clicks)
}

// TrendingScore 带时间衰减的热度分：24 小时内乘 RecentBonus，之后按 1/(1+days) 衰减，不小于 0
func TrendingScore(link *model.Link, now time.Time) float64 {
	score := LinkScore(link) * timeFactor(link.SubmitDate, now)
	if score < 0 {
		return 0
	}
	return score
}

func timeFactor(submitted, now time.Time) float64 {
	age := now.Sub(submitted)
	if age <= RecentWindow {
		return RecentBonus
	}
	days := age.Hours() / 24
	return 1.0 / (1 + days)
}

// Less 排序规则：分数降序，提交时间降序，最后按 ID 降序保证稳定
func Less(a, b *model.Link) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.SubmitDate.Equal(b.SubmitDate) {
		return a.SubmitDate.After(b.SubmitDate)
	}
	return a.ID > b.ID
}

// Sort 原地排序
func Sort(links []*model.Link) {
	sort.SliceStable(links, func(i, j int) bool {
		return Less(links[i], links[j])
	})
}

// Trending 取 window 内提交的链接按热度分排序，limit <= 0 表示不限
func Trending(links []*model.Link, now time.Time, window time.Duration, limit int) []*model.Link {
	type scored struct {
		link  *model.Link
		score float64
	}

	threshold := now.Add(-window)
	candidates := make([]scored, 0, len(links))
	for _, l := range links {
		if window > 0 && l.SubmitDate.Before(threshold) {
			continue
		}
		candidates = append(candidates, scored{link: l, score: TrendingScore(l, now)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return Less(candidates[i].link, candidates[j].link)
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	res := make([]*model.Link, 0, len(candidates))
	for _, c := range candidates {
		res = append(res, c.link)
	}
	return res
}
