// Package validation 标题与群组链接的纯函数校验
package validation

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	TitleMinLength = 3
	TitleMaxLength = 100

	// LinkMaxLength 规范化后的长度上限，与 links.url 列宽一致
	LinkMaxLength = 255
)

var canonicalHosts = map[string]struct{}{
	"t.me":        {},
	"telegram.me": {},
}

var reservedWords = map[string]struct{}{
	"admin": {}, "support": {}, "telegram": {}, "abuse": {}, "contact": {},
	"spam": {}, "scam": {}, "fake": {}, "official": {}, "help": {}, "bot": {},
	"service": {}, "security": {}, "verification": {},
}

type rule struct {
	pattern *regexp.Regexp
	reason  string
}

var (
	titleInvalidChars = regexp.MustCompile(`[<>{}\[\]\\/@#$%^&*()]`)

	spamRules = []rule{
		{regexp.MustCompile(`(?i)\b(?:buy|sell|spam)\b`), "Commercial spam detected"},
		{regexp.MustCompile(`(?i)\b(?:xxx|porn|adult)\b`), "Adult content not allowed"},
		{regexp.MustCompile(`(?i)\b(?:hack|crack|cheat)\b`), "Malicious content detected"},
		{regexp.MustCompile(`(?i)\b(?:free.*money|easy.*cash)\b`), "Suspicious promotional content"},
		{regexp.MustCompile(`(?i)\b(?:bitcoin|crypto.*invest)\b`), "Cryptocurrency spam detected"},
	}

	injectionRules = []rule{
		{regexp.MustCompile(`(?i)javascript:`), "JavaScript injection attempt detected"},
		{regexp.MustCompile(`(?i)vbscript:`), "VBScript not allowed"},
		{regexp.MustCompile(`(?i)data:`), "Data URI not allowed"},
		{regexp.MustCompile(`(?i)file:`), "File protocol not allowed"},
		{regexp.MustCompile(`(?i)about:`), "About protocol not allowed"},
		{regexp.MustCompile(`[<>]`), "HTML tags not allowed"},
		{regexp.MustCompile(`['";{}]`), "Special characters not allowed"},
	}

	publicHandle  = regexp.MustCompile(`^[a-zA-Z0-9_]{5,64}$`)
	joinChatCode  = regexp.MustCompile(`^[a-zA-Z0-9_-]{16,}$`)
	allowedPrefix = []string{"https://", "http://", "t.me/", "telegram.me/"}
)

// ValidateTitle 校验链接标题，失败时返回第一条未通过规则的原因
func ValidateTitle(text string) (bool, string) {
	if text == "" {
		return false, "Title cannot be empty"
	}

	title := strings.TrimSpace(text)
	n := utf8.RuneCountInString(title)
	if n < TitleMinLength {
		return false, "Title must be at least 3 characters long"
	}
	if n > TitleMaxLength {
		return false, "Title must not exceed 100 characters"
	}

	if titleInvalidChars.MatchString(title) {
		return false, "Title contains invalid characters"
	}

	for _, r := range spamRules {
		if r.pattern.MatchString(title) {
			return false, "Invalid content: " + r.reason
		}
	}

	return true, ""
}

// ValidateGroupLink 校验群组链接，支持公开用户名、+邀请码和 joinchat 三种形式
func ValidateGroupLink(text string) (bool, string) {
	if text == "" {
		return false, "URL cannot be empty"
	}

	raw := strings.TrimSpace(text)
	for _, r := range injectionRules {
		if r.pattern.MatchString(raw) {
			return false, "Security violation: " + r.reason
		}
	}

	host, path, reason := splitLink(raw)
	if reason != "" {
		return false, reason
	}
	if _, ok := canonicalHosts[host]; !ok {
		return false, "URL must be from t.me or telegram.me domain"
	}
	if len(joinLink(host, path)) > LinkMaxLength {
		return false, "URL must not exceed 255 characters"
	}

	switch {
	case strings.HasPrefix(path, "joinchat/"):
		code := path[strings.LastIndex(path, "/")+1:]
		if !joinChatCode.MatchString(code) {
			return false, "Invalid private group invite code"
		}
		return true, ""
	case strings.HasPrefix(path, "+"):
		if len(path) < 2 {
			return false, "Invalid private group invite code"
		}
		return true, ""
	}

	if !publicHandle.MatchString(path) {
		return false, "Invalid public group username format"
	}
	if _, reserved := reservedWords[strings.ToLower(path)]; reserved {
		return false, "Username contains reserved word"
	}

	return true, ""
}

// NormalizeGroupLink 统一为 https://host/path 形式，调用前应已通过 ValidateGroupLink
func NormalizeGroupLink(text string) string {
	host, path, reason := splitLink(strings.TrimSpace(text))
	if reason != "" {
		return strings.TrimSpace(text)
	}
	return joinLink(host, path)
}

func joinLink(host, path string) string {
	return "https://" + host + "/" + path
}

func splitLink(raw string) (host, path, reason string) {
	lower := strings.ToLower(raw)
	matched := false
	for _, p := range allowedPrefix {
		if strings.HasPrefix(lower, p) {
			matched = true
			break
		}
	}
	if !matched {
		return "", "", "URL must start with 'https://', 'http://', or 't.me/'"
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", "Malformed URL"
	}
	// user@t.me 这类写法的真实主机不是 t.me 的展示形式
	if u.User != nil {
		return "", "", "URL must not contain user credentials"
	}
	return strings.ToLower(u.Host), strings.Trim(u.Path, "/"), ""
}
