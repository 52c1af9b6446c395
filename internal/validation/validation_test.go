package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTitle(t *testing.T) {
	cases := []struct {
		name   string
		title  string
		ok     bool
		reason string
	}{
		{"valid", "Go Developers Hub", true, ""},
		{"empty", "", false, "Title cannot be empty"},
		{"too short after trim", "  ab  ", false, "Title must be at least 3 characters long"},
		{"too long", strings.Repeat("a", 101), false, "Title must not exceed 100 characters"},
		{"exactly max", strings.Repeat("a", 100), true, ""},
		{"invalid char", "Rust & Go", false, "Title contains invalid characters"},
		{"bracket", "Go [official]", false, "Title contains invalid characters"},
		{"commercial", "Buy followers here", false, "Invalid content: Commercial spam detected"},
		{"adult", "XXX channel", false, "Invalid content: Adult content not allowed"},
		{"malicious", "game cheat codes", false, "Invalid content: Malicious content detected"},
		{"promo", "Get free money now", false, "Invalid content: Suspicious promotional content"},
		{"crypto", "Bitcoin signals", false, "Invalid content: Cryptocurrency spam detected"},
		{"word boundary", "Hackathon crew", true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := ValidateTitle(tc.title)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.reason, reason)
		})
	}
}

func TestValidateGroupLink(t *testing.T) {
	cases := []struct {
		name   string
		link   string
		ok     bool
		reason string
	}{
		{"public handle", "https://t.me/validgroup", true, ""},
		{"bare prefix invite", "t.me/+abc123", true, ""},
		{"telegram.me host", "http://telegram.me/go_lang_chat", true, ""},
		{"joinchat", "https://t.me/joinchat/AbCdEfGhIjKlMnOp", true, ""},
		{"empty", "", false, "URL cannot be empty"},
		{"javascript", "javascript:alert(1)", false, "Security violation: JavaScript injection attempt detected"},
		{"angle brackets", "https://t.me/+<script>", false, "Security violation: HTML tags not allowed"},
		{"quote", "https://t.me/abc'def", false, "Security violation: Special characters not allowed"},
		{"wrong scheme", "ftp://t.me/validgroup", false, "URL must start with 'https://', 'http://', or 't.me/'"},
		{"wrong host", "https://example.com/validgroup", false, "URL must be from t.me or telegram.me domain"},
		{"reserved", "https://t.me/admin", false, "Username contains reserved word"},
		{"reserved long", "https://t.me/verification", false, "Username contains reserved word"},
		{"reserved but too short", "https://t.me/help", false, "Invalid public group username format"},
		{"reserved case", "https://t.me/Support", false, "Username contains reserved word"},
		{"short handle", "https://t.me/abcd", false, "Invalid public group username format"},
		{"empty invite", "https://t.me/+", false, "Invalid private group invite code"},
		{"short joinchat", "https://t.me/joinchat/short", false, "Invalid private group invite code"},
		{"userinfo", "https://evil@t.me/validgroup", false, "URL must not contain user credentials"},
		{"userinfo with password", "https://u:p@t.me/validgroup", false, "URL must not contain user credentials"},
		{"invite at max length", "https://t.me/+" + strings.Repeat("a", 241), true, ""},
		{"invite too long", "t.me/+" + strings.Repeat("a", 242), false, "URL must not exceed 255 characters"},
		{"long invite", "https://t.me/+" + strings.Repeat("b", 300), false, "URL must not exceed 255 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := ValidateGroupLink(tc.link)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.reason, reason)
		})
	}
}

func TestNormalizeGroupLink(t *testing.T) {
	assert.Equal(t, "https://t.me/+abc123", NormalizeGroupLink("t.me/+abc123"))
	assert.Equal(t, "https://t.me/ValidGroup", NormalizeGroupLink(" HTTP://T.ME/ValidGroup/ "))
	assert.Equal(t, "https://telegram.me/joinchat/AbCdEfGhIjKlMnOp", NormalizeGroupLink("telegram.me/joinchat/AbCdEfGhIjKlMnOp"))
}
