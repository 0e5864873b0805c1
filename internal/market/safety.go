package market

import "strings"

// ContentFilter 挂单描述的内容安全检查：长度上限 + 违禁词
type ContentFilter struct {
	MaxLen  int
	Banned  []string
	lowered []string
}

// 默认违禁词，平台运营可在配置中追加
var defaultBanned = []string{
	"代练", "外挂", "脚本", "私服", "rmb", "微信", "qq群",
}

// NewContentFilter builds a filter; banned patterns match case-insensitively.
func NewContentFilter(maxLen int, extra ...string) *ContentFilter {
	if maxLen <= 0 {
		maxLen = 500
	}
	banned := append(append([]string{}, defaultBanned...), extra...)
	lowered := make([]string, len(banned))
	for i, b := range banned {
		lowered[i] = strings.ToLower(b)
	}
	return &ContentFilter{MaxLen: maxLen, Banned: banned, lowered: lowered}
}

// Check 校验描述文本，非法时返回 InvalidInput
func (f *ContentFilter) Check(text string) error {
	if len(text) > f.MaxLen {
		return E(KindInvalidInput, "描述过长")
	}
	if f.ContainsBannedPattern(text) {
		return E(KindInvalidInput, "描述包含违禁内容")
	}
	return nil
}

// ContainsBannedPattern reports whether text contains any banned pattern.
func (f *ContentFilter) ContainsBannedPattern(text string) bool {
	t := strings.ToLower(text)
	for _, b := range f.lowered {
		if b != "" && strings.Contains(t, b) {
			return true
		}
	}
	return false
}
