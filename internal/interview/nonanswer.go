// Package interview 包含面试引擎中与存储、传输无关的部分：
// 非回答识别、兜底评分、LLM 响应解析、问答配对、提示词构建、题库追踪与状态机。
package interview

import (
	"strings"
	"unicode"
)

// nonAnswerPhrases 是拒答/不知道类回答的固定短语表（已小写）。
// "yes" 在表中会让肯定回答也计入连续非回答计数，这是现有行为，保留不改。
var nonAnswerPhrases = []string{
	"no",
	"yes",
	"nope",
	"nothing",
	"idk",
	"i don't know",
	"i dont know",
	"don't know",
	"dont know",
	"i do not know",
	"no idea",
	"n/a",
	"not sure",
	"i'm not sure",
	"im not sure",
	"no experience",
	"haven't",
	"have not",
	"can't say",
	"cannot say",
	"no comment",
	"pass",
	"skip",
	"no sé",
	"no se",
	"ni idea",
	"no lo sé",
	"no lo se",
	"no estoy seguro",
	"no estoy segura",
	"no tengo experiencia",
	"no tengo idea",
	"nada",
	"paso",
}

// IsNonAnswer 判断一段回答是否属于拒答或表示不知道。
// 规范化（去首尾空白、转小写）后，满足以下任一条件即命中：
// 与短语完全相同；以 "短语 " 开头；包含 "短语." 或 "短语,"（且短语前是词边界）。
func IsNonAnswer(answer string) bool {
	normalized := strings.ToLower(strings.TrimSpace(answer))
	if normalized == "" {
		return false
	}
	for _, phrase := range nonAnswerPhrases {
		if normalized == phrase || strings.HasPrefix(normalized, phrase+" ") {
			return true
		}
		if containsAtWordStart(normalized, phrase+".") || containsAtWordStart(normalized, phrase+",") {
			return true
		}
	}
	return false
}

// containsAtWordStart 报告 needle 是否出现在 s 中且其前一个字符不是字母或数字。
func containsAtWordStart(s, needle string) bool {
	offset := 0
	for {
		idx := strings.Index(s[offset:], needle)
		if idx < 0 {
			return false
		}
		pos := offset + idx
		if pos == 0 {
			return true
		}
		prev := []rune(s[:pos])
		r := prev[len(prev)-1]
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return true
		}
		offset = pos + 1
	}
}
