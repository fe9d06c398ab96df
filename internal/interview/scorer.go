package interview

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"interview-coach-go/internal/model"
)

// keyboardFragments 是键盘同一行上的连续按键片段，常见于乱敲的回答。
var keyboardFragments = []string{"asd", "zxc", "qwe", "tyu", "iop", "jkl", "bnm"}

// ScoreAnswer 为单个回答给出 0-100 的启发式质量分，仅在 LLM 评估不可用时使用。
// 规则按顺序匹配，先命中者生效。
func ScoreAnswer(answer string) int {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return 0
	}
	if IsNonAnswer(trimmed) {
		return 0
	}
	length := utf8.RuneCountInString(trimmed)
	if length < 3 {
		return 0
	}
	if isNonsense(trimmed) {
		return 5
	}
	switch {
	case length < 10:
		return 10
	case length < 20:
		return 20
	case length < 50:
		return 40
	case length < 100:
		return 60
	case length < 200:
		return 80
	default:
		return 90
	}
}

// isNonsense 识别乱敲键盘式的回答。
func isNonsense(text string) bool {
	lower := []rune(strings.ToLower(text))
	if hasNearbyRepeat(lower) {
		return true
	}
	if len(lower) < 5 && !strings.ContainsAny(string(lower), " .") {
		return true
	}
	s := string(lower)
	for _, frag := range keyboardFragments {
		if strings.Contains(s, frag) {
			return true
		}
	}
	return false
}

// hasNearbyRepeat 报告是否存在一个 3 字符片段，在其结束后 2 个字符以内再次出现（如 "asdasd"）。
// 更长的重复片段必然包含一个满足条件的 3 字符前缀，因此只需检查长度 3。
func hasNearbyRepeat(r []rune) bool {
	const n = 3
	for i := 0; i+n <= len(r); i++ {
		for gap := 0; gap <= 2; gap++ {
			j := i + n + gap
			if j+n > len(r) {
				break
			}
			if string(r[i:i+n]) == string(r[j:j+n]) {
				return true
			}
		}
	}
	return false
}

// AggregateScore 返回一组问答的平均分（上限 100），没有问答时为 0。
func AggregateScore(pairs []QAPair) int {
	if len(pairs) == 0 {
		return 0
	}
	total := 0
	for _, p := range pairs {
		total += ScoreAnswer(p.Answer)
	}
	avg := total / len(pairs)
	if avg > 100 {
		avg = 100
	}
	return avg
}

// PerformanceLevel 按 80/60/40 分档给出表现等级。
func PerformanceLevel(score int, lang model.Language) string {
	t := TextsFor(lang)
	switch {
	case score >= 80:
		return t.LevelExcellent
	case score >= 60:
		return t.LevelGood
	case score >= 40:
		return t.LevelFair
	default:
		return t.LevelNeedsImprovement
	}
}

// FallbackEvaluation 在没有 LLM 评估结果时生成一份降级的评估文本。
// 它不会写入正式结果，只用于结果页的临时展示。
func FallbackEvaluation(pairs []QAPair, lang model.Language) (int, string) {
	t := TextsFor(lang)
	if len(pairs) == 0 {
		return 0, t.NoQuestionsAnswered
	}
	score := AggregateScore(pairs)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", t.FallbackHeader)
	fmt.Fprintf(&b, "%s %d/100 (%s)\n\n", t.ScoreLabel, score, PerformanceLevel(score, lang))
	for i, p := range pairs {
		fmt.Fprintf(&b, "%d. %s -> %d/100\n", i+1, truncateRunes(p.Question, 120), ScoreAnswer(p.Answer))
	}
	return score, strings.TrimRight(b.String(), "\n")
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
