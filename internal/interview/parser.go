package interview

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ObjectiveMetSentinel 是模型认为面试目标已达成时返回的字面量。
const ObjectiveMetSentinel = "OBJECTIVE_MET"

// QuestionBankSize 是每次初始化题库需要生成的题目数量。
const QuestionBankSize = 10

var (
	// ErrEmptyCompletion 表示 LLM 返回为空或带有错误标记。
	ErrEmptyCompletion = errors.New("interview: empty or failed completion")
	// ErrTooFewQuestions 表示题库响应中解析出的有效题目不足。
	ErrTooFewQuestions = errors.New("interview: too few questions in completion")
	// ErrNoQuestion 表示去掉编号前缀后没有剩下任何问题文本。
	ErrNoQuestion = errors.New("interview: completion contained no question")
)

var (
	numberedLine   = regexp.MustCompile(`^\d+\.\s*(.+)$`)
	questionPrefix = regexp.MustCompile(`(?i)^(?:\*\*)?\s*(?:\d+\s*[.)]\s*)?(?:(?:question|pregunta)\s*\d*\s*[:.\-]\s*)?(?:\*\*)?\s*`)
	scorePattern   = regexp.MustCompile(`Score:\s*\**\s*(\d+)`)
	puntuacion     = regexp.MustCompile(`Puntuación:\s*\**\s*(\d+)`)
)

// IsFailure 报告一段 LLM 输出是否应视为失败：为空，或以错误标记开头。
func IsFailure(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == "" || strings.HasPrefix(t, "error:") || strings.HasPrefix(t, "[error]")
}

// ParseQuestionList 从题库响应中解析出恰好 QuestionBankSize 道不重复的题目。
// 优先取 "N. 题目" 形式且题目长度大于 5 的行，其余行中包含 "?" 且长度大于 10 的作为宽松兜底。
func ParseQuestionList(raw string) ([]string, error) {
	if IsFailure(raw) {
		return nil, ErrEmptyCompletion
	}
	seen := make(map[string]struct{})
	var questions []string
	add := func(q string) {
		key := strings.ToLower(q)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		questions = append(questions, q)
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := numberedLine.FindStringSubmatch(line); m != nil {
			if q := strings.TrimSpace(m[1]); len(q) > 5 {
				add(q)
				continue
			}
		}
		if strings.Contains(line, "?") && len(line) > 10 {
			add(line)
		}
	}

	if len(questions) < QuestionBankSize {
		return nil, ErrTooFewQuestions
	}
	return questions[:QuestionBankSize], nil
}

// ReplyKind 区分面试官回复的类型。
type ReplyKind int

const (
	ReplyQuestion ReplyKind = iota
	ReplyObjectiveMet
)

// Reply 是解析后的面试官回复。Kind 为 ReplyQuestion 时 Question 是去掉编号前缀的题目文本。
type Reply struct {
	Kind     ReplyKind
	Question string
}

// ParseInterviewerReply 解析 "下一题" 请求的响应。
func ParseInterviewerReply(raw string) (Reply, error) {
	if IsFailure(raw) {
		return Reply{}, ErrEmptyCompletion
	}
	trimmed := strings.TrimSpace(raw)
	if strings.EqualFold(trimmed, ObjectiveMetSentinel) {
		return Reply{Kind: ReplyObjectiveMet}, nil
	}
	q := strings.TrimSpace(questionPrefix.ReplaceAllString(trimmed, ""))
	if q == "" {
		return Reply{}, ErrNoQuestion
	}
	return Reply{Kind: ReplyQuestion, Question: q}, nil
}

// ParseScore 从评估文本中提取 "Score: NN"，其次是 "Puntuación: NN"。
// 结果被限制在 [0,100]；两种格式都不匹配时返回 0 和 false。
func ParseScore(evaluation string) (int, bool) {
	for _, re := range []*regexp.Regexp{scorePattern, puntuacion} {
		m := re.FindStringSubmatch(evaluation)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			// 数字超出 int 范围
			return 100, true
		}
		return clampScore(n), true
	}
	return 0, false
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
