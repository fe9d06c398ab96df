package interview

import (
	"strings"

	"interview-coach-go/internal/model"
)

// QAPair 是从对话记录中按位置推导出的一组问答。
type QAPair struct {
	Question string
	Answer   string
}

// LooksLikeQuestion 报告一条机器人消息是否是题目（包含 "Question" 或 "Pregunta"）。
func LooksLikeQuestion(content string) bool {
	return strings.Contains(content, "Question") || strings.Contains(content, "Pregunta")
}

// ExtractPairs 扫描按时间排序的消息，把每条题目消息与其后第一条用户消息配对。
// 中间的非题目机器人消息被跳过；遇到下一道题目前仍没有用户回答时使用占位回答。
// 没有前置题目的用户消息不参与配对。
func ExtractPairs(messages []model.ChatMessage) []QAPair {
	var pairs []QAPair
	for i, m := range messages {
		if m.IsUserMessage || !LooksLikeQuestion(m.Content) {
			continue
		}
		answer := NoAnswerPlaceholder
		for _, next := range messages[i+1:] {
			if next.IsUserMessage {
				answer = next.Content
				break
			}
			if LooksLikeQuestion(next.Content) {
				break
			}
		}
		pairs = append(pairs, QAPair{Question: m.Content, Answer: answer})
	}
	return pairs
}
