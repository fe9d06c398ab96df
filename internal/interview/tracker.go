package interview

import (
	"strings"
	"sync"
)

// Tracker 是单个连接上的题库：预生成的可用题目和已提问题目。
// 被标记为已提问的题目会从可用列表中移除。
type Tracker struct {
	mu        sync.Mutex
	available []string
	asked     []string
}

// NewTracker 以一组预生成的题目创建题库。
func NewTracker(questions []string) *Tracker {
	available := make([]string, len(questions))
	copy(available, questions)
	return &Tracker{available: available}
}

// Available 返回尚未提问的题目副本。
func (t *Tracker) Available() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.available))
	copy(out, t.available)
	return out
}

// Asked 返回已提问题目的副本，按提问顺序排列。
func (t *Tracker) Asked() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.asked))
	copy(out, t.asked)
	return out
}

// MarkAsked 记录一道已发出的题目。模型往往会改写题库中的题目，
// 因此按规范化后的相等或包含关系在可用列表中查找，找到则移除。
func (t *Tracker) MarkAsked(question string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.asked = append(t.asked, question)
	q := normalizeQuestion(question)
	for i, candidate := range t.available {
		c := normalizeQuestion(candidate)
		if c == q || (c != "" && (strings.Contains(q, c) || strings.Contains(c, q))) {
			t.available = append(t.available[:i], t.available[i+1:]...)
			return
		}
	}
}

func normalizeQuestion(s string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(s), "?¿. "))
}
