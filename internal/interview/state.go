package interview

import (
	"fmt"
	"strings"
)

// State 是单个连接上面试会话的阶段。
type State int

const (
	StateIdle State = iota // 连接上没有绑定会话
	StateCreated
	StateAwaitingGreeting
	StateInProgress
	StateExitOfferPending
	StatePaused // 从存储中重新加载、尚未完成的会话
	StateCompleted
)

var stateNames = map[State]string{
	StateIdle:             "idle",
	StateCreated:          "created",
	StateAwaitingGreeting: "awaiting_greeting",
	StateInProgress:       "in_progress",
	StateExitOfferPending: "exit_offer_pending",
	StatePaused:           "paused",
	StateCompleted:        "completed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// transitions 是允许的状态迁移表。
var transitions = map[State][]State{
	StateIdle:             {StateCreated, StatePaused},
	StateCreated:          {StateAwaitingGreeting, StateIdle},
	StateAwaitingGreeting: {StateInProgress, StateCompleted},
	StateInProgress:       {StateExitOfferPending, StateCompleted},
	StateExitOfferPending: {StateInProgress, StateCompleted},
	StatePaused:           {StateAwaitingGreeting, StateInProgress, StateIdle},
	StateCompleted:        {StateIdle},
}

// CanTransition 报告从 from 到 to 的迁移是否合法。
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Active 报告该状态下是否可以接收回答。
func (s State) Active() bool {
	switch s {
	case StateAwaitingGreeting, StateInProgress, StateExitOfferPending:
		return true
	}
	return false
}

// ExitDecision 是对退出提议的回复的解释结果。
type ExitDecision int

const (
	ExitUnclear ExitDecision = iota
	ExitEnd
	ExitContinue
)

var (
	endPatterns      = []string{"no", "end", "stop", "finish", "terminate", "exit", "quit"}
	continuePatterns = []string{"yes", "continue", "go on", "keep going", "proceed"}
)

// InterpretExitReply 用字面量模式集合解释用户对退出提议的回复：
// 完全相等或以 "模式 " 开头即匹配，先检查结束模式。
func InterpretExitReply(reply string) ExitDecision {
	normalized := normalizeReply(reply)
	if matchesAny(normalized, endPatterns) {
		return ExitEnd
	}
	if matchesAny(normalized, continuePatterns) {
		return ExitContinue
	}
	return ExitUnclear
}

func matchesAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if s == p || strings.HasPrefix(s, p+" ") {
			return true
		}
	}
	return false
}

func normalizeReply(s string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(s), ".!"))
}
