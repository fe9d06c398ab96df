package interview

import (
	"fmt"
	"sync"
	"time"

	"interview-coach-go/internal/model"
)

// Notifier 把服务端推送发送给连接另一端的客户端。
type Notifier interface {
	Message(speaker, text string) error
	InterviewCompleted(score int, evaluation string) error
	RedirectToResults(sessionID string) error
}

// Conn 是单个客户端连接的上下文，由传输层持有并显式传入状态机。
// 会话绑定、题库、连续非回答计数和状态都挂在这里，断开时一次性清理。
type Conn struct {
	ID     string
	UserID uint
	notify Notifier

	// initMu 保证同一连接上的题库只初始化一次
	initMu sync.Mutex

	mu         sync.Mutex
	session    *model.InterviewSession
	subtopic   *model.Subtopic
	tracker    *Tracker
	state      State
	nonAnswers int
	pending    []model.ChatMessage
	lastTS     time.Time
	closed     bool
}

// NewConn 创建一个空闲的连接上下文。
func NewConn(id string, userID uint, notify Notifier) *Conn {
	return &Conn{ID: id, UserID: userID, notify: notify, state: StateIdle}
}

// Notifier 返回该连接的推送通道。
func (c *Conn) Notifier() Notifier {
	return c.notify
}

// Bind 把会话绑定到连接并进入给定状态，同时重置所有逐连接的计数。
func (c *Conn) Bind(session *model.InterviewSession, subtopic *model.Subtopic, state State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("connection %s is closed", c.ID)
	}
	if !CanTransition(c.state, state) {
		return fmt.Errorf("illegal transition %s -> %s", c.state, state)
	}
	c.session = session
	c.subtopic = subtopic
	c.state = state
	c.nonAnswers = 0
	c.pending = nil
	return nil
}

// Session 返回当前绑定的会话及其主题，没有绑定时返回 nil。
func (c *Conn) Session() (*model.InterviewSession, *model.Subtopic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session, c.subtopic
}

// State 返回当前状态。
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transition 按迁移表切换状态。
func (c *Conn) Transition(to State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !CanTransition(c.state, to) {
		return fmt.Errorf("illegal transition %s -> %s", c.state, to)
	}
	c.state = to
	return nil
}

// RecordAnswer 根据回答是否为非回答更新连续计数，并返回更新后的值。
func (c *Conn) RecordAnswer(nonAnswer bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if nonAnswer {
		c.nonAnswers++
	} else {
		c.nonAnswers = 0
	}
	return c.nonAnswers
}

// ResetNonAnswers 将连续非回答计数清零。
func (c *Conn) ResetNonAnswers() {
	c.mu.Lock()
	c.nonAnswers = 0
	c.mu.Unlock()
}

// RestoreNonAnswers 把连续非回答计数恢复为 n，仅在连接仍绑定 sessionID 时生效。
func (c *Conn) RestoreNonAnswers(sessionID string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.session == nil || c.session.ID != sessionID {
		return
	}
	c.nonAnswers = n
}

// NonAnswers 返回当前连续非回答计数。
func (c *Conn) NonAnswers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonAnswers
}

// Tracker 返回当前题库，未初始化时为 nil。
func (c *Conn) Tracker() *Tracker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker
}

// InitTracker 在 initMu 保护下初始化题库，已存在时直接返回。
// generate 失败时题库保持为空，调用方负责回滚。
func (c *Conn) InitTracker(generate func() ([]string, error)) (*Tracker, error) {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if t := c.Tracker(); t != nil {
		return t, nil
	}
	questions, err := generate()
	if err != nil {
		return nil, err
	}
	t := NewTracker(questions)
	c.mu.Lock()
	c.tracker = t
	c.mu.Unlock()
	return t, nil
}

// NextTimestamp 返回一个在本连接内严格递增的消息时间戳（微秒精度）。
func (c *Conn) NextTimestamp() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(c.lastTS) {
		now = c.lastTS.Add(time.Microsecond)
	}
	c.lastTS = now
	return now
}

// AddPending 缓存一条写入失败的消息，完成面试时会再次尝试保存。
func (c *Conn) AddPending(msg model.ChatMessage) {
	c.mu.Lock()
	c.pending = append(c.pending, msg)
	c.mu.Unlock()
}

// TakePending 取出并清空待保存的消息。
func (c *Conn) TakePending() []model.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.pending
	c.pending = nil
	return p
}

// Pending 返回待保存消息的副本。
func (c *Conn) Pending() []model.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.ChatMessage, len(c.pending))
	copy(out, c.pending)
	return out
}

// Owns 报告连接仍然打开且仍绑定着指定会话。迟到的 LLM 结果在使用前必须通过此检查。
func (c *Conn) Owns(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.session != nil && c.session.ID == sessionID
}

// Clear 清除会话绑定和所有逐连接状态，返回之前绑定的会话。
func (c *Conn) Clear() *model.InterviewSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.session
	c.session = nil
	c.subtopic = nil
	c.tracker = nil
	c.nonAnswers = 0
	c.pending = nil
	c.state = StateIdle
	return prev
}

// Close 标记连接已断开。
func (c *Conn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Closed 报告连接是否已断开。
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Registry 是进程内所有连接上下文的注册表，按连接 ID 索引。
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewRegistry 创建一个空注册表。
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Conn)}
}

// Add 注册连接，ID 已存在时返回 false。
func (r *Registry) Add(c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c.ID]; ok {
		return false
	}
	r.conns[c.ID] = c
	return true
}

// Remove 注销连接并返回它。
func (r *Registry) Remove(id string) (*Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if ok {
		delete(r.conns, id)
	}
	return c, ok
}

// Get 按 ID 查找连接。
func (r *Registry) Get(id string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

// SessionOwner 返回当前绑定了指定会话的其他打开连接。
func (r *Registry) SessionOwner(sessionID string, except string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, c := range r.conns {
		if id != except && c.Owns(sessionID) {
			return c, true
		}
	}
	return nil, false
}

// Len 返回当前注册的连接数。
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
