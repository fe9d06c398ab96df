package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"interview-coach-go/internal/interview"
	"interview-coach-go/internal/model"
	"interview-coach-go/pkg/errs"
	"interview-coach-go/pkg/tasks"
)

// memInterviewRepo 是 InterviewRepository 的内存实现。
type memInterviewRepo struct {
	mu        sync.Mutex
	sessions  map[string]*model.InterviewSession
	messages  []model.ChatMessage
	results   map[string]*model.InterviewResult
	nextID    uint
	appendErr error
	deleted   []string
}

func newMemInterviewRepo() *memInterviewRepo {
	return &memInterviewRepo{
		sessions: make(map[string]*model.InterviewSession),
		results:  make(map[string]*model.InterviewResult),
	}
}

func (r *memInterviewRepo) CreateSession(_ context.Context, s *model.InterviewSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *memInterviewRepo) DeleteSession(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	kept := r.messages[:0]
	for _, m := range r.messages {
		if m.SessionID != id {
			kept = append(kept, m)
		}
	}
	r.messages = kept
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *memInterviewRepo) FindSession(_ context.Context, id string) (*model.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memInterviewRepo) ListSessionsByUser(_ context.Context, userID uint, offset, limit int) ([]model.InterviewSession, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []model.InterviewSession
	for _, s := range r.sessions {
		if s.UserID == userID {
			all = append(all, *s)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartTime.After(all[j].StartTime) })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *memInterviewRepo) AppendMessage(_ context.Context, m *model.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.nextID++
	m.ID = r.nextID
	r.messages = append(r.messages, *m)
	return nil
}

func (r *memInterviewRepo) SaveMessages(_ context.Context, msgs []model.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		if m.ID != 0 {
			continue
		}
		r.nextID++
		m.ID = r.nextID
		r.messages = append(r.messages, m)
	}
	return nil
}

func (r *memInterviewRepo) ListMessages(_ context.Context, sessionID string) ([]model.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ChatMessage
	for _, m := range r.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (r *memInterviewRepo) UpdateQuestionNumber(_ context.Context, id string, n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return errs.ErrNotFound
	}
	s.QuestionNumber = n
	return nil
}

func (r *memInterviewRepo) MarkCompleted(_ context.Context, id string, end time.Time, summary string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Completed {
		return false, nil
	}
	s.Completed = true
	s.EndTime = &end
	s.Summary = summary
	return true, nil
}

func (r *memInterviewRepo) CreateResult(_ context.Context, res *model.InterviewResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.results[res.SessionID]; ok {
		return errors.New("duplicate result")
	}
	r.nextID++
	res.ID = r.nextID
	res.CreatedAt = time.Now()
	cp := *res
	r.results[res.SessionID] = &cp
	return nil
}

func (r *memInterviewRepo) FindResult(_ context.Context, id string) (*model.InterviewResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *memInterviewRepo) session(id string) *model.InterviewSession {
	s, _ := r.FindSession(context.Background(), id)
	return s
}

func (r *memInterviewRepo) sessionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *memInterviewRepo) setAppendErr(err error) {
	r.mu.Lock()
	r.appendErr = err
	r.mu.Unlock()
}

// memSubjectRepo 是 SubjectRepository 的内存实现。
type memSubjectRepo struct {
	catalogs  map[uint]*model.Catalog
	subtopics map[uint]*model.Subtopic
	nextID    uint
}

func newMemSubjectRepo() *memSubjectRepo {
	return &memSubjectRepo{catalogs: map[uint]*model.Catalog{}, subtopics: map[uint]*model.Subtopic{}, nextID: 100}
}

func (r *memSubjectRepo) ListCatalogs() ([]model.Catalog, error) {
	var out []model.Catalog
	for _, c := range r.catalogs {
		cp := *c
		for _, s := range r.subtopics {
			if s.CatalogID == c.ID {
				cp.Subtopics = append(cp.Subtopics, *s)
			}
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memSubjectRepo) CreateCatalog(c *model.Catalog) error {
	r.nextID++
	c.ID = r.nextID
	r.catalogs[c.ID] = c
	return nil
}

func (r *memSubjectRepo) FindCatalog(id uint) (*model.Catalog, error) {
	c, ok := r.catalogs[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return c, nil
}

func (r *memSubjectRepo) CreateSubtopic(s *model.Subtopic) error {
	if s.ID == 0 {
		r.nextID++
		s.ID = r.nextID
	}
	r.subtopics[s.ID] = s
	return nil
}

func (r *memSubjectRepo) FindSubtopic(id uint) (*model.Subtopic, error) {
	s, ok := r.subtopics[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *s
	cp.Catalog = r.catalogs[s.CatalogID]
	return &cp, nil
}

// memUserRepo 是 UserRepository 的内存实现。
type memUserRepo struct {
	mu     sync.Mutex
	users  map[uint]*model.User
	nextID uint
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[uint]*model.User{}}
}

func (r *memUserRepo) Create(u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == 0 {
		r.nextID++
		u.ID = r.nextID
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) FindByUsername(name string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == name {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *memUserRepo) FindByID(id uint) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) Update(u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

// scriptedLLM 按提示词类型返回预设的回复。
type scriptedLLM struct {
	mu        sync.Mutex
	bank      string
	next      []string
	eval      string
	evalErr   error
	evalCalls int
	nextCalls int
}

func defaultBank() string {
	var b strings.Builder
	for i := 1; i <= interview.QuestionBankSize; i++ {
		fmt.Fprintf(&b, "%d. Explain how feature number %d of Go works in practice?\n", i, i)
	}
	return b.String()
}

func (l *scriptedLLM) Complete(_ context.Context, prompt string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case strings.Contains(prompt, "preparing a mock interview"):
		return l.bank, nil
	case strings.Contains(prompt, "writing the final evaluation"):
		l.evalCalls++
		return l.eval, l.evalErr
	default:
		l.nextCalls++
		if len(l.next) == 0 {
			return "", errors.New("no scripted reply")
		}
		reply := l.next[0]
		l.next = l.next[1:]
		return reply, nil
	}
}

func (l *scriptedLLM) queue(replies ...string) {
	l.mu.Lock()
	l.next = append(l.next, replies...)
	l.mu.Unlock()
}

type sentMessage struct {
	Speaker string
	Text    string
}

// recordingNotifier 记录所有推送。
type recordingNotifier struct {
	mu        sync.Mutex
	messages  []sentMessage
	score     *int
	eval      string
	redirects []string
}

func (n *recordingNotifier) Message(speaker, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, sentMessage{speaker, text})
	return nil
}

func (n *recordingNotifier) InterviewCompleted(score int, evaluation string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.score = &score
	n.eval = evaluation
	return nil
}

func (n *recordingNotifier) RedirectToResults(sessionID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirects = append(n.redirects, sessionID)
	return nil
}

func (n *recordingNotifier) texts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.messages))
	for _, m := range n.messages {
		out = append(out, m.Text)
	}
	return out
}

func (n *recordingNotifier) last() sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.messages) == 0 {
		return sentMessage{}
	}
	return n.messages[len(n.messages)-1]
}

type recordingPublisher struct {
	mu    sync.Mutex
	tasks []tasks.TranscriptArchiveTask
}

func (p *recordingPublisher) ProduceArchiveTask(_ context.Context, task tasks.TranscriptArchiveTask) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, task)
	return nil
}

// memResultCache 是 ResultCache 的内存实现。
type memResultCache struct {
	mu    sync.Mutex
	items map[string]model.InterviewResult
	gets  int
}

func newMemResultCache() *memResultCache {
	return &memResultCache{items: map[string]model.InterviewResult{}}
}

func (c *memResultCache) Get(_ context.Context, id string) (*model.InterviewResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	r, ok := c.items[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &r, nil
}

func (c *memResultCache) Set(_ context.Context, r *model.InterviewResult, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[r.SessionID] = *r
	return nil
}
