package service

import (
	"context"
	"errors"
	"time"

	"interview-coach-go/internal/interview"
	"interview-coach-go/internal/model"
	"interview-coach-go/internal/repository"
	"interview-coach-go/pkg/errs"
	"interview-coach-go/pkg/log"
	"interview-coach-go/pkg/storage"
)

// URLSigner 为归档对象签发临时下载链接（由 storage.TranscriptStore 实现）。
type URLSigner interface {
	PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// ResultView 是结果页展示的数据。Provisional 为 true 表示这是未持久化的启发式估算。
type ResultView struct {
	SessionID   string               `json:"sessionId"`
	Score       int                  `json:"score"`
	Evaluation  string               `json:"evaluation"`
	Provisional bool                 `json:"provisional"`
	Answers     []model.ResultAnswer `json:"answers"`
	CreatedAt   model.LocalTime      `json:"createdAt"`
}

// TranscriptView 是一次面试的完整对话记录。
type TranscriptView struct {
	Session  model.SessionSummaryDTO `json:"session"`
	Messages []model.ChatMessage     `json:"messages"`
}

// SessionPage 是分页的会话列表。
type SessionPage struct {
	Content       []model.SessionSummaryDTO `json:"content"`
	TotalElements int64                     `json:"totalElements"`
	Page          int                       `json:"page"`
	Size          int                       `json:"size"`
}

// ResultService 提供面试记录和结果的查询。
type ResultService interface {
	ListSessions(ctx context.Context, userID uint, page, size int) (*SessionPage, error)
	GetTranscript(ctx context.Context, userID uint, sessionID string) (*TranscriptView, error)
	GetResult(ctx context.Context, userID uint, sessionID string) (*ResultView, error)
	TranscriptDownloadURL(ctx context.Context, userID uint, sessionID string) (string, error)
}

type resultService struct {
	repo     repository.InterviewRepository
	cache    repository.ResultCache
	signer   URLSigner
	cacheTTL time.Duration
}

// NewResultService 创建一个新的 ResultService 实例。
func NewResultService(repo repository.InterviewRepository, cache repository.ResultCache, signer URLSigner, cacheTTL time.Duration) ResultService {
	return &resultService{repo: repo, cache: cache, signer: signer, cacheTTL: cacheTTL}
}

func (s *resultService) ListSessions(ctx context.Context, userID uint, page, size int) (*SessionPage, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	sessions, total, err := s.repo.ListSessionsByUser(ctx, userID, (page-1)*size, size)
	if err != nil {
		return nil, errs.E(errs.CodeInternal, "ResultService.ListSessions", "获取面试列表失败", err)
	}
	content := make([]model.SessionSummaryDTO, 0, len(sessions))
	for i := range sessions {
		content = append(content, model.NewSessionSummaryDTO(&sessions[i]))
	}
	return &SessionPage{Content: content, TotalElements: total, Page: page, Size: size}, nil
}

// ownedSession 加载会话并校验归属，其他用户的会话按不存在处理。
func (s *resultService) ownedSession(ctx context.Context, op string, userID uint, sessionID string) (*model.InterviewSession, error) {
	session, err := s.repo.FindSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.E(errs.CodeNotFound, op, "面试记录不存在", err)
		}
		return nil, errs.E(errs.CodeInternal, op, "查询面试记录失败", err)
	}
	if session.UserID != userID {
		return nil, errs.E(errs.CodeNotFound, op, "面试记录不存在", nil)
	}
	return session, nil
}

func (s *resultService) GetTranscript(ctx context.Context, userID uint, sessionID string) (*TranscriptView, error) {
	const op = "ResultService.GetTranscript"
	session, err := s.ownedSession(ctx, op, userID, sessionID)
	if err != nil {
		return nil, err
	}
	messages, err := s.repo.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, errs.E(errs.CodeInternal, op, "获取对话记录失败", err)
	}
	return &TranscriptView{Session: model.NewSessionSummaryDTO(session), Messages: messages}, nil
}

// GetResult 返回会话的结果：先查缓存，再查数据库；
// 会话已完成但没有结果时（例如评估失败或断开连接），返回一份不落库的临时估算。
func (s *resultService) GetResult(ctx context.Context, userID uint, sessionID string) (*ResultView, error) {
	const op = "ResultService.GetResult"
	session, err := s.ownedSession(ctx, op, userID, sessionID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, sessionID); err == nil {
			return newResultView(cached), nil
		} else if !errors.Is(err, errs.ErrNotFound) {
			log.Warnf("[ResultService] 读取结果缓存失败, session: %s: %v", sessionID, err)
		}
	}

	result, err := s.repo.FindResult(ctx, sessionID)
	if err == nil {
		if s.cache != nil {
			if err := s.cache.Set(ctx, result, s.cacheTTL); err != nil {
				log.Warnf("[ResultService] 写入结果缓存失败, session: %s: %v", sessionID, err)
			}
		}
		return newResultView(result), nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, errs.E(errs.CodeInternal, op, "查询面试结果失败", err)
	}
	if !session.Completed {
		return nil, errs.E(errs.CodeNotFound, op, "面试尚未完成", nil)
	}

	messages, err := s.repo.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, errs.E(errs.CodeInternal, op, "获取对话记录失败", err)
	}
	return provisionalView(session, interview.ExtractPairs(messages)), nil
}

func newResultView(r *model.InterviewResult) *ResultView {
	return &ResultView{
		SessionID:  r.SessionID,
		Score:      r.Score,
		Evaluation: r.Evaluation,
		Answers:    r.Answers,
		CreatedAt:  model.LocalTime(r.CreatedAt),
	}
}

func provisionalView(session *model.InterviewSession, pairs []interview.QAPair) *ResultView {
	score, text := interview.FallbackEvaluation(pairs, session.Language)
	answers := make([]model.ResultAnswer, 0, len(pairs))
	for i, p := range pairs {
		perAnswer := interview.ScoreAnswer(p.Answer)
		answers = append(answers, model.ResultAnswer{
			Position: i + 1,
			Question: p.Question,
			Answer:   p.Answer,
			Score:    &perAnswer,
		})
	}
	view := &ResultView{
		SessionID:   session.ID,
		Score:       score,
		Evaluation:  text,
		Provisional: true,
		Answers:     answers,
	}
	if session.EndTime != nil {
		view.CreatedAt = model.LocalTime(*session.EndTime)
	}
	return view
}

// TranscriptDownloadURL 返回归档记录的临时下载链接，有效期 1 小时。
func (s *resultService) TranscriptDownloadURL(ctx context.Context, userID uint, sessionID string) (string, error) {
	const op = "ResultService.TranscriptDownloadURL"
	session, err := s.ownedSession(ctx, op, userID, sessionID)
	if err != nil {
		return "", err
	}
	url, err := s.signer.PresignedURL(ctx, storage.TranscriptObjectName(session.UserID, session.ID), time.Hour)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) || storage.IsNotFound(err) {
			return "", errs.E(errs.CodeNotFound, op, "归档尚未生成", err)
		}
		return "", errs.E(errs.CodeInternal, op, "生成下载链接失败", err)
	}
	return url, nil
}
