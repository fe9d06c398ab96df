package service

import (
	"context"
	"strings"
	"time"

	"interview-coach-go/internal/interview"
	"interview-coach-go/internal/model"
	"interview-coach-go/internal/repository"
	"interview-coach-go/pkg/errs"
	"interview-coach-go/pkg/llm"
	"interview-coach-go/pkg/log"
	"interview-coach-go/pkg/tasks"
)

// ArchivePublisher 发布归档任务（由 Kafka 生产者实现）。
type ArchivePublisher interface {
	ProduceArchiveTask(ctx context.Context, task tasks.TranscriptArchiveTask) error
}

// EvaluationService 结束会话并生成唯一的面试结果。
type EvaluationService interface {
	// Complete 对已完成的会话是幂等的：只通知调用方，不会重复评估。
	Complete(ctx context.Context, cc *interview.Conn, summary string) error
}

type evaluationService struct {
	repo      repository.InterviewRepository
	llm       llm.Client
	prompts   *interview.PromptBuilder
	cache     repository.ResultCache
	publisher ArchivePublisher
	timeout   time.Duration
	cacheTTL  time.Duration
}

// NewEvaluationService 创建一个新的 EvaluationService 实例。cache 与 publisher 可以为 nil。
func NewEvaluationService(
	repo repository.InterviewRepository,
	llmClient llm.Client,
	prompts *interview.PromptBuilder,
	cache repository.ResultCache,
	publisher ArchivePublisher,
	timeout, cacheTTL time.Duration,
) EvaluationService {
	return &evaluationService{
		repo:      repo,
		llm:       llmClient,
		prompts:   prompts,
		cache:     cache,
		publisher: publisher,
		timeout:   timeout,
		cacheTTL:  cacheTTL,
	}
}

func (s *evaluationService) Complete(ctx context.Context, cc *interview.Conn, summary string) error {
	const op = "EvaluationService.Complete"

	session, subtopic := cc.Session()
	if session == nil {
		return errs.E(errs.CodeInvalidArgument, op, interview.TextsFor(model.LanguageEnglish).NoActiveSession, nil)
	}
	t := interview.TextsFor(session.Language)

	// 1. 先落盘缓存消息并标记完成，评估过程中崩溃也不会重新打开会话
	if pending := cc.TakePending(); len(pending) > 0 {
		if err := s.repo.SaveMessages(ctx, pending); err != nil {
			log.Errorf("[EvaluationService] 保存缓存消息失败, session: %s: %v", session.ID, err)
		}
	}
	now := time.Now()
	applied, err := s.repo.MarkCompleted(ctx, session.ID, now, summary)
	if err != nil {
		return errs.E(errs.CodeInternal, op, t.EvaluationFailed, err)
	}
	if !applied {
		s.notify(cc, t.AlreadyCompleted)
		return nil
	}
	session.Completed = true
	session.EndTime = &now
	session.Summary = summary
	if err := cc.Transition(interview.StateCompleted); err != nil {
		log.Warnf("[EvaluationService] 状态迁移失败, session: %s: %v", session.ID, err)
	}
	log.Infof("[EvaluationService] 会话 %s 已完成 (%s), 开始评估", session.ID, summary)
	s.notify(cc, t.Evaluating)

	// 2. 按时间顺序重建问答对
	messages, err := s.repo.ListMessages(ctx, session.ID)
	if err != nil {
		return errs.E(errs.CodeInternal, op, t.EvaluationFailed, err)
	}
	pairs := interview.ExtractPairs(messages)

	// 3-4. 构建评估提示词并解析分数
	score, evaluation := 0, t.NoQuestionsAnswered
	if len(pairs) > 0 {
		subjectContext := ""
		if subtopic != nil {
			subjectContext = subtopic.ContextText()
		}
		prompt := s.prompts.BuildEvaluationPrompt(subjectContext, interview.CandidateFromSession(session), session.Language, pairs)
		raw := completeWithTimeout(ctx, s.llm, s.timeout, prompt)
		if interview.IsFailure(raw) {
			return errs.E(errs.CodeUnavailable, op, t.EvaluationFailed, interview.ErrEmptyCompletion)
		}
		score, _ = interview.ParseScore(raw)
		evaluation = strings.TrimSpace(raw)
	}

	// 5. 保存结果及每组问答
	result := &model.InterviewResult{
		SessionID:  session.ID,
		Score:      score,
		Evaluation: evaluation,
		Answers:    make([]model.ResultAnswer, 0, len(pairs)),
	}
	for i, p := range pairs {
		result.Answers = append(result.Answers, model.ResultAnswer{
			Position: i + 1,
			Question: p.Question,
			Answer:   p.Answer,
		})
	}
	if err := s.repo.CreateResult(ctx, result); err != nil {
		return errs.E(errs.CodeInternal, op, t.EvaluationFailed, err)
	}
	log.Infof("[EvaluationService] 结果已保存, session: %s, score: %d, pairs: %d", session.ID, score, len(pairs))

	s.afterResult(ctx, session, result)

	if !cc.Closed() && cc.Notifier() != nil {
		if err := cc.Notifier().InterviewCompleted(score, evaluation); err != nil {
			log.Warnf("[EvaluationService] 推送评估结果失败, conn: %s: %v", cc.ID, err)
		}
		if err := cc.Notifier().RedirectToResults(session.ID); err != nil {
			log.Warnf("[EvaluationService] 推送跳转失败, conn: %s: %v", cc.ID, err)
		}
	}
	return nil
}

// afterResult 写缓存并发布归档任务，失败只记录日志。
func (s *evaluationService) afterResult(ctx context.Context, session *model.InterviewSession, result *model.InterviewResult) {
	if s.cache != nil {
		if err := s.cache.Set(ctx, result, s.cacheTTL); err != nil {
			log.Warnf("[EvaluationService] 缓存结果失败, session: %s: %v", session.ID, err)
		}
	}
	if s.publisher != nil {
		task := tasks.TranscriptArchiveTask{
			SessionID:  session.ID,
			UserID:     session.UserID,
			SubtopicID: session.SubtopicID,
			Language:   string(session.Language),
			Score:      result.Score,
		}
		if err := s.publisher.ProduceArchiveTask(ctx, task); err != nil {
			log.Errorf("[EvaluationService] 发布归档任务失败, session: %s: %v", session.ID, err)
		}
	}
}

func (s *evaluationService) notify(cc *interview.Conn, text string) {
	if cc.Closed() || cc.Notifier() == nil {
		return
	}
	if err := cc.Notifier().Message(interview.SpeakerSystem, text); err != nil {
		log.Warnf("[EvaluationService] 推送消息失败, conn: %s: %v", cc.ID, err)
	}
}
