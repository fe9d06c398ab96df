package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"interview-coach-go/internal/interview"
	"interview-coach-go/internal/model"
	"interview-coach-go/internal/repository"
	"interview-coach-go/pkg/errs"
	"interview-coach-go/pkg/llm"
	"interview-coach-go/pkg/log"
)

const (
	exitOfferThreshold  = 4
	switchTopicNudgeMin = 2
)

// 完成面试时写入会话的摘要。
const (
	summaryObjectiveMet = "Objective met"
	summaryLimitReached = "Question limit reached"
	summaryEndedByUser  = "Ended by candidate"
)

// InterviewOptions 控制面试引擎的参数。
type InterviewOptions struct {
	MaxQuestions int
	LLMTimeout   time.Duration
}

// InterviewService 是面试会话状态机，驱动单个连接上的问答循环。
// 所有方法返回的错误都是 *errs.AppError，其 Message 是可直接展示给用户的本地化文案。
type InterviewService interface {
	Start(ctx context.Context, cc *interview.Conn, subtopicID uint, lang model.Language) error
	Resume(ctx context.Context, cc *interview.Conn, sessionID string) error
	HandleAnswer(ctx context.Context, cc *interview.Conn, text string) error
	EndEarly(ctx context.Context, cc *interview.Conn) error
	Disconnect(ctx context.Context, cc *interview.Conn)
}

type interviewService struct {
	repo      repository.InterviewRepository
	subjects  repository.SubjectRepository
	users     repository.UserRepository
	llm       llm.Client
	prompts   *interview.PromptBuilder
	evaluator EvaluationService
	registry  *interview.Registry
	opts      InterviewOptions
}

// NewInterviewService 创建一个新的 InterviewService 实例。
func NewInterviewService(
	repo repository.InterviewRepository,
	subjects repository.SubjectRepository,
	users repository.UserRepository,
	llmClient llm.Client,
	prompts *interview.PromptBuilder,
	evaluator EvaluationService,
	registry *interview.Registry,
	opts InterviewOptions,
) InterviewService {
	if opts.MaxQuestions <= 0 {
		opts.MaxQuestions = interview.QuestionBankSize
	}
	return &interviewService{
		repo:      repo,
		subjects:  subjects,
		users:     users,
		llm:       llmClient,
		prompts:   prompts,
		evaluator: evaluator,
		registry:  registry,
		opts:      opts,
	}
}

// Start 创建新会话、生成题库并发送问候语。题库生成失败时回滚已保存的会话。
func (s *interviewService) Start(ctx context.Context, cc *interview.Conn, subtopicID uint, lang model.Language) error {
	const op = "InterviewService.Start"
	t := interview.TextsFor(lang)

	if cc.State() != interview.StateIdle {
		return errs.E(errs.CodeConflict, op, t.AlreadyActive, nil)
	}

	subtopic, err := s.subjects.FindSubtopic(subtopicID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.E(errs.CodeNotFound, op, t.SubjectNotFound, err)
		}
		return errs.E(errs.CodeInternal, op, t.SubjectNotFound, err)
	}
	user, err := s.users.FindByID(cc.UserID)
	if err != nil {
		return errs.E(errs.CodeNotFound, op, t.UserNotFound, err)
	}

	session := &model.InterviewSession{
		ID:                  uuid.NewString(),
		UserID:              user.ID,
		SubtopicID:          subtopic.ID,
		CandidateName:       displayName(user),
		CandidateEmail:      user.Email,
		CandidateEducation:  user.Education,
		CandidateExperience: user.Experience,
		Language:            lang,
		StartTime:           time.Now(),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return errs.E(errs.CodeInternal, op, t.QuestionGenFailed, err)
	}
	if err := cc.Bind(session, subtopic, interview.StateCreated); err != nil {
		s.rollback(ctx, session.ID)
		return errs.E(errs.CodeConflict, op, t.AlreadyActive, err)
	}

	log.Infof("[InterviewService] 会话已创建, session: %s, conn: %s, subtopic: %d", session.ID, cc.ID, subtopic.ID)

	if _, err := cc.InitTracker(s.questionGenerator(ctx, session, subtopic)); err != nil {
		log.Errorf("[InterviewService] 题库生成失败, 回滚会话 %s: %v", session.ID, err)
		s.rollback(ctx, session.ID)
		cc.Clear()
		return errs.E(errs.CodeUnavailable, op, t.QuestionGenFailed, err)
	}
	if !cc.Owns(session.ID) {
		// 生成题库期间连接已断开，断开流程负责收尾
		return nil
	}
	if err := cc.Transition(interview.StateAwaitingGreeting); err != nil {
		return errs.E(errs.CodeInternal, op, t.QuestionGenFailed, err)
	}

	s.sendPersonalized(ctx, cc, session.ID, t.GreetingRecord, t.Greeting(session.CandidateName, subtopic.Name, s.opts.MaxQuestions))
	return nil
}

// Resume 重新加载一个未完成的会话，重新生成题库并发送欢迎回来消息。
func (s *interviewService) Resume(ctx context.Context, cc *interview.Conn, sessionID string) error {
	const op = "InterviewService.Resume"
	t := interview.TextsFor(model.LanguageEnglish)

	if cc.State() != interview.StateIdle {
		return errs.E(errs.CodeConflict, op, t.AlreadyActive, nil)
	}

	session, err := s.repo.FindSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.E(errs.CodeNotFound, op, t.SessionNotFound, err)
		}
		return errs.E(errs.CodeInternal, op, t.SessionNotFound, err)
	}
	if session.UserID != cc.UserID {
		return errs.E(errs.CodeNotFound, op, t.SessionNotFound, nil)
	}
	t = interview.TextsFor(session.Language)
	if session.Completed {
		return errs.E(errs.CodeConflict, op, t.AlreadyCompleted, nil)
	}
	if _, busy := s.registry.SessionOwner(session.ID, cc.ID); busy {
		return errs.E(errs.CodeConflict, op, t.AlreadyActive, nil)
	}

	subtopic := session.Subtopic
	if subtopic == nil {
		if subtopic, err = s.subjects.FindSubtopic(session.SubtopicID); err != nil {
			return errs.E(errs.CodeNotFound, op, t.SubjectNotFound, err)
		}
	}
	if err := cc.Bind(session, subtopic, interview.StatePaused); err != nil {
		return errs.E(errs.CodeConflict, op, t.AlreadyActive, err)
	}

	if _, err := cc.InitTracker(s.questionGenerator(ctx, session, subtopic)); err != nil {
		log.Errorf("[InterviewService] 恢复会话 %s 时题库生成失败: %v", session.ID, err)
		cc.Clear()
		return errs.E(errs.CodeUnavailable, op, t.QuestionGenFailed, err)
	}
	if !cc.Owns(session.ID) {
		return nil
	}

	next := interview.StateInProgress
	if session.QuestionNumber == 0 {
		next = interview.StateAwaitingGreeting
	}
	if err := cc.Transition(next); err != nil {
		return errs.E(errs.CodeInternal, op, t.SessionNotFound, err)
	}

	log.Infof("[InterviewService] 会话已恢复, session: %s, conn: %s, question: %d", session.ID, cc.ID, session.QuestionNumber)
	s.sendPersonalized(ctx, cc, session.ID, t.WelcomeBackRecord, t.WelcomeBack(session.CandidateName, session.QuestionNumber))
	return nil
}

// HandleAnswer 处理用户的一条消息。
func (s *interviewService) HandleAnswer(ctx context.Context, cc *interview.Conn, text string) error {
	const op = "InterviewService.HandleAnswer"

	session, _ := cc.Session()
	state := cc.State()
	if session == nil || !state.Active() {
		return errs.E(errs.CodeInvalidArgument, op, interview.TextsFor(model.LanguageEnglish).NoActiveSession, nil)
	}
	t := interview.TextsFor(session.Language)

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	switch state {
	case interview.StateAwaitingGreeting:
		// 第一条消息视为对问候的回应，不参与评分
		s.persist(ctx, cc, session.ID, text, true)
		if err := cc.Transition(interview.StateInProgress); err != nil {
			return errs.E(errs.CodeInternal, op, t.TransientFailure, err)
		}
		s.sendBot(ctx, cc, session.ID, t.LetsBegin)
		return s.askNext(ctx, cc)

	case interview.StateExitOfferPending:
		switch interview.InterpretExitReply(text) {
		case interview.ExitEnd:
			s.persist(ctx, cc, session.ID, text, true)
			return s.finish(ctx, cc, summaryEndedByUser)
		case interview.ExitContinue:
			s.persist(ctx, cc, session.ID, text, true)
			cc.ResetNonAnswers()
			if err := cc.Transition(interview.StateInProgress); err != nil {
				return errs.E(errs.CodeInternal, op, t.TransientFailure, err)
			}
			return s.askNext(ctx, cc)
		default:
			s.notify(cc, interview.SpeakerInterviewer, t.ExitOffer)
			return nil
		}

	default:
		prev := cc.NonAnswers()
		s.persist(ctx, cc, session.ID, text, true)
		count := cc.RecordAnswer(interview.IsNonAnswer(text))
		if session.QuestionNumber >= s.opts.MaxQuestions {
			s.sendBot(ctx, cc, session.ID, t.LimitReached)
			return s.finish(ctx, cc, summaryLimitReached)
		}
		if count >= exitOfferThreshold {
			s.sendBot(ctx, cc, session.ID, t.ExitOffer)
			if err := cc.Transition(interview.StateExitOfferPending); err != nil {
				return errs.E(errs.CodeInternal, op, t.TransientFailure, err)
			}
			return nil
		}
		if count >= switchTopicNudgeMin {
			s.sendBot(ctx, cc, session.ID, t.SwitchTopicNudge)
		}
		err := s.askNext(ctx, cc)
		if errs.IsCode(err, errs.CodeUnavailable) {
			// 下一题没有发出，用户会重发同一回答，本次计数作废
			cc.RestoreNonAnswers(session.ID, prev)
		}
		return err
	}
}

// EndEarly 应用户请求立即结束面试并进入评估。
func (s *interviewService) EndEarly(ctx context.Context, cc *interview.Conn) error {
	const op = "InterviewService.EndEarly"
	session, _ := cc.Session()
	if session == nil || !cc.State().Active() {
		return errs.E(errs.CodeInvalidArgument, op, interview.TextsFor(model.LanguageEnglish).NoActiveSession, nil)
	}
	s.sendBot(ctx, cc, session.ID, interview.TextsFor(session.Language).EndedByUser)
	return s.finish(ctx, cc, summaryEndedByUser)
}

// Disconnect 在连接断开时调用：若会话仍未完成则标记为未完成结束，并始终清理连接状态。
func (s *interviewService) Disconnect(ctx context.Context, cc *interview.Conn) {
	cc.Close()
	defer cc.Clear()

	session, _ := cc.Session()
	if session == nil || cc.State() == interview.StateCompleted {
		return
	}
	if pending := cc.TakePending(); len(pending) > 0 {
		if err := s.repo.SaveMessages(ctx, pending); err != nil {
			log.Errorf("[InterviewService] 断开时保存缓存消息失败, session: %s: %v", session.ID, err)
		}
	}
	applied, err := s.repo.MarkCompleted(ctx, session.ID, time.Now(), interview.DisconnectedSummary)
	if err != nil {
		log.Errorf("[InterviewService] 断开时结束会话失败, session: %s: %v", session.ID, err)
		return
	}
	if applied {
		log.Infof("[InterviewService] 连接断开, 会话 %s 已标记为未完成结束", session.ID)
	}
}

// askNext 请求下一道题，处理 OBJECTIVE_MET 和题数上限。
func (s *interviewService) askNext(ctx context.Context, cc *interview.Conn) error {
	const op = "InterviewService.askNext"
	session, subtopic := cc.Session()
	if session == nil {
		return nil
	}
	t := interview.TextsFor(session.Language)

	if session.QuestionNumber >= s.opts.MaxQuestions {
		s.sendBot(ctx, cc, session.ID, t.LimitReached)
		return s.finish(ctx, cc, summaryLimitReached)
	}

	messages, err := s.transcript(ctx, cc, session.ID)
	if err != nil {
		return errs.E(errs.CodeInternal, op, t.TransientFailure, err)
	}
	var available []string
	tracker := cc.Tracker()
	if tracker != nil {
		available = tracker.Available()
	}

	prompt := s.prompts.BuildNextQuestionPrompt(interview.NextQuestionInput{
		SubjectContext: subtopic.ContextText(),
		Candidate:      interview.CandidateFromSession(session),
		Language:       session.Language,
		QuestionNumber: session.QuestionNumber + 1,
		Messages:       messages,
		Available:      available,
	})
	raw := s.complete(ctx, prompt)

	if !cc.Owns(session.ID) {
		log.Infof("[InterviewService] 连接 %s 已不再持有会话 %s, 丢弃迟到的 LLM 响应", cc.ID, session.ID)
		return nil
	}

	reply, err := interview.ParseInterviewerReply(raw)
	if err != nil {
		log.Warnf("[InterviewService] 下一题生成失败, session: %s: %v", session.ID, err)
		return errs.E(errs.CodeUnavailable, op, t.TransientFailure, err)
	}
	if reply.Kind == interview.ReplyObjectiveMet {
		s.sendBot(ctx, cc, session.ID, t.ObjectiveMetClosing)
		return s.finish(ctx, cc, summaryObjectiveMet)
	}

	n := session.QuestionNumber + 1
	if err := s.repo.UpdateQuestionNumber(ctx, session.ID, n); err != nil {
		return errs.E(errs.CodeInternal, op, t.TransientFailure, err)
	}
	session.QuestionNumber = n
	if tracker != nil {
		tracker.MarkAsked(reply.Question)
	}
	s.sendBot(ctx, cc, session.ID, t.QuestionLabel(n)+reply.Question)
	return nil
}

// finish 运行评估流程并清理连接上的会话状态。
func (s *interviewService) finish(ctx context.Context, cc *interview.Conn, summary string) error {
	defer cc.Clear()
	return s.evaluator.Complete(ctx, cc, summary)
}

// questionGenerator 返回一次性题库生成函数，供 Conn.InitTracker 在锁内调用。
func (s *interviewService) questionGenerator(ctx context.Context, session *model.InterviewSession, subtopic *model.Subtopic) func() ([]string, error) {
	return func() ([]string, error) {
		prompt := s.prompts.BuildQuestionBankPrompt(subtopic.ContextText(), interview.CandidateFromSession(session), session.Language)
		return interview.ParseQuestionList(s.complete(ctx, prompt))
	}
}

// complete 在超时控制下调用 LLM，任何错误都折叠为空字符串。
func (s *interviewService) complete(ctx context.Context, prompt string) string {
	return completeWithTimeout(ctx, s.llm, s.opts.LLMTimeout, prompt)
}

// transcript 返回会话的完整消息，包括尚未写入成功的缓存消息。
func (s *interviewService) transcript(ctx context.Context, cc *interview.Conn, sessionID string) ([]model.ChatMessage, error) {
	messages, err := s.repo.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	pending := cc.Pending()
	if len(pending) == 0 {
		return messages, nil
	}
	messages = append(messages, pending...)
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
	return messages, nil
}

// persist 保存一条消息，失败时缓存到连接上，完成时再次尝试。
func (s *interviewService) persist(ctx context.Context, cc *interview.Conn, sessionID, content string, isUser bool) {
	msg := model.ChatMessage{
		SessionID:     sessionID,
		Content:       content,
		IsUserMessage: isUser,
		Timestamp:     cc.NextTimestamp(),
	}
	if err := s.repo.AppendMessage(ctx, &msg); err != nil {
		log.Errorf("[InterviewService] 保存消息失败, 已缓存待重试, session: %s: %v", sessionID, err)
		cc.AddPending(msg)
	}
}

// sendBot 保存并发送一条面试官消息。
func (s *interviewService) sendBot(ctx context.Context, cc *interview.Conn, sessionID, text string) {
	s.persist(ctx, cc, sessionID, text, false)
	s.notify(cc, interview.SpeakerInterviewer, text)
}

// sendPersonalized 落库固定文案 record，向客户端推送带主题名或姓名的 shown。
// 主题名和姓名由用户填写，可能含有 "Question"，不能进入配对用的对话记录。
func (s *interviewService) sendPersonalized(ctx context.Context, cc *interview.Conn, sessionID, record, shown string) {
	s.persist(ctx, cc, sessionID, record, false)
	s.notify(cc, interview.SpeakerInterviewer, shown)
}

func (s *interviewService) notify(cc *interview.Conn, speaker, text string) {
	if cc.Closed() || cc.Notifier() == nil {
		return
	}
	if err := cc.Notifier().Message(speaker, text); err != nil {
		log.Warnf("[InterviewService] 推送消息失败, conn: %s: %v", cc.ID, err)
	}
}

func (s *interviewService) rollback(ctx context.Context, sessionID string) {
	if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
		log.Errorf("[InterviewService] 回滚会话 %s 失败: %v", sessionID, err)
	}
}

func displayName(u *model.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// completeWithTimeout 调用 LLM；错误和超时都视为空响应。
func completeWithTimeout(ctx context.Context, client llm.Client, timeout time.Duration, prompt string) string {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	out, err := client.Complete(cctx, prompt)
	if err != nil {
		log.Warnf("[LLM] 调用失败: %v", err)
		return ""
	}
	return out
}
