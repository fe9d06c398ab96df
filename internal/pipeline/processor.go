// Package pipeline 定义了面试结束后的归档流程。
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"interview-coach-go/internal/model"
	"interview-coach-go/internal/repository"
	"interview-coach-go/pkg/errs"
	"interview-coach-go/pkg/log"
	"interview-coach-go/pkg/storage"
	"interview-coach-go/pkg/tasks"
)

// ObjectStore 保存归档文件（由 storage.TranscriptStore 实现）。
type ObjectStore interface {
	Put(ctx context.Context, objectName string, data []byte, contentType string) error
}

// AnswerIndexer 把问答写入全文索引（由 es.AnswerIndex 实现）。
type AnswerIndexer interface {
	IndexAnswer(ctx context.Context, doc model.AnswerDocument) error
}

// TranscriptArchive 是写入对象存储的归档文件内容。
type TranscriptArchive struct {
	Session    model.SessionSummaryDTO `json:"session"`
	Subtopic   string                  `json:"subtopic,omitempty"`
	Messages   []model.ChatMessage     `json:"messages"`
	Score      int                     `json:"score"`
	Evaluation string                  `json:"evaluation"`
	Answers    []model.ResultAnswer    `json:"answers"`
	ArchivedAt time.Time               `json:"archivedAt"`
}

// Processor 封装了归档所需的所有依赖。
type Processor struct {
	repo    repository.InterviewRepository
	store   ObjectStore
	indexer AnswerIndexer
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(repo repository.InterviewRepository, store ObjectStore, indexer AnswerIndexer) *Processor {
	return &Processor{repo: repo, store: store, indexer: indexer}
}

// Process 把一次已评估的面试归档到 MinIO，并把每组问答写入 Elasticsearch。
// 同一任务重复执行是安全的：对象按会话覆盖写，文档按 doc_id 覆盖。
func (p *Processor) Process(ctx context.Context, task tasks.TranscriptArchiveTask) error {
	log.Infof("[Processor] 开始归档面试, SessionID: %s, UserID: %d", task.SessionID, task.UserID)

	// 1. 加载会话、对话和结果
	session, err := p.repo.FindSession(ctx, task.SessionID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			log.Warnf("[Processor] 会话 %s 已不存在, 跳过归档", task.SessionID)
			return nil
		}
		return fmt.Errorf("加载会话失败: %w", err)
	}
	messages, err := p.repo.ListMessages(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("加载对话记录失败: %w", err)
	}
	result, err := p.repo.FindResult(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("加载面试结果失败: %w", err)
	}

	// 2. 写入对象存储
	archive := TranscriptArchive{
		Session:    model.NewSessionSummaryDTO(session),
		Messages:   messages,
		Score:      result.Score,
		Evaluation: result.Evaluation,
		Answers:    result.Answers,
		ArchivedAt: time.Now().UTC(),
	}
	if session.Subtopic != nil {
		archive.Subtopic = session.Subtopic.Name
	}
	data, err := json.Marshal(archive)
	if err != nil {
		return fmt.Errorf("序列化归档失败: %w", err)
	}
	objectName := storage.TranscriptObjectName(session.UserID, session.ID)
	if err := p.store.Put(ctx, objectName, data, "application/json"); err != nil {
		log.Errorf("[Processor] 上传归档失败, Object: %s, Error: %v", objectName, err)
		return fmt.Errorf("上传归档失败: %w", err)
	}
	log.Infof("[Processor] 步骤1: 归档已写入 %s (%d 字节)", objectName, len(data))

	// 3. 逐条索引问答
	createdAt := result.CreatedAt.Format(time.RFC3339)
	for _, a := range result.Answers {
		doc := model.AnswerDocument{
			DocID:      fmt.Sprintf("%s-%d", session.ID, a.Position),
			SessionID:  session.ID,
			UserID:     session.UserID,
			SubtopicID: session.SubtopicID,
			Language:   string(session.Language),
			Position:   a.Position,
			Question:   a.Question,
			Answer:     a.Answer,
			Score:      result.Score,
			CreatedAt:  createdAt,
		}
		if err := p.indexer.IndexAnswer(ctx, doc); err != nil {
			log.Errorf("[Processor] 索引问答失败, DocID: %s, Error: %v", doc.DocID, err)
			return fmt.Errorf("索引问答失败: %w", err)
		}
	}
	log.Infof("[Processor] 步骤2: 已索引 %d 组问答, 归档完成, SessionID: %s", len(result.Answers), session.ID)
	return nil
}
