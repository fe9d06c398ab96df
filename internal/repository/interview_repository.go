package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"interview-coach-go/internal/model"
	"interview-coach-go/pkg/errs"
)

// InterviewRepository 定义了面试会话、消息和结果的持久化操作。
type InterviewRepository interface {
	CreateSession(ctx context.Context, session *model.InterviewSession) error
	// DeleteSession 仅用于题库生成失败后的回滚。
	DeleteSession(ctx context.Context, sessionID string) error
	FindSession(ctx context.Context, sessionID string) (*model.InterviewSession, error)
	ListSessionsByUser(ctx context.Context, userID uint, offset, limit int) ([]model.InterviewSession, int64, error)

	AppendMessage(ctx context.Context, msg *model.ChatMessage) error
	// SaveMessages 批量保存缓存的消息，已有 ID 的消息会被忽略。
	SaveMessages(ctx context.Context, msgs []model.ChatMessage) error
	ListMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error)

	UpdateQuestionNumber(ctx context.Context, sessionID string, n int) error
	// MarkCompleted 以字段级的条件更新结束会话，返回本次调用是否真正完成了它。
	MarkCompleted(ctx context.Context, sessionID string, endTime time.Time, summary string) (bool, error)

	CreateResult(ctx context.Context, result *model.InterviewResult) error
	FindResult(ctx context.Context, sessionID string) (*model.InterviewResult, error)
}

type interviewRepository struct {
	db *gorm.DB
}

// NewInterviewRepository 创建一个新的 InterviewRepository 实例。
func NewInterviewRepository(db *gorm.DB) InterviewRepository {
	return &interviewRepository{db: db}
}

func (r *interviewRepository) CreateSession(ctx context.Context, session *model.InterviewSession) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(session).Error
}

func (r *interviewRepository) DeleteSession(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", sessionID).Delete(&model.InterviewSession{}).Error
	})
}

func (r *interviewRepository) FindSession(ctx context.Context, sessionID string) (*model.InterviewSession, error) {
	var session model.InterviewSession
	err := r.db.WithContext(ctx).Preload("Subtopic.Catalog").Where("id = ?", sessionID).Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *interviewRepository) ListSessionsByUser(ctx context.Context, userID uint, offset, limit int) ([]model.InterviewSession, int64, error) {
	var sessions []model.InterviewSession
	var total int64

	db := r.db.WithContext(ctx).Model(&model.InterviewSession{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 20
	}
	err := db.Order("start_time DESC").Offset(offset).Limit(limit).Find(&sessions).Error
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func (r *interviewRepository) AppendMessage(ctx context.Context, msg *model.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *interviewRepository) SaveMessages(ctx context.Context, msgs []model.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(msgs, 100).Error
}

func (r *interviewRepository) ListMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC").
		Order("id ASC").
		Find(&msgs).Error
	return msgs, err
}

func (r *interviewRepository) UpdateQuestionNumber(ctx context.Context, sessionID string, n int) error {
	return r.db.WithContext(ctx).
		Model(&model.InterviewSession{}).
		Where("id = ?", sessionID).
		Update("question_number", n).Error
}

func (r *interviewRepository) MarkCompleted(ctx context.Context, sessionID string, endTime time.Time, summary string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.InterviewSession{}).
		Where("id = ? AND completed = ?", sessionID, false).
		Updates(map[string]interface{}{
			"completed": true,
			"end_time":  endTime,
			"summary":   summary,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *interviewRepository) CreateResult(ctx context.Context, result *model.InterviewResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *interviewRepository) FindResult(ctx context.Context, sessionID string) (*model.InterviewResult, error) {
	var result model.InterviewResult
	err := r.db.WithContext(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("session_id = ?", sessionID).
		Take(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}
