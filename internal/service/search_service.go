// Package service 提供了搜索相关的业务逻辑。
package service

import (
	"context"
	"strings"

	"interview-coach-go/internal/model"
	"interview-coach-go/pkg/errs"
	"interview-coach-go/pkg/log"
)

// AnswerSearcher 是已归档问答的全文检索后端（由 es.AnswerIndex 实现）。
type AnswerSearcher interface {
	SearchAnswers(ctx context.Context, userID uint, query string, size int) ([]model.AnswerSearchDTO, error)
}

// SearchService 接口定义了搜索操作。
type SearchService interface {
	SearchAnswers(ctx context.Context, user *model.User, query string, topK int) ([]model.AnswerSearchDTO, error)
}

type searchService struct {
	searcher AnswerSearcher
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(searcher AnswerSearcher) SearchService {
	return &searchService{searcher: searcher}
}

// SearchAnswers 在当前用户自己的历史回答中检索。
func (s *searchService) SearchAnswers(ctx context.Context, user *model.User, query string, topK int) ([]model.AnswerSearchDTO, error) {
	const op = "SearchService.SearchAnswers"
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errs.E(errs.CodeInvalidArgument, op, "查询内容不能为空", nil)
	}
	if topK <= 0 || topK > 50 {
		topK = 10
	}
	log.Infof("[SearchService] 开始检索历史回答, query: '%s', topK: %d, user: %s", query, topK, user.Username)
	results, err := s.searcher.SearchAnswers(ctx, user.ID, query, topK)
	if err != nil {
		log.Errorf("[SearchService] 检索失败: %v", err)
		return nil, errs.E(errs.CodeUnavailable, op, "搜索服务暂不可用", err)
	}
	log.Infof("[SearchService] 命中 %d 条", len(results))
	return results, nil
}
