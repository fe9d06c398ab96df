package service

import (
	"errors"
	"strings"

	"interview-coach-go/internal/model"
	"interview-coach-go/internal/repository"
	"interview-coach-go/pkg/errs"
	"interview-coach-go/pkg/log"
)

// SubjectService 管理面试主题目录。
type SubjectService interface {
	ListCatalogs() ([]model.Catalog, error)
	CreateCatalog(title, objective string) (*model.Catalog, error)
	CreateSubtopic(catalogID uint, name, description string) (*model.Subtopic, error)
}

type subjectService struct {
	repo repository.SubjectRepository
}

// NewSubjectService 创建一个新的 SubjectService 实例。
func NewSubjectService(repo repository.SubjectRepository) SubjectService {
	return &subjectService{repo: repo}
}

func (s *subjectService) ListCatalogs() ([]model.Catalog, error) {
	catalogs, err := s.repo.ListCatalogs()
	if err != nil {
		return nil, errs.E(errs.CodeInternal, "SubjectService.ListCatalogs", "获取主题列表失败", err)
	}
	return catalogs, nil
}

func (s *subjectService) CreateCatalog(title, objective string) (*model.Catalog, error) {
	const op = "SubjectService.CreateCatalog"
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errs.E(errs.CodeInvalidArgument, op, "标题不能为空", nil)
	}
	catalog := &model.Catalog{Title: title, Objective: strings.TrimSpace(objective)}
	if err := s.repo.CreateCatalog(catalog); err != nil {
		return nil, errs.E(errs.CodeInternal, op, "创建主题失败", err)
	}
	log.Infof("[SubjectService] 主题已创建, id: %d, title: %s", catalog.ID, catalog.Title)
	return catalog, nil
}

func (s *subjectService) CreateSubtopic(catalogID uint, name, description string) (*model.Subtopic, error) {
	const op = "SubjectService.CreateSubtopic"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.E(errs.CodeInvalidArgument, op, "名称不能为空", nil)
	}
	if _, err := s.repo.FindCatalog(catalogID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.E(errs.CodeNotFound, op, "主题不存在", err)
		}
		return nil, errs.E(errs.CodeInternal, op, "查询主题失败", err)
	}
	subtopic := &model.Subtopic{CatalogID: catalogID, Name: name, Description: strings.TrimSpace(description)}
	if err := s.repo.CreateSubtopic(subtopic); err != nil {
		return nil, errs.E(errs.CodeInternal, op, "创建子主题失败", err)
	}
	return subtopic, nil
}
