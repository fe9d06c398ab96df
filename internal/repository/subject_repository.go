package repository

import (
	"errors"

	"gorm.io/gorm"

	"interview-coach-go/internal/model"
	"interview-coach-go/pkg/errs"
)

// SubjectRepository 管理面试主题：目录（Catalog）及其子主题（Subtopic）。
type SubjectRepository interface {
	ListCatalogs() ([]model.Catalog, error)
	CreateCatalog(catalog *model.Catalog) error
	FindCatalog(id uint) (*model.Catalog, error)
	CreateSubtopic(subtopic *model.Subtopic) error
	FindSubtopic(id uint) (*model.Subtopic, error)
}

type subjectRepository struct {
	db *gorm.DB
}

// NewSubjectRepository 创建一个新的 SubjectRepository 实例。
func NewSubjectRepository(db *gorm.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) ListCatalogs() ([]model.Catalog, error) {
	var catalogs []model.Catalog
	err := r.db.Preload("Subtopics", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Order("id ASC").Find(&catalogs).Error
	return catalogs, err
}

func (r *subjectRepository) CreateCatalog(catalog *model.Catalog) error {
	return r.db.Create(catalog).Error
}

func (r *subjectRepository) FindCatalog(id uint) (*model.Catalog, error) {
	var catalog model.Catalog
	err := r.db.First(&catalog, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &catalog, nil
}

func (r *subjectRepository) CreateSubtopic(subtopic *model.Subtopic) error {
	return r.db.Create(subtopic).Error
}

// FindSubtopic 按 ID 查找子主题，并预加载所属目录以构建提示词上下文。
func (r *subjectRepository) FindSubtopic(id uint) (*model.Subtopic, error) {
	var subtopic model.Subtopic
	err := r.db.Preload("Catalog").First(&subtopic, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &subtopic, nil
}
