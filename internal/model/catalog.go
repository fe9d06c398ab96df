package model

import (
	"fmt"
	"strings"
	"time"
)

// Catalog 是一个面试主题包（例如由外部分析服务生成的目录），包含总体目标。
type Catalog struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string     `gorm:"type:varchar(255);not null" json:"title"`
	Objective string     `gorm:"type:text" json:"objective"`
	Subtopics []Subtopic `gorm:"foreignKey:CatalogID;constraint:OnDelete:CASCADE" json:"subtopics,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

func (Catalog) TableName() string {
	return "catalogs"
}

// Subtopic 是面试的具体对象，客户端 startInterview 传入的 subjectId 即其 ID。
type Subtopic struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CatalogID   uint      `gorm:"index;not null" json:"catalogId"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Catalog     *Catalog  `gorm:"foreignKey:CatalogID" json:"catalog,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Subtopic) TableName() string {
	return "subtopics"
}

// ContextText 渲染写入提示词的主题上下文。
func (s *Subtopic) ContextText() string {
	var b strings.Builder
	if s.Catalog != nil {
		fmt.Fprintf(&b, "Topic: %s\n", s.Catalog.Title)
		if s.Catalog.Objective != "" {
			fmt.Fprintf(&b, "Objective: %s\n", s.Catalog.Objective)
		}
	}
	fmt.Fprintf(&b, "Subtopic: %s\n", s.Name)
	if s.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", s.Description)
	}
	return b.String()
}
