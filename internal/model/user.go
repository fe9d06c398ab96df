// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// User 定义了 users 表的 ORM 模型，同时承载面试开始时快照的候选人资料。
type User struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username   string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Password   string    `gorm:"type:varchar(255);not null" json:"-"`
	Role       string    `gorm:"type:varchar(16);not null;default:USER" json:"role"` // USER 或 ADMIN
	FullName   string    `gorm:"type:varchar(128)" json:"fullName"`
	Email      string    `gorm:"type:varchar(128)" json:"email"`
	Education  string    `gorm:"type:text" json:"education"`
	Experience string    `gorm:"type:text" json:"experience"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}
