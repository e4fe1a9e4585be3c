package model

import "time"

// Todo 表示一条待办事项。
//
// 每条待办都归属于一个用户（UserID 外键），所有读写操作都必须带上
// 归属谓词，避免越权访问其他用户的数据。
type Todo struct {
	ID        uint      `gorm:"primaryKey"` // 待办唯一标识
	CreatedAt time.Time // 创建时间
	UpdatedAt time.Time // 更新时间

	UserID    uint   `gorm:"not null;index"`    // 所属用户 ID
	User      User   `gorm:"foreignKey:UserID"` // 所属用户
	Text      string `gorm:"not null"`          // 待办内容（非空，已去除首尾空白）
	Completed bool   `gorm:"default:false"`     // 是否已完成
}
