package model

import "time"

// User 表示系统用户。
type User struct {
	ID        uint      `gorm:"primaryKey"`                    // 用户 ID
	Email     string    `gorm:"type:varchar(191);uniqueIndex"` // 邮箱（唯一，存储前已小写并去除空白）
	Password  string    `gorm:"not null"`                      // bcrypt 哈希
	Role      string    `gorm:"type:varchar(16);default:user"` // 角色: user / demo
	CreatedAt time.Time // 创建时间

	Todos []Todo `gorm:"foreignKey:UserID"`
}
