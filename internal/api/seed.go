package api

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"donelist/internal/api/auth"
	"donelist/internal/model"

	"gorm.io/gorm"
)

// SeedDemoData 初始化演示账号及示例待办。
//
// 账号已存在时只补齐缺失的示例数据，随后清掉残留的活跃标记，
// 保证每次重启演示环境都是干净的。
func (s *Server) SeedDemoData(ctx context.Context) error {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", auth.DemoEmail).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hash, hashErr := auth.HashPassword("demo-only")
		if hashErr != nil {
			return hashErr
		}
		user = model.User{
			Email:    auth.DemoEmail,
			Password: hash,
			Role:     "demo",
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return err
		}
	} else if user.Role != "demo" {
		if err := s.db.WithContext(ctx).Model(&model.User{}).
			Where("id = ?", user.ID).
			Update("role", "demo").Error; err != nil {
			return err
		}
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Todo{}).
		Where("user_id = ?", user.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		samples := []model.Todo{
			{UserID: user.ID, Text: "试试勾选这条待办", Completed: false},
			{UserID: user.ID, Text: "新建一条自己的待办", Completed: false},
			{UserID: user.ID, Text: "注册账号保存你的清单", Completed: true},
		}
		if err := s.db.WithContext(ctx).Create(&samples).Error; err != nil {
			return err
		}
	}

	key := "demo:active:" + strconv.FormatUint(uint64(user.ID), 10)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.logger.Warn("clear demo activity key failed", slog.String("error", err.Error()))
	}

	return nil
}
