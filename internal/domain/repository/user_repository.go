// Package repository 定义领域仓储接口
// 仓储接口遵循 DDD 原则，定义领域对象的持久化契约
package repository

import (
	"context"

	"github.com/turtacn/authsvc/internal/domain/models"
)

// UserRepository 定义用户仓储接口
// 实现类：internal/infrastructure/persistence/postgres/user_repo.go
type UserRepository interface {
	// FindByID 根据用户 ID 查询用户
	// 返回：
	//   - *models.User: 查询到的用户；不存在时为 nil
	//   - error: 存储失败时返回错误，不存在不视为错误
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail 根据邮箱查询用户（邮箱唯一）
	// 返回：
	//   - *models.User: 查询到的用户；不存在时为 nil
	//   - error: 存储失败时返回错误
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Save 插入或更新用户
	// 邮箱唯一约束冲突时返回 PreconditionFailed 错误（邮箱已被使用）
	Save(ctx context.Context, user *models.User) error
}
