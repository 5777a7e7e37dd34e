package repository

import (
	"context"

	"github.com/turtacn/authsvc/internal/domain/models"
	"github.com/turtacn/authsvc/pkg/constants"
)

// LedgerRepository 定义凭证台账仓储接口
// 台账记录每个已颁发的令牌及其撤销/过期标志
// 实现类：internal/infrastructure/persistence/redis/ledger_repo.go
type LedgerRepository interface {
	// FindByToken 根据原始令牌字符串查询台账条目
	// 不存在时返回 (nil, nil)
	FindByToken(ctx context.Context, token string) (*models.LedgerEntry, error)

	// FindByUserRevokedExpired 查询指定用户下标志完全匹配的所有条目
	FindByUserRevokedExpired(ctx context.Context, userID string, revoked, expired constants.LedgerFlag) ([]*models.LedgerEntry, error)

	// Save 按条目 ID 插入或更新（幂等）
	Save(ctx context.Context, entry *models.LedgerEntry) error

	// SaveAll 批量插入或更新
	SaveAll(ctx context.Context, entries []*models.LedgerEntry) error

	// DeleteByToken 删除与令牌字符串完全匹配的条目，最多一条
	// 条目不存在时为空操作
	DeleteByToken(ctx context.Context, token string) error
}
