package service

import (
	"context"
	"time"

	"github.com/turtacn/authsvc/internal/domain/models"
	"github.com/turtacn/authsvc/pkg/constants"
)

// TokenCodec mints and decodes signed, time-bound session tokens.
// TokenCodec 负责签发和解码带有时效的签名会话令牌。
type TokenCodec interface {
	// Mint signs {sub, iat=now, exp=now+ttl} plus extra. Extra never overrides the registered claims.
	// Mint 签发 {sub, iat=now, exp=now+ttl} 以及附加声明，附加声明不会覆盖注册声明。
	Mint(ctx context.Context, subject string, extra map[string]interface{}, ttl time.Duration) (string, error)

	// Decode verifies the signature and returns the claims. Failures are *errors.DecodeError.
	// Decode 校验签名并返回声明，失败时返回 *errors.DecodeError。
	Decode(ctx context.Context, token string) (*models.Claims, error)

	// IsValid reports whether token decodes, belongs to expectedSubject and is not expired.
	// IsValid 判断令牌能否解码、是否属于 expectedSubject 且未过期。
	IsValid(ctx context.Context, token, expectedSubject string) bool

	// ExtractSubject decodes token and returns its subject.
	ExtractSubject(ctx context.Context, token string) (string, error)
}

// PasswordHasher hashes and verifies user passwords.
// PasswordHasher 负责用户密码的哈希与校验。
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// RolePolicy decides the role label of a newly registered user.
// RolePolicy 决定新注册用户的角色标签。
type RolePolicy interface {
	AssignRole(ctx context.Context, user *models.User) constants.Role
}

// StaticRolePolicy assigns the same role to every user.
type StaticRolePolicy struct {
	Role constants.Role
}

// AssignRole returns the configured role, falling back to ADMIN.
func (p StaticRolePolicy) AssignRole(_ context.Context, _ *models.User) constants.Role {
	if p.Role == "" {
		return constants.RoleAdmin
	}
	return p.Role
}
