package dto

import (
	"time"

	"github.com/turtacn/authsvc/internal/domain/models"
)

// SignInRequest 登录请求 DTO
// 凭据不做长度标签校验，查找顺序与错误映射由应用服务决定
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpRequest 注册请求 DTO
// 邮箱与密码由应用服务按顺序校验，这里只限制姓名类字段长度
type SignUpRequest struct {
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	TeamName  string `json:"teamName" validate:"max=100"`
}

// UserResponse 用户信息 DTO（不含密码哈希）
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Bio       string    `json:"bio"`
	Role      string    `json:"role"`
	TeamName  string    `json:"teamName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthResponse 登录/注册成功响应 DTO
type AuthResponse struct {
	JWT  string        `json:"jwt"`
	User *UserResponse `json:"user"`
}

// NewUserResponse 从领域模型构建用户信息 DTO
func NewUserResponse(u *models.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      string(u.Role),
		TeamName:  u.TeamName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
