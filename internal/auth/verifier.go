package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/eryajf/medqa/internal/model"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCredentials 用户名或密码错误
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUserDisabled 用户已被禁用
	ErrUserDisabled = errors.New("user is disabled")
)

// Identity 通过验证的用户身份
type Identity struct {
	ID       uint     `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// CredentialVerifier 凭证验证接口
// 问答与入库核心完全不感知用户身份,只有外层 HTTP 接口使用它
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (*Identity, error)
}

// GormVerifier 基于数据库用户表的凭证验证实现
type GormVerifier struct {
	db *gorm.DB
}

// NewGormVerifier 创建数据库凭证验证器
func NewGormVerifier(db *gorm.DB) *GormVerifier {
	return &GormVerifier{db: db}
}

// Verify 验证用户名密码
func (v *GormVerifier) Verify(ctx context.Context, username, password string) (*Identity, error) {
	var user model.User
	if err := v.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Enabled {
		return nil, ErrUserDisabled
	}

	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	roles := []string{"user"}
	if user.Roles != "" {
		roles = strings.Split(user.Roles, ",")
	}

	return &Identity{
		ID:       user.ID,
		Username: user.Username,
		Roles:    roles,
	}, nil
}
