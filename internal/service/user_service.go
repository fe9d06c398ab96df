// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"strings"

	"interview-coach-go/internal/model"
	"interview-coach-go/internal/repository"
	"interview-coach-go/pkg/errs"
	"interview-coach-go/pkg/hash"
	"interview-coach-go/pkg/log"
	"interview-coach-go/pkg/token"
)

// ProfileUpdate 是可由用户修改的资料字段，面试开始时会快照进会话。
type ProfileUpdate struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Education  string `json:"education"`
	Experience string `json:"experience"`
}

// UserService 接口定义了所有与用户相关的业务操作。
type UserService interface {
	Register(username, password string) (*model.User, error)
	Login(username, password string) (accessToken, refreshToken string, err error)
	RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error)
	Logout(ctx context.Context, tokenString string) error
	IsTokenRevoked(ctx context.Context, tokenString string) bool
	GetProfile(username string) (*model.User, error)
	UpdateProfile(userID uint, update ProfileUpdate) (*model.User, error)
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo   repository.UserRepository
	blacklist  repository.TokenBlacklist
	jwtManager *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, blacklist repository.TokenBlacklist, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:   userRepo,
		blacklist:  blacklist,
		jwtManager: jwtManager,
	}
}

// Register 处理用户注册的业务逻辑。
func (s *userService) Register(username, password string) (*model.User, error) {
	const op = "UserService.Register"
	username = strings.TrimSpace(username)
	if username == "" || len(password) < 6 {
		return nil, errs.E(errs.CodeInvalidArgument, op, "用户名不能为空且密码至少 6 位", nil)
	}

	// 1. 检查用户名是否已存在
	_, err := s.userRepo.FindByUsername(username)
	if err == nil {
		return nil, errs.E(errs.CodeConflict, op, "用户名已存在", nil)
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, errs.E(errs.CodeInternal, op, "查询用户失败", err)
	}

	// 2. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, errs.E(errs.CodeInternal, op, "密码处理失败", err)
	}

	// 3. 创建新用户
	newUser := &model.User{
		Username: username,
		Password: hashedPassword,
		Role:     "USER", // 默认角色
		FullName: username,
	}
	if err := s.userRepo.Create(newUser); err != nil {
		return nil, errs.E(errs.CodeInternal, op, "创建用户失败", err)
	}
	log.Infof("[UserService] 新用户注册成功, username: %s", username)
	return newUser, nil
}

// Login 处理用户登录的业务逻辑。
func (s *userService) Login(username, password string) (accessToken, refreshToken string, err error) {
	const op = "UserService.Login"
	// 1. 查找用户
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", "", errs.E(errs.CodeUnauthorized, op, "invalid credentials", nil)
		}
		return "", "", errs.E(errs.CodeInternal, op, "查询用户失败", err)
	}

	// 2. 验证密码
	if !hash.CheckPasswordHash(password, user.Password) {
		return "", "", errs.E(errs.CodeUnauthorized, op, "invalid credentials", nil)
	}

	// 3. 生成 access token 和 refresh token
	return s.issueTokens(user)
}

// RefreshToken 用有效的 refresh token 换取一对新的 token。
func (s *userService) RefreshToken(refreshTokenString string) (string, string, error) {
	const op = "UserService.RefreshToken"
	claims, err := s.jwtManager.VerifyRefreshToken(refreshTokenString)
	if err != nil {
		return "", "", errs.E(errs.CodeUnauthorized, op, "无效或已过期的 refresh token", err)
	}
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return "", "", errs.E(errs.CodeUnauthorized, op, "用户不存在", err)
	}
	return s.issueTokens(user)
}

func (s *userService) issueTokens(user *model.User) (string, string, error) {
	accessToken, err := s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", errs.E(errs.CodeInternal, "UserService.issueTokens", "生成 token 失败", err)
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", errs.E(errs.CodeInternal, "UserService.issueTokens", "生成 token 失败", err)
	}
	return accessToken, refreshToken, nil
}

// Logout 处理用户登出逻辑，将 token 加入 Redis 黑名单。
func (s *userService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return errs.E(errs.CodeUnauthorized, "UserService.Logout", "无效的 token", err)
	}
	// token 的剩余有效期将作为黑名单条目的过期时间
	if err := s.blacklist.Add(ctx, tokenString, claims.Remaining()); err != nil {
		return errs.E(errs.CodeUnavailable, "UserService.Logout", "登出失败，请稍后重试", err)
	}
	return nil
}

// IsTokenRevoked 报告 token 是否已登出。Redis 不可用时按未吊销处理。
func (s *userService) IsTokenRevoked(ctx context.Context, tokenString string) bool {
	revoked, err := s.blacklist.Contains(ctx, tokenString)
	if err != nil {
		log.Warnf("[UserService] 查询 token 黑名单失败: %v", err)
		return false
	}
	return revoked
}

// GetProfile 根据用户名获取用户详细信息。
func (s *userService) GetProfile(username string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.E(errs.CodeNotFound, "UserService.GetProfile", "用户不存在", err)
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile 更新候选人资料。已开始的面试使用创建时的快照，不受影响。
func (s *userService) UpdateProfile(userID uint, update ProfileUpdate) (*model.User, error) {
	const op = "UserService.UpdateProfile"
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, errs.E(errs.CodeNotFound, op, "用户不存在", err)
	}
	user.FullName = strings.TrimSpace(update.FullName)
	user.Email = strings.TrimSpace(update.Email)
	user.Education = strings.TrimSpace(update.Education)
	user.Experience = strings.TrimSpace(update.Experience)
	if err := s.userRepo.Update(user); err != nil {
		return nil, errs.E(errs.CodeInternal, op, "更新用户资料失败", err)
	}
	return user, nil
}
