package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"flowgoals_backend/internal/config"
	"flowgoals_backend/internal/model"
	"flowgoals_backend/internal/repository"
	"flowgoals_backend/internal/util"
	"flowgoals_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GoogleIdentity 校验通过的 Google 身份
type GoogleIdentity struct {
	GoogleID string
	Email    string
	Name     string
	Picture  string
}

// GoogleVerifier 校验 Google ID token，测试里替换为假实现
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

// TokeninfoVerifier 调 Google tokeninfo 端点做校验
type TokeninfoVerifier struct {
	clientID string
	client   *http.Client
}

func NewTokeninfoVerifier(cfg config.GoogleConfig) *TokeninfoVerifier {
	return &TokeninfoVerifier{
		clientID: cfg.ClientID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *TokeninfoVerifier) Verify(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	endpoint := "https://oauth2.googleapis.com/tokeninfo?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("invalid google token (status %d)", resp.StatusCode)
	}

	var payload struct {
		Sub     string `json:"sub"`
		Aud     string `json:"aud"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Sub == "" {
		return nil, fmt.Errorf("google token missing subject")
	}
	if v.clientID != "" && payload.Aud != v.clientID {
		return nil, fmt.Errorf("google token audience mismatch")
	}
	return &GoogleIdentity{
		GoogleID: payload.Sub,
		Email:    payload.Email,
		Name:     payload.Name,
		Picture:  payload.Picture,
	}, nil
}

// AuthService Google 登录换 JWT，首次登录自动建用户
type AuthService struct {
	users    *repository.UserRepository
	verifier GoogleVerifier
	config   *config.Config
}

func NewAuthService(users *repository.UserRepository, verifier GoogleVerifier, cfg *config.Config) *AuthService {
	return &AuthService{users: users, verifier: verifier, config: cfg}
}

// LoginResult 登录响应
type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// LoginWithGoogle 校验 ID token，查找或创建用户，签发 JWT
func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken string) (*LoginResult, error) {
	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user, err := s.users.FindByGoogleID(identity.GoogleID)
	if errors.Is(err, gorm.ErrRecordNotFound) && identity.Email != "" {
		// 同邮箱老账号首次用 Google 登录时绑定 GoogleID
		user, err = s.users.FindByEmail(identity.Email)
		if err == nil {
			user.GoogleID = identity.GoogleID
		}
	}
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user = &model.User{
			GoogleID:           identity.GoogleID,
			Email:              identity.Email,
			Name:               identity.Name,
			Picture:            identity.Picture,
			ShowInActivityFeed: true,
			ReminderEnabled:    true,
			LastActiveAt:       &now,
		}
		if err := s.users.Create(user); err != nil {
			return nil, err
		}
		logger.Log.Info("new user registered", zap.Uint("userId", user.ID), zap.String("email", user.Email))
	} else {
		user.Name = identity.Name
		user.Picture = identity.Picture
		user.LastActiveAt = &now
		if err := s.users.Update(user); err != nil {
			return nil, err
		}
	}

	token, err := util.GenerateJWT(user, s.config.JWT.Secret, s.config.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user}, nil
}
