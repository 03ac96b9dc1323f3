package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/shoppingcart/internal/hash"
	"github.com/Skotchmaster/shoppingcart/internal/logging"
	"github.com/Skotchmaster/shoppingcart/internal/repo"
	"github.com/Skotchmaster/shoppingcart/internal/tokens"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type LoginRecorder interface {
	ObserveLogin(outcome string)
}

type AuthService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
	AccessTTL time.Duration
	Metrics   LoginRecorder
}

type LoginResult struct {
	AccessToken string
	AccessExp   time.Time
	UserID      uint
	Username    string
	IsAdmin     bool
}

func (h *AuthService) observe(outcome string) {
	if h.Metrics != nil {
		h.Metrics.ObserveLogin(outcome)
	}
}

func (h *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	if username == "" || password == "" {
		h.observe("invalid")
		return nil, fmt.Errorf("username and password are required: %w", ErrValidation)
	}

	user, err := h.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		if repo.IsNotFound(err) {
			l.Warn("login_failed", "status", 401, "reason", "unknown user")
			h.observe("denied")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		h.observe("error")
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		h.observe("denied")
		return nil, ErrInvalidCredentials
	}

	ttl := h.AccessTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	accessExp := time.Now().Add(ttl)
	accessToken, err := tokens.SignAccessToken(user.ID, user.Username, []string{user.Role}, accessExp, h.JWTSecret)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		h.observe("error")
		return nil, err
	}

	h.observe("ok")
	return &LoginResult{
		AccessToken: accessToken,
		AccessExp:   accessExp,
		UserID:      user.ID,
		Username:    user.Username,
		IsAdmin:     user.IsAdmin(),
	}, nil
}
