package service

import (
	"context"
	"testing"
	"time"

	"github.com/Skotchmaster/shoppingcart/internal/hash"
	"github.com/Skotchmaster/shoppingcart/internal/models"
	"github.com/Skotchmaster/shoppingcart/internal/repo"
	"github.com/Skotchmaster/shoppingcart/internal/testutil"
	"github.com/Skotchmaster/shoppingcart/internal/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginCounter map[string]int

func (c loginCounter) ObserveLogin(outcome string) { c[outcome]++ }

func newTestAuthService(t *testing.T) (*AuthService, loginCounter) {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	pw, err := hash.HashPassword("s3cret")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{Username: "root", PasswordHash: pw, Role: models.RoleAdmin}).Error)

	counter := loginCounter{}
	return &AuthService{
		Repo:      &repo.GormRepo{DB: db},
		JWTSecret: []byte("test-jwt-secret"),
		AccessTTL: 10 * time.Minute,
		Metrics:   counter,
	}, counter
}

func TestAuthService_Login_IssuesAccessToken(t *testing.T) {
	svc, counter := newTestAuthService(t)

	res, err := svc.Login(context.Background(), "root", "s3cret")
	require.NoError(t, err)
	assert.True(t, res.IsAdmin)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), res.AccessExp, 5*time.Second)

	claims, err := tokens.AccessClaimsFromToken(res.AccessToken, svc.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "root", claims.Username)
	assert.Equal(t, []string{models.RoleAdmin}, claims.Roles)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, res.UserID, id)
	assert.Equal(t, 1, counter["ok"])
}

func TestAuthService_Login_Rejects(t *testing.T) {
	svc, counter := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "empty username", username: "", password: "s3cret", wantErr: ErrValidation},
		{name: "empty password", username: "root", password: "", wantErr: ErrValidation},
		{name: "unknown user", username: "ghost", password: "s3cret", wantErr: ErrInvalidCredentials},
		{name: "wrong password", username: "root", password: "nope", wantErr: ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Login(ctx, tt.username, tt.password)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, 2, counter["denied"])
	assert.Equal(t, 2, counter["invalid"])
}
