package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Skotchmaster/shoppingcart/internal/tokens"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-jwt-secret")

func signed(t *testing.T, id uint, username string, roles ...string) string {
	t.Helper()
	tok, err := tokens.SignAccessToken(id, username, roles, time.Now().Add(time.Minute), secret)
	require.NoError(t, err)
	return tok
}

func run(t *testing.T, mw echo.MiddlewareFunc, prepare func(r *http.Request)) (*httptest.ResponseRecorder, bool, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if prepare != nil {
		prepare(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	err := mw(func(c echo.Context) error {
		called = true
		p := Principal(c)
		require.NotNil(t, p)
		return c.String(http.StatusOK, p.Username)
	})(c)
	return rec, called, err
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T", err)
	return he.Code
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()
	m := New(secret)
	aliceToken := signed(t, 1, "alice", "user")
	anonToken := signed(t, 1, "")
	expired, err := tokens.SignAccessToken(1, "alice", nil, time.Now().Add(-time.Minute), secret)
	require.NoError(t, err)

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		wantStatus int
	}{
		{
			name: "cookie",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: tokens.AccessCookieName, Value: aliceToken})
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "bearer header",
			prepare: func(r *http.Request) {
				r.Header.Set(echo.HeaderAuthorization, "Bearer "+aliceToken)
			},
			wantStatus: http.StatusOK,
		},
		{name: "missing token", wantStatus: http.StatusUnauthorized},
		{
			name: "garbage token",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: tokens.AccessCookieName, Value: "garbage"})
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "expired token",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: tokens.AccessCookieName, Value: expired})
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "token without username",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: tokens.AccessCookieName, Value: anonToken})
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, called, err := run(t, m.RequireAuth, tt.prepare)
			if tt.wantStatus == http.StatusOK {
				require.NoError(t, err)
				assert.True(t, called)
				assert.Equal(t, "alice", rec.Body.String())
				return
			}
			require.Error(t, err)
			assert.False(t, called)
			assert.Equal(t, tt.wantStatus, statusOf(t, err))
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()
	m := New(secret)

	_, called, err := run(t, m.RequireAdmin, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: tokens.AccessCookieName, Value: signed(t, 1, "alice", "user")})
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	rec, called, err := run(t, m.RequireAdmin, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: tokens.AccessCookieName, Value: signed(t, 3, "root", "admin")})
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "root", rec.Body.String())
}

func TestPrincipal_Missing(t *testing.T) {
	t.Parallel()

	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Nil(t, Principal(c))
}
