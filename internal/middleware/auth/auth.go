package auth

import (
	"net/http"
	"strings"

	"github.com/Skotchmaster/shoppingcart/internal/authz"
	"github.com/Skotchmaster/shoppingcart/internal/tokens"
	"github.com/labstack/echo/v4"
)

const principalKey = "principal"

type Middleware struct {
	JWTSecret []byte
}

func New(secret []byte) *Middleware {
	return &Middleware{JWTSecret: secret}
}

type ValidatorFunc func(p *authz.Principal) error

func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(p *authz.Principal) error {
		if !p.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (m *Middleware) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := accessToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err != nil {
			c.SetCookie(tokens.DeleteCookie(tokens.AccessCookieName, "/"))
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}
		userID, err := claims.UserID()
		if err != nil || claims.Username == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
		}

		p := &authz.Principal{
			UserID:   userID,
			Username: claims.Username,
			Roles:    claims.Roles,
		}
		if validator != nil {
			if err := validator(p); err != nil {
				return err
			}
		}

		c.Set(principalKey, p)
		return next(c)
	}
}

// accessToken prefers the cookie and falls back to a bearer header.
func accessToken(c echo.Context) string {
	if cookie, err := c.Cookie(tokens.AccessCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// Principal returns the principal stored by RequireAuth, or nil.
func Principal(c echo.Context) *authz.Principal {
	p, _ := c.Get(principalKey).(*authz.Principal)
	return p
}

func SetPrincipal(c echo.Context, p *authz.Principal) {
	c.Set(principalKey, p)
}
