package httpserver

import (
	"context"
	"net/http"
	"time"

	authmw "github.com/Skotchmaster/shoppingcart/internal/middleware/auth"
	"github.com/labstack/echo/v4"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	CartHandler *CartHTTP
	AuthHandler *AuthHTTP
	JWTSecret   []byte
	DB          Pinger
	Metrics     http.Handler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.DB == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.DB.Ping(ctx); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}

	if d.AuthHandler != nil {
		e.POST("/auth/login", d.AuthHandler.Login)
	}

	authMW := authmw.New(d.JWTSecret)

	carts := e.Group("/carts", authMW.RequireAuth)
	carts.GET("/user", d.CartHandler.ListOwnCarts)
	carts.GET("/user/:userid", d.CartHandler.ListUserCarts)
	carts.POST("/create/product/:productid", d.CartHandler.CreateCart)
	carts.PUT("/update/cart/:cartid/product/:productid", d.CartHandler.AddOrIncrementItem)
	carts.DELETE("/delete/cart/:cartid/product/:productid", d.CartHandler.RemoveOrDecrementItem)

	e.GET("/carts/cart/:cartid", d.CartHandler.GetCart, authMW.RequireAdmin)
}
