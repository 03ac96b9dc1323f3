package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Skotchmaster/shoppingcart/internal/logging"
	authmw "github.com/Skotchmaster/shoppingcart/internal/middleware/auth"
	"github.com/Skotchmaster/shoppingcart/internal/service"
	"github.com/Skotchmaster/shoppingcart/internal/transport"
	"github.com/labstack/echo/v4"
)

type CartHTTP struct {
	Svc *service.CartService
}

func pathID(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(v), nil
}

// serviceError maps a cart service failure to an HTTP error and logs it
// under event.
func serviceError(l *slog.Logger, event string, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		l.Warn(event, "status", 403, "error", err)
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	case errors.Is(err, service.ErrUnauthenticated):
		l.Warn(event, "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		l.Error(event, "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

func (h *CartHTTP) ListOwnCarts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.own.carts")

	carts, err := h.Svc.ListCartsForPrincipal(ctx, authmw.Principal(c))
	if err != nil {
		return serviceError(l, "list_own_carts_error", err)
	}

	return c.JSON(http.StatusOK, transport.NewCartsResponse(carts))
}

func (h *CartHTTP) ListUserCarts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.user.carts")

	userID, err := pathID(c, "userid")
	if err != nil {
		l.Warn("list_user_carts_error", "status", 400, "error", err)
		return err
	}

	carts, err := h.Svc.ListCartsForUser(ctx, authmw.Principal(c), userID)
	if err != nil {
		return serviceError(l, "list_user_carts_error", err)
	}

	return c.JSON(http.StatusOK, transport.NewCartsResponse(carts))
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.cart")

	cartID, err := pathID(c, "cartid")
	if err != nil {
		l.Warn("get_cart_error", "status", 400, "error", err)
		return err
	}

	cart, err := h.Svc.GetCartByID(ctx, cartID)
	if err != nil {
		return serviceError(l, "get_cart_error", err)
	}

	return c.JSON(http.StatusOK, transport.NewCartResponse(cart))
}

func (h *CartHTTP) CreateCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "create.cart")

	productID, err := pathID(c, "productid")
	if err != nil {
		l.Warn("create_cart_error", "status", 400, "error", err)
		return err
	}

	cart, err := h.Svc.CreateCartForPrincipal(ctx, authmw.Principal(c), productID)
	if err != nil {
		return serviceError(l, "create_cart_error", err)
	}

	l.Info("cart_created", "cart_id", cart.ID, "product_id", productID)
	return c.JSON(http.StatusCreated, transport.NewCartResponse(cart))
}

func (h *CartHTTP) AddOrIncrementItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.cart")

	cartID, err := pathID(c, "cartid")
	if err != nil {
		l.Warn("update_cart_error", "status", 400, "error", err)
		return err
	}
	productID, err := pathID(c, "productid")
	if err != nil {
		l.Warn("update_cart_error", "status", 400, "error", err)
		return err
	}

	cart, err := h.Svc.AddOrIncrementItem(ctx, authmw.Principal(c), cartID, productID)
	if err != nil {
		return serviceError(l, "update_cart_error", err)
	}

	l.Info("cart_item_added", "cart_id", cartID, "product_id", productID)
	return c.JSON(http.StatusOK, transport.NewCartResponse(cart))
}

func (h *CartHTTP) RemoveOrDecrementItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "delete.cart.item")

	cartID, err := pathID(c, "cartid")
	if err != nil {
		l.Warn("delete_cart_item_error", "status", 400, "error", err)
		return err
	}
	productID, err := pathID(c, "productid")
	if err != nil {
		l.Warn("delete_cart_item_error", "status", 400, "error", err)
		return err
	}

	if err := h.Svc.RemoveOrDecrementItem(ctx, authmw.Principal(c), cartID, productID); err != nil {
		return serviceError(l, "delete_cart_item_error", err)
	}

	l.Info("cart_item_removed", "cart_id", cartID, "product_id", productID)
	return c.JSON(http.StatusOK, transport.RemoveItemResponse{
		CartID:    cartID,
		ProductID: productID,
		Removed:   true,
	})
}
