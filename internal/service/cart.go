package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/shoppingcart/internal/authz"
	"github.com/Skotchmaster/shoppingcart/internal/events"
	"github.com/Skotchmaster/shoppingcart/internal/logging"
	"github.com/Skotchmaster/shoppingcart/internal/metrics"
	"github.com/Skotchmaster/shoppingcart/internal/models"
	"github.com/Skotchmaster/shoppingcart/internal/repo"
)

var (
	ErrValidation      = errors.New("validation")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
)

const (
	PruneScopeCart   = "cart"
	PruneScopeGlobal = "global"
)

// ProductStore resolves products outside of the cart database.
type ProductStore interface {
	GetProductByID(ctx context.Context, id uint) (*models.Product, error)
}

type OpRecorder interface {
	ObserveCartOp(op, outcome string)
}

type CartService struct {
	Repo *repo.GormRepo

	// Products, when set, is consulted outside the transaction. The products
	// table is checked inside it either way, since cart lines reference it.
	Products   ProductStore
	Policy     authz.Policy
	Events     events.Publisher
	Metrics    OpRecorder
	PruneScope string
}

func (s *CartService) policy() authz.Policy {
	if s.Policy == nil {
		return authz.SelfOrAdmin{}
	}
	return s.Policy
}

// lookupProduct asks the external product store, if any, before the
// transaction opens. The result is applied inside the transaction after the
// cart and authorization checks.
func (s *CartService) lookupProduct(ctx context.Context, productID uint) error {
	if s.Products == nil {
		return nil
	}
	_, err := s.Products.GetProductByID(ctx, productID)
	return productError(productID, err)
}

// product applies the external lookup result, then confirms the products row
// that cart lines reference.
func (s *CartService) product(ctx context.Context, tx *repo.GormRepo, productID uint, external error) (*models.Product, error) {
	if external != nil {
		return nil, external
	}
	p, err := tx.GetProductByID(ctx, productID)
	if err != nil {
		return nil, productError(productID, err)
	}
	return p, nil
}

func productError(productID uint, err error) error {
	if err == nil {
		return nil
	}
	if repo.IsNotFound(err) {
		return fmt.Errorf("product %d not found: %w", productID, ErrNotFound)
	}
	return err
}

func (s *CartService) cart(ctx context.Context, tx *repo.GormRepo, cartID uint) (*models.Cart, error) {
	cart, err := tx.FindCartByID(ctx, cartID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("cart %d not found: %w", cartID, ErrNotFound)
		}
		return nil, err
	}
	return cart, nil
}

func (s *CartService) authorize(p *authz.Principal, cart *models.Cart) error {
	if p == nil {
		return fmt.Errorf("no principal: %w", ErrUnauthenticated)
	}
	if !s.policy().IsAuthorized(*p, cart.User.Username) {
		return fmt.Errorf("user %q may not modify cart %d: %w", p.Username, cart.ID, ErrForbidden)
	}
	return nil
}

func (s *CartService) observe(op string, err error) {
	if s.Metrics == nil {
		return
	}
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome = metrics.OutcomeNotFound
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrUnauthenticated):
		outcome = metrics.OutcomeForbidden
	default:
		outcome = metrics.OutcomeError
	}
	s.Metrics.ObserveCartOp(op, outcome)
}

func (s *CartService) publish(ctx context.Context, envs ...events.Envelope) {
	if s.Events == nil || len(envs) == 0 {
		return
	}
	if err := s.Events.Publish(ctx, envs...); err != nil {
		logging.FromContext(ctx).Error("cart_event_publish_error", "events", len(envs), "error", err)
	}
}

func actor(p *authz.Principal) string {
	if p == nil {
		return ""
	}
	return p.Username
}

func (s *CartService) ListCartsForPrincipal(ctx context.Context, p *authz.Principal) (carts []models.Cart, err error) {
	defer func() { s.observe("list_own", err) }()

	if p == nil || p.Username == "" {
		return nil, fmt.Errorf("no principal: %w", ErrUnauthenticated)
	}
	user, err := s.Repo.GetUserByUsername(ctx, p.Username)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("user %q not found: %w", p.Username, ErrNotFound)
		}
		return nil, err
	}
	return s.Repo.FindCartsByOwner(ctx, user.ID)
}

func (s *CartService) ListCartsForUser(ctx context.Context, p *authz.Principal, userID uint) (carts []models.Cart, err error) {
	defer func() { s.observe("list_user", err) }()

	if p == nil {
		return nil, fmt.Errorf("no principal: %w", ErrUnauthenticated)
	}
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("user %d not found: %w", userID, ErrNotFound)
		}
		return nil, err
	}
	if !s.policy().IsAuthorized(*p, user.Username) {
		return nil, fmt.Errorf("user %q may not read carts of %q: %w", p.Username, user.Username, ErrForbidden)
	}
	return s.Repo.FindCartsByOwner(ctx, user.ID)
}

func (s *CartService) GetCartByID(ctx context.Context, cartID uint) (cart *models.Cart, err error) {
	defer func() { s.observe("get", err) }()
	return s.cart(ctx, s.Repo, cartID)
}

// AddProductToCart always starts a new cart for the user holding a single
// line of the product.
func (s *CartService) AddProductToCart(ctx context.Context, p *authz.Principal, userID, productID uint) (cart *models.Cart, err error) {
	defer func() { s.observe("create", err) }()

	external := s.lookupProduct(ctx, productID)
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		c, err := s.createCart(ctx, tx, actor(p), userID, productID, external)
		cart = c
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.CartCreated, events.CartPayload{
		CartID:    cart.ID,
		UserID:    cart.UserID,
		ProductID: productID,
		Quantity:  1,
		Actor:     actor(p),
	}))
	return cart, nil
}

// CreateCartForPrincipal is AddProductToCart for the principal's own user.
func (s *CartService) CreateCartForPrincipal(ctx context.Context, p *authz.Principal, productID uint) (cart *models.Cart, err error) {
	if p == nil || p.Username == "" {
		s.observe("create", ErrUnauthenticated)
		return nil, fmt.Errorf("no principal: %w", ErrUnauthenticated)
	}
	user, err := s.Repo.GetUserByUsername(ctx, p.Username)
	if err != nil {
		if repo.IsNotFound(err) {
			err = fmt.Errorf("user %q not found: %w", p.Username, ErrNotFound)
		}
		s.observe("create", err)
		return nil, err
	}
	return s.AddProductToCart(ctx, p, user.ID, productID)
}

func (s *CartService) createCart(ctx context.Context, tx *repo.GormRepo, who string, userID, productID uint, external error) (*models.Cart, error) {
	user, err := tx.GetUserByID(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("user %d not found: %w", userID, ErrNotFound)
		}
		return nil, err
	}
	product, err := s.product(ctx, tx, productID, external)
	if err != nil {
		return nil, err
	}

	cart := models.Cart{
		UserID:    user.ID,
		CreatedBy: who,
		UpdatedBy: who,
		Items: []models.CartItem{{
			ProductID: product.ID,
			Quantity:  1,
			Comments:  "",
			CreatedBy: who,
			UpdatedBy: who,
		}},
	}
	if err := tx.SaveCart(ctx, &cart); err != nil {
		return nil, err
	}
	return tx.FindCartByID(ctx, cart.ID)
}

func (s *CartService) AddOrIncrementItem(ctx context.Context, p *authz.Principal, cartID, productID uint) (cart *models.Cart, err error) {
	defer func() { s.observe("add_item", err) }()

	who := actor(p)
	external := s.lookupProduct(ctx, productID)
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		current, err := s.cart(ctx, tx, cartID)
		if err != nil {
			return err
		}
		if err := s.authorize(p, current); err != nil {
			return err
		}
		if _, err := s.product(ctx, tx, productID, external); err != nil {
			return err
		}

		exists, err := tx.CartItemExists(ctx, cartID, productID)
		if err != nil {
			return err
		}
		if exists {
			err = tx.AdjustQuantity(ctx, who, cartID, productID, 1)
		} else {
			err = tx.AddCartItem(ctx, who, cartID, productID)
		}
		if err != nil {
			return err
		}
		if err := tx.TouchCart(ctx, who, cartID); err != nil {
			return err
		}

		cart, err = tx.FindCartByID(ctx, cartID)
		return err
	})
	if err != nil {
		return nil, err
	}

	qty := 0
	if item, ok := cart.Item(productID); ok {
		qty = item.Quantity
	}
	s.publish(ctx, events.New(events.CartItemAdded, events.CartPayload{
		CartID:    cart.ID,
		UserID:    cart.UserID,
		ProductID: productID,
		Quantity:  qty,
		Actor:     who,
	}))
	return cart, nil
}

// RemoveOrDecrementItem takes one unit of the product out of the cart. A line
// that reaches zero is removed, and so is a cart left without lines.
func (s *CartService) RemoveOrDecrementItem(ctx context.Context, p *authz.Principal, cartID, productID uint) (err error) {
	defer func() { s.observe("remove_item", err) }()

	who := actor(p)
	var (
		owner       uint
		remaining   int
		cartDeleted bool
	)
	external := s.lookupProduct(ctx, productID)
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		current, err := s.cart(ctx, tx, cartID)
		if err != nil {
			return err
		}
		owner = current.UserID
		if err := s.authorize(p, current); err != nil {
			return err
		}
		if _, err := s.product(ctx, tx, productID, external); err != nil {
			return err
		}

		exists, err := tx.CartItemExists(ctx, cartID, productID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("combo not found for cart %d and product %d: %w", cartID, productID, ErrNotFound)
		}
		if err := tx.AdjustQuantity(ctx, who, cartID, productID, -1); err != nil {
			return err
		}
		if item, ok := current.Item(productID); ok {
			remaining = item.Quantity - 1
		}

		cartDeleted, err = s.prune(ctx, tx, cartID)
		if err != nil {
			return err
		}
		if !cartDeleted {
			return tx.TouchCart(ctx, who, cartID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if remaining < 0 {
		remaining = 0
	}
	envs := []events.Envelope{events.New(events.CartItemRemoved, events.CartPayload{
		CartID:    cartID,
		UserID:    owner,
		ProductID: productID,
		Quantity:  remaining,
		Actor:     who,
	})}
	if cartDeleted {
		envs = append(envs, events.New(events.CartDeleted, events.CartPayload{
			CartID: cartID,
			UserID: owner,
			Actor:  who,
		}))
	}
	s.publish(ctx, envs...)
	return nil
}

// prune restores the no-empty-line and no-empty-cart invariants after a
// decrement and reports whether cartID is gone.
func (s *CartService) prune(ctx context.Context, tx *repo.GormRepo, cartID uint) (bool, error) {
	if s.PruneScope != PruneScopeGlobal {
		return tx.PruneCart(ctx, cartID)
	}

	if _, err := tx.PruneZeroQuantityItems(ctx); err != nil {
		return false, err
	}
	if _, err := tx.PruneEmptyCarts(ctx); err != nil {
		return false, err
	}
	if _, err := tx.FindCartByID(ctx, cartID); err != nil {
		if repo.IsNotFound(err) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}
