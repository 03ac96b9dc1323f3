package repo

import (
	"context"

	"github.com/Skotchmaster/shoppingcart/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *GormRepo) cartQuery(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("product_id ASC") }).
		Preload("Items.Product")
}

func (r *GormRepo) FindCartByID(ctx context.Context, cartID uint) (*models.Cart, error) {
	var cart models.Cart
	if err := r.cartQuery(ctx).Where("id = ?", cartID).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) FindCartsByOwner(ctx context.Context, userID uint) ([]models.Cart, error) {
	carts := []models.Cart{}
	if err := r.cartQuery(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&carts).Error; err != nil {
		return nil, err
	}
	return carts, nil
}

func (r *GormRepo) CartItemExists(ctx context.Context, cartID, productID uint) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AdjustQuantity adds delta to the quantity of an existing line. It never
// removes rows, so a negative delta can leave a zero quantity line behind
// for the prune step.
func (r *GormRepo) AdjustQuantity(ctx context.Context, actor string, cartID, productID uint, delta int) error {
	res := r.DB.WithContext(ctx).Model(&models.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_by": actor,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) AddCartItem(ctx context.Context, actor string, cartID, productID uint) error {
	item := models.CartItem{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  1,
		Comments:  "",
		CreatedBy: actor,
		UpdatedBy: actor,
	}
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(&item).Error
}

func (r *GormRepo) PruneZeroQuantityItems(ctx context.Context) (int64, error) {
	res := r.DB.WithContext(ctx).Where("quantity <= 0").Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) PruneEmptyCarts(ctx context.Context) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM cart_items WHERE cart_items.cart_id = carts.id)").
		Delete(&models.Cart{})
	return res.RowsAffected, res.Error
}

// PruneCart applies both prune passes to a single cart and reports whether
// the cart itself was removed.
func (r *GormRepo) PruneCart(ctx context.Context, cartID uint) (bool, error) {
	db := r.DB.WithContext(ctx)
	if err := db.Where("cart_id = ? AND quantity <= 0", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return false, err
	}

	var left int64
	if err := db.Model(&models.CartItem{}).Where("cart_id = ?", cartID).Count(&left).Error; err != nil {
		return false, err
	}
	if left > 0 {
		return false, nil
	}

	res := db.Where("id = ?", cartID).Delete(&models.Cart{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SaveCart upserts the cart row and every item it carries. Associated users
// and products are never written.
func (r *GormRepo) SaveCart(ctx context.Context, cart *models.Cart) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(cart).Error; err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return nil
		}
		for i := range cart.Items {
			cart.Items[i].CartID = cart.ID
		}
		return tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"quantity", "comments", "updated_by", "updated_at"}),
			}).
			Create(&cart.Items).Error
	})
}

func (r *GormRepo) TouchCart(ctx context.Context, actor string, cartID uint) error {
	return r.DB.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{
			"updated_by": actor,
		}).Error
}
