package transport

import (
	"time"

	"github.com/Skotchmaster/shoppingcart/internal/models"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Username    string    `json:"username"`
	IsAdmin     bool      `json:"is_admin"`
}

type CartItemResponse struct {
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Comments    string  `json:"comments"`
}

type CartResponse struct {
	ID        uint               `json:"id"`
	UserID    uint               `json:"user_id"`
	Username  string             `json:"username"`
	Items     []CartItemResponse `json:"items"`
	CreatedBy string             `json:"created_by"`
	UpdatedBy string             `json:"updated_by"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type RemoveItemResponse struct {
	CartID    uint `json:"cart_id"`
	ProductID uint `json:"product_id"`
	Removed   bool `json:"removed"`
}

func NewCartResponse(c *models.Cart) CartResponse {
	items := make([]CartItemResponse, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, CartItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.Product.Name,
			Price:       it.Product.Price,
			Quantity:    it.Quantity,
			Comments:    it.Comments,
		})
	}
	return CartResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		Username:  c.User.Username,
		Items:     items,
		CreatedBy: c.CreatedBy,
		UpdatedBy: c.UpdatedBy,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func NewCartsResponse(carts []models.Cart) []CartResponse {
	out := make([]CartResponse, 0, len(carts))
	for i := range carts {
		out = append(out, NewCartResponse(&carts[i]))
	}
	return out
}
