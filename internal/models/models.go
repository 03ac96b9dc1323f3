package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"not null"                 json:"name"`
	Description string  `gorm:"not null;default:''"      json:"description"`
	Price       float64 `gorm:"not null"                 json:"price"`
	Count       uint    `json:"count"`
}

// Cart belongs to exactly one user and must always hold at least one item.
type Cart struct {
	ID        uint       `gorm:"primaryKey;autoIncrement"                       json:"id"`
	UserID    uint       `gorm:"index;not null"                                 json:"user_id"`
	User      User       `gorm:"foreignKey:UserID"                              json:"user"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"  json:"items"`
	CreatedBy string     `json:"created_by"`
	UpdatedBy string     `json:"updated_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is keyed by (cart_id, product_id), so a cart holds at most one
// line per product.
type CartItem struct {
	CartID    uint      `gorm:"primaryKey;autoIncrement:false" json:"cart_id"`
	ProductID uint      `gorm:"primaryKey;autoIncrement:false" json:"product_id"`
	Product   Product   `gorm:"foreignKey:ProductID"           json:"product"`
	Quantity  int       `gorm:"not null"                       json:"quantity"`
	Comments  string    `gorm:"not null"                       json:"comments"`
	CreatedBy string    `json:"created_by"`
	UpdatedBy string    `json:"updated_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Cart) TableName() string {
	return "carts"
}

func (CartItem) TableName() string {
	return "cart_items"
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Item returns the line for productID, if the cart holds one.
func (c *Cart) Item(productID uint) (*CartItem, bool) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i], true
		}
	}
	return nil, false
}
