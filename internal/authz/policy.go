package authz

import (
	"slices"

	"github.com/Skotchmaster/shoppingcart/internal/models"
)

// Principal is the authenticated actor of a request.
type Principal struct {
	UserID   uint
	Username string
	Roles    []string
}

func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

func (p Principal) IsAdmin() bool {
	return p.HasRole(models.RoleAdmin)
}

type Policy interface {
	IsAuthorized(p Principal, ownerUsername string) bool
}

// SelfOrAdmin lets administrators act on any cart and everyone else only on
// carts they own.
type SelfOrAdmin struct{}

func (SelfOrAdmin) IsAuthorized(p Principal, ownerUsername string) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Username != "" && p.Username == ownerUsername
}
