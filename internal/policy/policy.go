// Package policy holds the role/action capability table. Every protected
// operation consults it once, before touching the store.
package policy

import (
	"shop_system/internal/apperr" // Application errors
	"shop_system/internal/domain" // Domain models
)

// Action is a protected operation.
type Action string

const (
	ManageOwnCart    Action = "cart:own"
	ViewAllCarts     Action = "cart:all"
	CreateProduct    Action = "product:create"
	UpdateProduct    Action = "product:update"
	DeleteProduct    Action = "product:delete"
	ViewLowStock     Action = "product:low-stock"
	CreateAdmin      Action = "user:create-admin"
	ListUsers        Action = "user:list"
	ViewUser         Action = "user:view"
	SearchUsers      Action = "user:search"
	UserStats        Action = "user:stats"
	ChangeUserRole   Action = "user:role"
	DeleteUser       Action = "user:delete"
	UpdateOwnProfile Action = "profile:update"
	ChangeOwnPass    Action = "profile:password"
)

var (
	everyone  = []domain.Role{domain.RoleAdmin, domain.RoleSuperAdmin}
	superOnly = []domain.Role{domain.RoleSuperAdmin}
)

var table = map[Action][]domain.Role{
	ManageOwnCart:    everyone,
	ViewAllCarts:     superOnly,
	CreateProduct:    everyone,
	UpdateProduct:    everyone,
	DeleteProduct:    superOnly,
	ViewLowStock:     everyone,
	CreateAdmin:      superOnly,
	ListUsers:        superOnly,
	ViewUser:         superOnly,
	SearchUsers:      superOnly,
	UserStats:        superOnly,
	ChangeUserRole:   superOnly,
	DeleteUser:       superOnly,
	UpdateOwnProfile: everyone,
	ChangeOwnPass:    everyone,
}

var denyMessages = map[Action]string{
	ViewAllCarts:  "Only superadmin can view all user carts",
	DeleteProduct: "Only superadmin can delete products",
	CreateAdmin:   "Only superadmin can create admin users",
}

// Identity is the authenticated caller.
type Identity struct {
	UserID uint
	Role   domain.Role
}

// Allowed reports whether role may perform action. Unknown actions and roles
// are denied.
func Allowed(role domain.Role, action Action) bool {
	for _, r := range table[action] {
		if r == role {
			return true
		}
	}
	return false
}

// Authorize returns a PermissionDenied error when role may not perform action.
func Authorize(role domain.Role, action Action) error {
	if Allowed(role, action) {
		return nil
	}
	if msg, ok := denyMessages[action]; ok {
		return apperr.Deniedf("%s", msg)
	}
	return apperr.Deniedf("Insufficient permissions")
}

// AuthorizeRoleChange checks that actor may set the role of targetID.
// Nobody may change their own role.
func AuthorizeRoleChange(actor Identity, targetID uint) error {
	if err := Authorize(actor.Role, ChangeUserRole); err != nil {
		return err
	}
	if actor.UserID == targetID {
		return apperr.Deniedf("Cannot change your own role")
	}
	return nil
}

// AuthorizeUserDelete checks that actor may delete target. Actors cannot
// delete themselves and superadmin accounts cannot be deleted at all.
func AuthorizeUserDelete(actor Identity, target domain.User) error {
	if err := Authorize(actor.Role, DeleteUser); err != nil {
		return err
	}
	if actor.UserID == target.ID {
		return apperr.Deniedf("Cannot delete your own account")
	}
	if target.Role == domain.RoleSuperAdmin {
		return apperr.Deniedf("Cannot delete superadmin users")
	}
	return nil
}
